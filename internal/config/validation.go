package config

import (
	"fmt"
	"strings"

	ferrors "git.home.luguber.info/inful/reportbuilder/internal/foundation/errors"
)

var pageSizes = map[string]bool{"a3": true, "a4": true, "a5": true, "letter": true, "legal": true}

// Validate checks structural invariants. Kind-specific parameters are checked
// by the producer registry when sections are built.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Output.Path) == "" {
		return ferrors.ValidationError("output.path must not be empty").Build()
	}
	if c.Workspace.Dir != "" && c.Workspace.BaseDir != "" {
		return ferrors.ValidationError("workspace.dir and workspace.base_dir are mutually exclusive").Build()
	}
	if !pageSizes[strings.ToLower(c.Page.Size)] {
		return ferrors.ValidationError("unsupported page.size").WithContext("value", c.Page.Size).Build()
	}
	if NormalizeOrientation(c.Page.Orientation) == "" {
		return ferrors.ValidationError("page.orientation must be portrait or landscape").
			WithContext("value", c.Page.Orientation).
			Build()
	}
	if c.Page.FontSize < 0 {
		return ferrors.ValidationError("page.font_size must be positive").Build()
	}
	if c.Pipeline.ProducerTimeout != nil && *c.Pipeline.ProducerTimeout < 0 {
		return ferrors.ValidationError("pipeline.producer_timeout cannot be negative").Build()
	}
	if err := c.Cleanup.Retry.validate(); err != nil {
		return err
	}
	if NormalizeLogLevel(c.Logging.Level) == "" {
		return ferrors.ValidationError("unknown logging.level").WithContext("value", c.Logging.Level).Build()
	}
	if NormalizeLogFormat(c.Logging.Format) == "" {
		return ferrors.ValidationError("unknown logging.format").WithContext("value", c.Logging.Format).Build()
	}
	return validateSections(c.Sections)
}

func (r RetryConfig) validate() error {
	if NormalizeRetryBackoff(r.Backoff) == "" {
		return ferrors.ValidationError("unknown cleanup.retry.backoff").WithContext("value", r.Backoff).Build()
	}
	if r.Initial < 0 || r.Max < 0 {
		return ferrors.ValidationError("cleanup.retry durations cannot be negative").Build()
	}
	if r.MaxRetries != nil && *r.MaxRetries < 0 {
		return ferrors.ValidationError("cleanup.retry.max_retries cannot be negative").Build()
	}
	return nil
}

func validateSections(sections []Section) error {
	seen := make(map[string]int, len(sections))
	for i, s := range sections {
		pos := i + 1
		if strings.TrimSpace(s.Name) == "" {
			return ferrors.ValidationError("section name is required").WithContext("position", pos).Build()
		}
		if prev, dup := seen[s.Name]; dup {
			return ferrors.ValidationError(fmt.Sprintf("duplicate section name %q", s.Name)).
				WithContext("position", pos).
				WithContext("first_position", prev).
				Build()
		}
		seen[s.Name] = pos
		if strings.TrimSpace(s.Kind) == "" {
			return ferrors.ValidationError("section kind is required").
				WithContext("section", s.Name).
				Build()
		}
		if s.Width < 0 {
			return ferrors.ValidationError("section width cannot be negative").
				WithContext("section", s.Name).
				Build()
		}
	}
	return nil
}
