// Package report provides the canonical report run. CLI commands and the
// daemon both route through Service.
package report

import (
	"context"
	"time"

	"git.home.luguber.info/inful/reportbuilder/internal/config"
	ferrors "git.home.luguber.info/inful/reportbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/reportbuilder/internal/pipeline"
)

// Service executes report runs.
type Service interface {
	// Run builds producers from the config, generates every page, merges them and
	// removes the workspace. The returned Result is non-nil even on failure.
	Run(ctx context.Context, req Request) (*Result, error)
}

// Request contains the inputs of one run.
type Request struct {
	Config *config.Config

	// OutputPath overrides output.path when set.
	OutputPath string

	// ProducerTimeout overrides pipeline.producer_timeout when set.
	ProducerTimeout *time.Duration

	// Trigger names what started the run (cli, watch, schedule).
	Trigger string
}

// Result describes a completed run.
type Result struct {
	RunID      string
	Status     Status
	OutputPath string
	Merged     bool
	Sections   int
	Pages      int
	Manifest   []pipeline.Page
	Warnings   []*ferrors.ClassifiedError
	Error      error

	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

// Status represents the outcome of a run.
type Status string

const (
	StatusSuccess  Status = "success"
	StatusWarning  Status = "warning" // succeeded but cleanup left entries behind
	StatusFailed   Status = "failed"
	StatusCanceled Status = "canceled"
)

// IsSuccess reports whether the final document reflects this run.
func (s Status) IsSuccess() bool {
	return s == StatusSuccess || s == StatusWarning
}
