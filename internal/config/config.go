package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/reportbuilder/internal/foundation/errors"
)

// DefaultConfigFile is the configuration path used when none is given.
const DefaultConfigFile = "reportbuilder.yaml"

// Config represents the application configuration.
type Config struct {
	Output    OutputConfig    `yaml:"output"`
	Workspace WorkspaceConfig `yaml:"workspace"`
	Page      PageConfig      `yaml:"page"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Cleanup   CleanupConfig   `yaml:"cleanup"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	History   HistoryConfig   `yaml:"history"`

	// Sections is the ordered list of content producers; file order is page order.
	Sections []Section `yaml:"sections"`

	baseDir string
}

// OutputConfig controls where the merged document is written.
type OutputConfig struct {
	Path string `yaml:"path"`
}

// WorkspaceConfig selects the transient directory holding page artifacts.
// Dir pins a fixed directory; otherwise a unique directory is created under BaseDir.
// Either way the directory is removed at the end of every run.
type WorkspaceConfig struct {
	BaseDir string `yaml:"base_dir,omitempty"`
	Dir     string `yaml:"dir,omitempty"`
}

// PageConfig holds drawing surface defaults shared by every section.
type PageConfig struct {
	Size        string  `yaml:"size"`
	Orientation string  `yaml:"orientation"`
	Font        string  `yaml:"font"`
	FontFile    string  `yaml:"font_file,omitempty"`
	FontSize    float64 `yaml:"font_size"`
	Title       string  `yaml:"title,omitempty"`
}

// PipelineConfig holds orchestration settings.
type PipelineConfig struct {
	// ProducerTimeout bounds a single section. nil means the default; zero disables the bound.
	ProducerTimeout *time.Duration `yaml:"producer_timeout,omitempty"`
}

// CleanupConfig controls workspace teardown.
type CleanupConfig struct {
	Retry RetryConfig `yaml:"retry"`
}

// RetryConfig configures per-file deletion retries.
type RetryConfig struct {
	Backoff    string        `yaml:"backoff"`
	Initial    time.Duration `yaml:"initial"`
	Max        time.Duration `yaml:"max"`
	MaxRetries *int          `yaml:"max_retries,omitempty"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig enables Prometheus output.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
	Listen   string `yaml:"listen,omitempty"`
}

// HistoryConfig enables the SQLite run history.
type HistoryConfig struct {
	Path string `yaml:"path,omitempty"`
}

// Section declares one content producer.
type Section struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`

	Title      string   `yaml:"title,omitempty"`
	Paragraphs []string `yaml:"paragraphs,omitempty"`

	// File is a markdown or image source, resolved relative to the config file.
	File string `yaml:"file,omitempty"`
	Body string `yaml:"body,omitempty"`

	Caption string  `yaml:"caption,omitempty"`
	Width   float64 `yaml:"width,omitempty"`

	Labels []string  `yaml:"labels,omitempty"`
	Values []float64 `yaml:"values,omitempty"`
}

// BaseDir returns the directory relative section paths resolve against.
func (c *Config) BaseDir() string {
	if c.baseDir == "" {
		return "."
	}
	return c.baseDir
}

// ResolvePath resolves p against BaseDir unless it is absolute or empty.
func (c *Config) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.BaseDir(), p)
}

// ProducerTimeout returns the effective per-section deadline (0 = unbounded).
func (c *Config) ProducerTimeout() time.Duration {
	if c.Pipeline.ProducerTimeout == nil {
		return DefaultProducerTimeout
	}
	return *c.Pipeline.ProducerTimeout
}

// Load loads configuration from the specified file.
func Load(configPath string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		fmt.Fprintf(os.Stderr, "Note: .env file not loaded: %v\n", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, ferrors.ConfigError("configuration file not found").
			WithContext("path", configPath).
			Build()
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read config file").
			Fatal().
			WithContext("path", configPath).
			Build()
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	absPath, err := filepath.Abs(configPath)
	if err == nil {
		cfg.baseDir = filepath.Dir(absPath)
	} else {
		cfg.baseDir = filepath.Dir(configPath)
	}
	return cfg, nil
}

// Parse decodes YAML with environment expansion, applies defaults and validates.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to unmarshal config").Fatal().Build()
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
