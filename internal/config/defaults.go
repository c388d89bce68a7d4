package config

import "time"

const (
	DefaultOutputPath      = "computer_graphics_report.pdf"
	DefaultPageSize        = "A4"
	DefaultOrientation     = "portrait"
	DefaultFont            = "Helvetica"
	DefaultFontSize        = 12.0
	DefaultProducerTimeout = 2 * time.Minute
)

func applyDefaults(cfg *Config) {
	if cfg.Output.Path == "" {
		cfg.Output.Path = DefaultOutputPath
	}
	if cfg.Page.Size == "" {
		cfg.Page.Size = DefaultPageSize
	}
	if cfg.Page.Orientation == "" {
		cfg.Page.Orientation = DefaultOrientation
	}
	if cfg.Page.Font == "" {
		cfg.Page.Font = DefaultFont
	}
	if cfg.Page.FontSize == 0 {
		cfg.Page.FontSize = DefaultFontSize
	}
	if cfg.Cleanup.Retry.Backoff == "" {
		cfg.Cleanup.Retry.Backoff = string(RetryBackoffLinear)
	}
	if cfg.Cleanup.Retry.Initial == 0 {
		cfg.Cleanup.Retry.Initial = 50 * time.Millisecond
	}
	if cfg.Cleanup.Retry.Max == 0 {
		cfg.Cleanup.Retry.Max = 500 * time.Millisecond
	}
	if cfg.Cleanup.Retry.MaxRetries == nil {
		n := 2
		cfg.Cleanup.Retry.MaxRetries = &n
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = string(LogLevelInfo)
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = string(LogFormatText)
	}
}
