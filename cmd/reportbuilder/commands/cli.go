// Package commands implements the reportbuilder command line.
package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/reportbuilder/internal/config"
	ferrors "git.home.luguber.info/inful/reportbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/reportbuilder/internal/observability"
)

// Global carries shared state into subcommands.
type Global struct {
	Out io.Writer
}

func (g *Global) out() io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

// CLI definition & global flags.
type CLI struct {
	Config    string           `short:"c" help:"Configuration file path" default:"reportbuilder.yaml" type:"path"`
	Verbose   bool             `short:"v" help:"Enable verbose logging"`
	LogFormat string           `name:"log-format" help:"Log format (text|json); overrides logging.format"`
	Version   kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build    BuildCmd    `cmd:"" default:"withargs" help:"Generate every section and merge the report"`
	Init     InitCmd     `cmd:"" help:"Initialize a new configuration file"`
	Validate ValidateCmd `cmd:"" help:"Check the configuration and section sources without generating"`
	Sections SectionsCmd `cmd:"" help:"List configured sections in page order"`
	Kinds    KindsCmd    `cmd:"" help:"List registered section kinds"`
	History  HistoryCmd  `cmd:"" help:"Show recent runs from the run history"`
	Watch    WatchCmd    `cmd:"" help:"Rebuild whenever the configuration or a section source changes"`
	Schedule ScheduleCmd `cmd:"" help:"Rebuild on a fixed interval or cron schedule"`
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply() error {
	switch c.LogFormat {
	case "", "text", "json":
	default:
		return ferrors.ValidationError("--log-format must be text or json").
			WithContext("value", c.LogFormat).Build()
	}
	slog.SetDefault(observability.NewLogger(os.Stderr, c.level(""), c.LogFormat))
	return nil
}

func (c *CLI) level(configured string) slog.Level {
	if c.Verbose {
		return slog.LevelDebug
	}
	return observability.ParseLevel(configured)
}

// loadConfig loads the configuration and re-applies logging from it; flags still win.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	format := c.LogFormat
	if format == "" {
		format = cfg.Logging.Format
	}
	slog.SetDefault(observability.NewLogger(os.Stderr, c.level(cfg.Logging.Level), format))
	return cfg, nil
}
