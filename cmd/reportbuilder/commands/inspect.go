package commands

import (
	"fmt"
	"text/tabwriter"

	"git.home.luguber.info/inful/reportbuilder/internal/producer"
)

// ValidateCmd implements the 'validate' command.
type ValidateCmd struct{}

func (v *ValidateCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	// Building producers checks kinds, per-kind fields and source files.
	if _, err := producer.DefaultRegistry().Build(cfg.Sections, producer.Env{Resolve: cfg.ResolvePath}); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.out(), "Configuration valid: %d sections, output %s\n",
		len(cfg.Sections), cfg.ResolvePath(cfg.Output.Path))
	return nil
}

// SectionsCmd implements the 'sections' command.
type SectionsCmd struct{}

func (s *SectionsCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(g.out(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "#\tNAME\tKIND\tSOURCE")
	for i, sec := range cfg.Sections {
		source := "-"
		switch {
		case sec.File != "":
			source = sec.File
		case sec.Body != "":
			source = "inline"
		}
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, sec.Name, sec.Kind, source)
	}
	return tw.Flush()
}

// KindsCmd implements the 'kinds' command.
type KindsCmd struct{}

func (k *KindsCmd) Run(g *Global) error {
	for _, kind := range producer.DefaultRegistry().Kinds() {
		_, _ = fmt.Fprintln(g.out(), kind)
	}
	return nil
}
