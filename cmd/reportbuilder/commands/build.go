package commands

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"git.home.luguber.info/inful/reportbuilder/internal/report"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output  string         `short:"o" help:"Write the report here instead of output.path"`
	Timeout *time.Duration `help:"Per-section deadline; overrides pipeline.producer_timeout (0 disables)"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	w, err := newWiring(cfg, false)
	if err != nil {
		return err
	}
	defer w.close()

	req := report.Request{Config: cfg, ProducerTimeout: b.Timeout, Trigger: "cli"}
	if b.Output != "" {
		abs, err := filepath.Abs(b.Output)
		if err != nil {
			return err
		}
		req.OutputPath = abs
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	res, err := w.svc.Run(ctx, req)
	w.flushMetrics()
	printResult(g, res)
	return err
}

func printResult(g *Global, res *report.Result) {
	if res == nil {
		return
	}
	out := g.out()
	for _, warn := range res.Warnings {
		_, _ = fmt.Fprintf(out, "warning: %s\n", warn.Error())
	}
	switch {
	case res.Merged:
		_, _ = fmt.Fprintf(out, "Report written to %s (%d sections, %d pages, %s)\n",
			res.OutputPath, res.Sections, res.Pages, res.Duration.Round(time.Millisecond))
	case res.Status.IsSuccess():
		_, _ = fmt.Fprintln(out, "No sections configured; nothing to merge")
	default:
		_, _ = fmt.Fprintf(out, "Run %s %s; previous report left untouched\n", res.RunID, res.Status)
	}
}
