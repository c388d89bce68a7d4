package commands

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/reportbuilder/internal/daemon"
	"git.home.luguber.info/inful/reportbuilder/internal/report"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Debounce time.Duration `help:"Quiet period before a change triggers a run" default:"500ms"`
	Listen   string        `help:"Serve /metrics on this address; overrides metrics.listen"`
}

func (w *WatchCmd) Run(_ *Global, root *CLI) error {
	return runDaemon(root, w.Listen, daemon.Options{
		Watch:      true,
		Debounce:   w.Debounce,
		RunOnStart: true,
	})
}

// ScheduleCmd implements the 'schedule' command.
type ScheduleCmd struct {
	Every  time.Duration `help:"Run at this interval"`
	Cron   string        `help:"Run on a five-field cron expression"`
	Now    bool          `help:"Run once immediately" default:"true" negatable:""`
	Listen string        `help:"Serve /metrics on this address; overrides metrics.listen"`
}

func (s *ScheduleCmd) Run(_ *Global, root *CLI) error {
	return runDaemon(root, s.Listen, daemon.Options{
		Every:      s.Every,
		Cron:       s.Cron,
		RunOnStart: s.Now,
	})
}

func runDaemon(root *CLI, listen string, opts daemon.Options) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	if listen == "" {
		listen = cfg.Metrics.Listen
	}
	w, err := newWiring(cfg, listen != "")
	if err != nil {
		return err
	}
	defer w.close()

	opts.MetricsListen = listen
	opts.Registry = w.registry
	runner := daemon.NewRunner(root.Config, w.svc, report.Request{}, func(*report.Result, error) {
		w.flushMetrics()
	})
	d, err := daemon.New(runner, opts)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return d.Run(ctx)
}
