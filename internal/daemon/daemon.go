package daemon

import (
	"context"
	"errors"
	"log/slog"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	ferrors "git.home.luguber.info/inful/reportbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/reportbuilder/internal/logfields"
)

// Trigger names recorded with each run.
const (
	TriggerStartup  = "startup"
	TriggerWatch    = "watch"
	TriggerSchedule = "schedule"
)

// Options selects which triggers the daemon arms.
type Options struct {
	Watch      bool
	Debounce   time.Duration
	Every      time.Duration
	Cron       string
	RunOnStart bool

	MetricsListen string
	Registry      *prom.Registry
}

// Daemon runs the pipeline on file changes and schedules until its context ends.
type Daemon struct {
	runner *Runner
	opts   Options
}

// New validates opts and returns a daemon.
func New(runner *Runner, opts Options) (*Daemon, error) {
	if runner == nil {
		return nil, ferrors.InternalError("daemon requires a runner").Build()
	}
	if opts.Every < 0 {
		return nil, ferrors.ValidationError("schedule interval must be positive").
			WithContext("interval", opts.Every.String()).Build()
	}
	if !opts.Watch && opts.Every == 0 && opts.Cron == "" {
		return nil, ferrors.ValidationError("daemon needs a trigger: watch, interval or cron").Build()
	}
	if opts.MetricsListen != "" && opts.Registry == nil {
		return nil, ferrors.ValidationError("metrics listener requires a registry").Build()
	}
	return &Daemon{runner: runner, opts: opts}, nil
}

// Run blocks until ctx is done or a service fails. Failed report runs are
// logged and do not stop the daemon.
func (d *Daemon) Run(ctx context.Context) error {
	var metricsSrv *MetricsServer
	if d.opts.MetricsListen != "" {
		srv, err := NewMetricsServer(d.opts.MetricsListen, d.opts.Registry)
		if err != nil {
			return err
		}
		metricsSrv = srv
	}

	g, gctx := errgroup.WithContext(ctx)

	if metricsSrv != nil {
		g.Go(func() error { return metricsSrv.Run(gctx) })
	}

	if d.opts.RunOnStart {
		d.trigger(gctx, TriggerStartup)
	}

	if d.opts.Watch {
		var cw *ConfigWatcher
		cw, err := NewConfigWatcher(d.runner.Watched(), d.opts.Debounce, func(runCtx context.Context) {
			d.trigger(runCtx, TriggerWatch)
			cw.Update(d.runner.Watched())
		})
		if err != nil {
			return errors.Join(err, d.abort(g))
		}
		g.Go(func() error { return cw.Run(gctx) })
	}

	if d.opts.Every > 0 || d.opts.Cron != "" {
		s, err := d.schedule(gctx)
		if err != nil {
			return errors.Join(err, d.abort(g))
		}
		s.Start()
		g.Go(func() error {
			<-gctx.Done()
			return s.Stop(context.WithoutCancel(gctx))
		})
	}

	slog.Info("Daemon running",
		slog.Bool("watch", d.opts.Watch),
		slog.Duration("every", d.opts.Every),
		slog.String("cron", d.opts.Cron))
	return g.Wait()
}

func (d *Daemon) schedule(ctx context.Context) (*Scheduler, error) {
	s, err := NewScheduler()
	if err != nil {
		return nil, err
	}
	task := func() { d.trigger(ctx, TriggerSchedule) }
	if d.opts.Every > 0 {
		if _, err := s.ScheduleEvery("report-interval", d.opts.Every, task); err != nil {
			_ = s.Stop(ctx)
			return nil, err
		}
	}
	if d.opts.Cron != "" {
		if _, err := s.ScheduleCron("report-cron", d.opts.Cron, task); err != nil {
			_ = s.Stop(ctx)
			return nil, err
		}
	}
	return s, nil
}

// abort waits for already started services; callers cancel through the parent context.
func (d *Daemon) abort(g *errgroup.Group) error {
	g.Go(func() error { return errStartup })
	if err := g.Wait(); err != nil && !errors.Is(err, errStartup) {
		return err
	}
	return nil
}

var errStartup = errors.New("daemon startup failed")

func (d *Daemon) trigger(ctx context.Context, trigger string) {
	if ctx.Err() != nil {
		return
	}
	res, err := d.runner.Trigger(ctx, trigger)
	if err != nil {
		slog.Error("Report run failed", logfields.Trigger(trigger), logfields.Error(err))
		return
	}
	if res != nil {
		slog.Info("Report run finished", logfields.Trigger(trigger), logfields.Status(string(res.Status)))
	}
}
