package daemon

import (
	"context"
	"log/slog"
	"sync"

	"git.home.luguber.info/inful/reportbuilder/internal/config"
	"git.home.luguber.info/inful/reportbuilder/internal/logfields"
	"git.home.luguber.info/inful/reportbuilder/internal/report"
)

// ResultHook observes every finished run.
type ResultHook func(res *report.Result, err error)

// Runner reloads the configuration and runs the pipeline, one run at a time.
type Runner struct {
	mu         sync.Mutex
	configPath string
	svc        report.Service
	request    report.Request
	hook       ResultHook
	runs       int
}

// NewRunner returns a runner. base supplies request overrides; its Config is replaced on every run.
func NewRunner(configPath string, svc report.Service, base report.Request, hook ResultHook) *Runner {
	return &Runner{configPath: configPath, svc: svc, request: base, hook: hook}
}

// Trigger performs one full run. Concurrent callers wait for the current run to finish.
func (r *Runner) Trigger(ctx context.Context, trigger string) (*report.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.runs++
	slog.Info("Triggering report run", logfields.Trigger(trigger), logfields.Count(r.runs))

	cfg, err := config.Load(r.configPath)
	if err != nil {
		slog.Error("Configuration invalid; keeping previous report", logfields.Path(r.configPath), logfields.Error(err))
		if r.hook != nil {
			r.hook(nil, err)
		}
		return nil, err
	}

	req := r.request
	req.Config = cfg
	req.Trigger = trigger
	res, err := r.svc.Run(ctx, req)
	if r.hook != nil {
		r.hook(res, err)
	}
	return res, err
}

// Runs returns how many runs have been triggered.
func (r *Runner) Runs() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs
}

// Watched returns the configuration file and every section source file.
func (r *Runner) Watched() []string {
	paths := []string{r.configPath}
	cfg, err := config.Load(r.configPath)
	if err != nil {
		return paths
	}
	for _, sec := range cfg.Sections {
		if sec.File != "" {
			paths = append(paths, cfg.ResolvePath(sec.File))
		}
	}
	return paths
}
