package report

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/reportbuilder/internal/cleanup"
	"git.home.luguber.info/inful/reportbuilder/internal/config"
	ferrors "git.home.luguber.info/inful/reportbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/reportbuilder/internal/history"
	"git.home.luguber.info/inful/reportbuilder/internal/logfields"
	"git.home.luguber.info/inful/reportbuilder/internal/merge"
	"git.home.luguber.info/inful/reportbuilder/internal/metrics"
	"git.home.luguber.info/inful/reportbuilder/internal/observability"
	"git.home.luguber.info/inful/reportbuilder/internal/pipeline"
	"git.home.luguber.info/inful/reportbuilder/internal/producer"
	"git.home.luguber.info/inful/reportbuilder/internal/retry"
	"git.home.luguber.info/inful/reportbuilder/internal/surface"
	"git.home.luguber.info/inful/reportbuilder/internal/workspace"
)

// DefaultService is the standard Service: PDF pages, pdfcpu merge, on-disk workspace.
type DefaultService struct {
	registry         *producer.Registry
	recorder         metrics.Recorder
	history          history.Store
	workspaceFactory func(cfg *config.Config) *workspace.Manager
	surfaceFactory   func(cfg *config.Config) surface.Factory
	mergerFactory    func(dest string) pipeline.Merger
}

// NewService creates a DefaultService with the built-in producer kinds.
func NewService() *DefaultService {
	return &DefaultService{
		registry:         producer.DefaultRegistry(),
		recorder:         metrics.NoopRecorder{},
		workspaceFactory: defaultWorkspace,
		surfaceFactory:   defaultSurface,
		mergerFactory:    func(dest string) pipeline.Merger { return merge.NewPDF(dest) },
	}
}

// WithRegistry replaces the producer registry.
func (s *DefaultService) WithRegistry(r *producer.Registry) *DefaultService {
	if r != nil {
		s.registry = r
	}
	return s
}

// WithRecorder sets the metrics recorder.
func (s *DefaultService) WithRecorder(r metrics.Recorder) *DefaultService {
	if r != nil {
		s.recorder = r
	}
	return s
}

// WithHistory records every run in store.
func (s *DefaultService) WithHistory(store history.Store) *DefaultService {
	s.history = store
	return s
}

// WithWorkspaceFactory allows injecting a custom workspace (for testing).
func (s *DefaultService) WithWorkspaceFactory(f func(cfg *config.Config) *workspace.Manager) *DefaultService {
	s.workspaceFactory = f
	return s
}

// WithSurfaceFactory allows injecting a custom page surface (for testing).
func (s *DefaultService) WithSurfaceFactory(f func(cfg *config.Config) surface.Factory) *DefaultService {
	s.surfaceFactory = f
	return s
}

// WithMergerFactory allows injecting a custom merger (for testing).
func (s *DefaultService) WithMergerFactory(f func(dest string) pipeline.Merger) *DefaultService {
	s.mergerFactory = f
	return s
}

// Registry returns the producer registry.
func (s *DefaultService) Registry() *producer.Registry { return s.registry }

// Run implements Service.
func (s *DefaultService) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	result := &Result{RunID: uuid.NewString(), StartTime: start}
	ctx = observability.WithRunID(ctx, result.RunID)

	finish := func(err error) (*Result, error) {
		result.EndTime = time.Now()
		result.Duration = result.EndTime.Sub(start)
		result.Error = err
		result.Status = statusFor(err, len(result.Warnings))
		s.recorder.ObserveRunDuration(result.Duration)
		s.recorder.IncRunOutcome(string(result.Status))
		s.record(ctx, req, result)
		if err != nil {
			observability.ErrorContext(ctx, "Report run failed", logfields.Status(string(result.Status)), logfields.Error(err))
		} else {
			observability.InfoContext(ctx, "Report run finished",
				logfields.Status(string(result.Status)), logfields.Output(result.OutputPath),
				logfields.Pages(result.Pages), logfields.DurationMS(float64(result.Duration.Milliseconds())))
		}
		return result, err
	}

	if req.Config == nil {
		return finish(ferrors.ConfigError("config required").Build())
	}
	cfg := req.Config
	result.Sections = len(cfg.Sections)

	producers, err := s.registry.Build(cfg.Sections, producer.Env{Resolve: cfg.ResolvePath})
	if err != nil {
		return finish(err)
	}

	output := req.OutputPath
	if output == "" {
		output = cfg.ResolvePath(cfg.Output.Path)
	}
	timeout := cfg.ProducerTimeout()
	if req.ProducerTimeout != nil {
		timeout = *req.ProducerTimeout
	}

	observability.InfoContext(ctx, "Report run started",
		logfields.Count(len(producers)), logfields.Output(output), logfields.Trigger(req.Trigger))

	orch := pipeline.NewOrchestrator(
		s.workspaceFactory(cfg),
		s.surfaceFactory(cfg),
		s.mergerFactory(output),
		pipeline.WithProducerTimeout(timeout),
		pipeline.WithRecorder(s.recorder),
	)
	res, err := orch.Run(ctx, producers)
	if res != nil {
		result.Manifest = res.Manifest
		result.Warnings = res.Warnings
		result.Merged = res.Merged
		result.Pages = res.Pages
		result.OutputPath = res.OutputPath
	}
	return finish(err)
}

func (s *DefaultService) record(ctx context.Context, req Request, r *Result) {
	if s.history == nil {
		return
	}
	run := history.Run{
		ID:        r.RunID,
		StartedAt: r.StartTime,
		Duration:  r.Duration,
		Status:    string(r.Status),
		Output:    r.OutputPath,
		Sections:  r.Sections,
		Pages:     r.Pages,
		Warnings:  len(r.Warnings),
	}
	if r.Error != nil {
		run.Error = r.Error.Error()
	}
	if req.Config != nil {
		for _, sec := range req.Config.Sections {
			run.Producers = append(run.Producers, sec.Name)
		}
	}
	// The run's own context may already be canceled; the record still belongs in history.
	if err := s.history.Record(context.WithoutCancel(ctx), run); err != nil {
		observability.WarnContext(ctx, "Failed to record run history", logfields.Error(err))
	}
}

func statusFor(err error, warnings int) Status {
	switch {
	case err == nil && warnings > 0:
		return StatusWarning
	case err == nil:
		return StatusSuccess
	case errors.Is(err, context.Canceled):
		return StatusCanceled
	default:
		return StatusFailed
	}
}

func defaultWorkspace(cfg *config.Config) *workspace.Manager {
	var ws *workspace.Manager
	if cfg.Workspace.Dir != "" {
		ws = workspace.NewFixedManager(cfg.ResolvePath(cfg.Workspace.Dir))
	} else {
		base := cfg.Workspace.BaseDir
		if base != "" {
			base = cfg.ResolvePath(base)
		}
		ws = workspace.NewManager(base)
	}
	return ws.WithCleaner(cleanup.New(retry.FromConfig(cfg.Cleanup.Retry)))
}

func defaultSurface(cfg *config.Config) surface.Factory {
	return surface.NewPDFFactory(surface.Options{
		PageSize:    cfg.Page.Size,
		Orientation: config.NormalizeOrientation(cfg.Page.Orientation),
		FontFamily:  cfg.Page.Font,
		FontFile:    cfg.ResolvePath(cfg.Page.FontFile),
		FontSize:    cfg.Page.FontSize,
		Title:       cfg.Page.Title,
	})
}
