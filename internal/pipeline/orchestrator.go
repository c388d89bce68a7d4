package pipeline

import (
	"context"
	"sync"
	"time"

	ferrors "git.home.luguber.info/inful/reportbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/reportbuilder/internal/logfields"
	"git.home.luguber.info/inful/reportbuilder/internal/metrics"
	"git.home.luguber.info/inful/reportbuilder/internal/observability"
	"git.home.luguber.info/inful/reportbuilder/internal/producer"
	"git.home.luguber.info/inful/reportbuilder/internal/surface"
)

// Merger concatenates persisted artifacts, in the given order, into the final document.
type Merger interface {
	Merge(ctx context.Context, paths []string) (string, error)
}

// Result describes one run. It is returned even when the run fails.
type Result struct {
	OutputPath string
	Merged     bool
	Manifest   []Page
	Pages      int
	Warnings   []*ferrors.ClassifiedError
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithProducerTimeout bounds each producer call; 0 disables the bound.
func WithProducerTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.timeout = d }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.recorder = r
		}
	}
}

// Orchestrator drives one workspace through produce, merge and teardown.
type Orchestrator struct {
	ws       Workspace
	factory  surface.Factory
	merger   Merger
	timeout  time.Duration
	recorder metrics.Recorder

	running sync.Mutex
}

// NewOrchestrator wires the pipeline collaborators.
func NewOrchestrator(ws Workspace, factory surface.Factory, merger Merger, opts ...Option) *Orchestrator {
	o := &Orchestrator{ws: ws, factory: factory, merger: merger, recorder: metrics.NoopRecorder{}}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run invokes producers in order, merges their pages and removes the workspace.
// The first fatal error is returned unchanged; cleanup problems only appear in
// Result.Warnings. With no producers nothing is merged and the output is untouched.
func (o *Orchestrator) Run(ctx context.Context, producers []producer.Producer) (*Result, error) {
	if !o.running.TryLock() {
		return nil, ferrors.InternalError("orchestrator run already in progress").Build()
	}
	defer o.running.Unlock()

	res := &Result{}
	defer func() {
		start := time.Now()
		res.Warnings = append(res.Warnings, o.ws.Teardown(ctx)...)
		o.recorder.ObserveStageDuration(metrics.StageCleanup, time.Since(start))
		if n := len(res.Warnings); n > 0 {
			o.recorder.AddCleanupWarnings(n)
			o.recorder.IncStageResult(metrics.StageCleanup, metrics.ResultWarning)
			observability.WarnContext(ctx, "Workspace cleanup incomplete", logfields.Count(n))
		} else {
			o.recorder.IncStageResult(metrics.StageCleanup, metrics.ResultSuccess)
		}
	}()

	if err := o.ws.Ensure(); err != nil {
		return res, err
	}

	produceCtx := observability.WithStage(ctx, metrics.StageProduce)
	seq := NewSequencer(o.ws, o.factory, o.timeout, o.recorder)
	start := time.Now()
	for _, p := range producers {
		page, err := seq.Next(produceCtx, p)
		if err != nil {
			res.Manifest = seq.Manifest().Pages()
			o.recorder.ObserveStageDuration(metrics.StageProduce, time.Since(start))
			o.recorder.IncStageResult(metrics.StageProduce, metrics.ResultFatal)
			observability.ErrorContext(produceCtx, "Run aborted",
				logfields.Producer(p.Name()), logfields.Count(len(producers)-len(res.Manifest)-1), logfields.Error(err))
			return res, err
		}
		observability.InfoContext(produceCtx, "Page generated",
			logfields.PageSeq(page.Seq), logfields.Producer(page.Producer), logfields.Pages(page.Pages))
	}
	o.recorder.ObserveStageDuration(metrics.StageProduce, time.Since(start))
	o.recorder.IncStageResult(metrics.StageProduce, metrics.ResultSuccess)

	manifest := seq.Manifest()
	res.Manifest = manifest.Pages()
	if manifest.Len() == 0 {
		observability.WarnContext(ctx, "No sections configured; merge skipped")
		return res, nil
	}

	mergeCtx := observability.WithStage(ctx, metrics.StageMerge)
	start = time.Now()
	out, err := o.merger.Merge(mergeCtx, manifest.Paths())
	o.recorder.ObserveStageDuration(metrics.StageMerge, time.Since(start))
	if err != nil {
		o.recorder.IncStageResult(metrics.StageMerge, metrics.ResultFatal)
		if _, ok := ferrors.AsClassified(err); !ok {
			err = ferrors.WrapError(err, ferrors.CategoryMerge, "merge failed").Fatal().Build()
		}
		return res, err
	}
	o.recorder.IncStageResult(metrics.StageMerge, metrics.ResultSuccess)

	res.OutputPath = out
	res.Merged = true
	res.Pages = manifest.PageTotal()
	o.recorder.AddPages(res.Pages)
	observability.InfoContext(mergeCtx, "Report merged", logfields.Output(out), logfields.Pages(res.Pages), logfields.Count(manifest.Len()))
	return res, nil
}
