package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	ferrors "git.home.luguber.info/inful/reportbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/reportbuilder/internal/logfields"
	"git.home.luguber.info/inful/reportbuilder/internal/metrics"
	"git.home.luguber.info/inful/reportbuilder/internal/observability"
	"git.home.luguber.info/inful/reportbuilder/internal/producer"
	"git.home.luguber.info/inful/reportbuilder/internal/surface"
)

// Workspace is the subset of workspace.Manager the pipeline needs.
type Workspace interface {
	Ensure() error
	Root() string
	AllocatePath(seq int) (string, error)
	AuxPath(seq int, pattern string) (string, error)
	Teardown(ctx context.Context) []*ferrors.ClassifiedError
}

// Sequencer allocates pages in strictly increasing order and binds each to a
// fresh canvas. It is owned by a single run.
type Sequencer struct {
	mu       sync.Mutex
	ws       Workspace
	factory  surface.Factory
	timeout  time.Duration
	recorder metrics.Recorder

	last     int
	failed   error
	manifest Manifest
}

// NewSequencer returns a sequencer writing into ws. timeout bounds each producer; 0 disables it.
func NewSequencer(ws Workspace, factory surface.Factory, timeout time.Duration, recorder metrics.Recorder) *Sequencer {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Sequencer{ws: ws, factory: factory, timeout: timeout, recorder: recorder}
}

// Manifest returns the pages persisted so far.
func (s *Sequencer) Manifest() *Manifest {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := Manifest{pages: s.manifest.Pages()}
	return &m
}

// Next runs p against the next page and returns it once its artifact is durably
// written. After a failure the sequencer refuses further pages.
func (s *Sequencer) Next(ctx context.Context, p producer.Producer) (Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failed != nil {
		return Page{}, ferrors.InternalError("sequencer already aborted").WithCause(s.failed).Build()
	}
	page, err := s.next(ctx, p)
	if err != nil {
		s.failed = err
		return Page{}, err
	}
	if err := s.manifest.Append(page); err != nil {
		s.failed = err
		return Page{}, ferrors.WrapError(err, ferrors.CategoryInternal, "manifest rejected page").Fatal().Build()
	}
	s.last = page.Seq
	return page, nil
}

func (s *Sequencer) next(ctx context.Context, p producer.Producer) (Page, error) {
	seq := s.last + 1
	page := Page{Seq: seq, Producer: p.Name(), State: PageAllocated}
	ctx = observability.WithProducer(ctx, p.Name(), seq)

	if err := ctx.Err(); err != nil {
		return page, ferrors.ProducerError("run canceled before producer started").
			WithCause(err).WithContext("section", p.Name()).WithContext("page_seq", seq).Build()
	}

	path, err := s.ws.AllocatePath(seq)
	if err != nil {
		return page, err
	}
	page.Path = path

	canvas, err := s.factory.New(path, func(pattern string) (string, error) {
		return s.ws.AuxPath(seq, pattern)
	})
	if err != nil {
		return page, ferrors.PageSaveError("failed to open page surface").
			WithCause(err).WithContext("section", p.Name()).WithContext("page_seq", seq).WithContext("path", path).Build()
	}

	page.State = PageDrawing
	start := time.Now()
	err = s.produce(ctx, p, canvas, seq)
	page.Duration = time.Since(start)
	if err != nil {
		canvas.Abandon()
		result := metrics.ResultFatal
		if errors.Is(err, context.Canceled) {
			result = metrics.ResultCanceled
		}
		s.recorder.ObserveProducerDuration(p.Name(), page.Duration, result)
		observability.ErrorContext(ctx, "Producer failed", logfields.Path(path), logfields.Error(err))
		return page, err
	}

	if err := canvas.Finalize(); err != nil {
		s.recorder.ObserveProducerDuration(p.Name(), page.Duration, metrics.ResultFatal)
		return page, ferrors.PageSaveError("failed to persist page").
			WithCause(err).WithContext("section", p.Name()).WithContext("page_seq", seq).WithContext("path", path).Build()
	}
	page.State = PagePersisted
	page.Pages = max(canvas.PageCount(), 1)
	s.recorder.ObserveProducerDuration(p.Name(), page.Duration, metrics.ResultSuccess)
	observability.DebugContext(ctx, "Page persisted",
		logfields.Path(path), logfields.Pages(page.Pages), logfields.DurationMS(float64(page.Duration.Microseconds())/1000))
	return page, nil
}

// produce runs the producer under the per-page deadline and converts panics,
// timeouts and surface errors into producer errors.
func (s *Sequencer) produce(ctx context.Context, p producer.Producer, canvas surface.Canvas, seq int) error {
	runCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("producer panic: %v\n%s", r, debug.Stack())
			}
		}()
		done <- p.Produce(runCtx, canvas)
	}()

	var err error
	select {
	case err = <-done:
	case <-runCtx.Done():
		err = runCtx.Err()
	}
	if err == nil {
		err = canvas.Err()
	}
	if err == nil {
		return nil
	}

	msg := "producer failed"
	switch {
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		msg = "producer timed out"
	case errors.Is(err, context.Canceled):
		msg = "producer canceled"
	}
	b := ferrors.ProducerError(msg).
		WithCause(err).
		WithContext("section", p.Name()).
		WithContext("page_seq", seq)
	if s.timeout > 0 {
		b = b.WithContext("timeout", s.timeout.String())
	}
	return b.Build()
}
