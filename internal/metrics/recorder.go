package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultWarning  ResultLabel = "warning"
	ResultFatal    ResultLabel = "fatal"
	ResultCanceled ResultLabel = "canceled"
)

// Stage names used as label values.
const (
	StageProduce = "produce"
	StageMerge   = "merge"
	StageCleanup = "cleanup"
)

// Recorder defines observability hooks for report runs. Implementations may forward
// to Prometheus; NoopRecorder is the default when metrics are not configured.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	ObserveProducerDuration(producer string, d time.Duration, result ResultLabel)
	ObserveRunDuration(d time.Duration)
	IncRunOutcome(outcome string) // outcome: success|warning|failed|canceled
	AddPages(n int)
	AddCleanupWarnings(n int)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration)                 {}
func (NoopRecorder) IncStageResult(string, ResultLabel)                         {}
func (NoopRecorder) ObserveProducerDuration(string, time.Duration, ResultLabel) {}
func (NoopRecorder) ObserveRunDuration(time.Duration)                           {}
func (NoopRecorder) IncRunOutcome(string)                                       {}
func (NoopRecorder) AddPages(int)                                               {}
func (NoopRecorder) AddCleanupWarnings(int)                                     {}
