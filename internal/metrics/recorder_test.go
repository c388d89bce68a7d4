package metrics

import (
	"sync"
	"time"
)

// testRecorder counts calls; other packages' tests use their own fakes.
type testRecorder struct {
	mu             sync.Mutex
	stageDurations map[string]int
	stageResults   map[string]map[ResultLabel]int
	producers      map[string]ResultLabel
	runDurations   int
	runOutcomes    map[string]int
	pages          int
	warnings       int
}

func newTestRecorder() *testRecorder {
	return &testRecorder{
		stageDurations: map[string]int{},
		stageResults:   map[string]map[ResultLabel]int{},
		producers:      map[string]ResultLabel{},
		runOutcomes:    map[string]int{},
	}
}

func (t *testRecorder) ObserveStageDuration(stage string, _ time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stageDurations[stage]++
}

func (t *testRecorder) IncStageResult(stage string, result ResultLabel) {
	t.mu.Lock()
	defer t.mu.Unlock()
	m, ok := t.stageResults[stage]
	if !ok {
		m = map[ResultLabel]int{}
		t.stageResults[stage] = m
	}
	m[result]++
}

func (t *testRecorder) ObserveProducerDuration(producer string, _ time.Duration, result ResultLabel) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.producers[producer] = result
}
func (t *testRecorder) ObserveRunDuration(time.Duration) { t.runDurations++ }
func (t *testRecorder) IncRunOutcome(outcome string)     { t.runOutcomes[outcome]++ }
func (t *testRecorder) AddPages(n int)                   { t.pages += n }
func (t *testRecorder) AddCleanupWarnings(n int)         { t.warnings += n }

var (
	_ Recorder = (*testRecorder)(nil)
	_ Recorder = NoopRecorder{}
	_ Recorder = (*PrometheusRecorder)(nil)
)
