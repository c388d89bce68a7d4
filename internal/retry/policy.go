package retry

import (
	"context"
	"fmt"
	"time"

	"git.home.luguber.info/inful/reportbuilder/internal/config"
)

// Policy encapsulates retry/backoff settings for transient failures.
// It is immutable after construction.
type Policy struct {
	Mode       config.RetryBackoffMode // fixed|linear|exponential
	Initial    time.Duration           // base delay
	Max        time.Duration           // cap for growth
	MaxRetries int                     // maximum retry attempts after the first failure
}

// DefaultPolicy returns the cleanup default (linear, 50ms initial, 500ms cap, 2 retries).
func DefaultPolicy() Policy {
	return Policy{Mode: config.RetryBackoffLinear, Initial: 50 * time.Millisecond, Max: 500 * time.Millisecond, MaxRetries: 2}
}

// NoRetry performs exactly one attempt.
func NoRetry() Policy {
	p := DefaultPolicy()
	p.MaxRetries = 0
	return p
}

// NewPolicy builds a policy from raw config fields; zero/invalid values fall back to defaults.
func NewPolicy(mode config.RetryBackoffMode, initial, maxDuration time.Duration, maxRetries int) Policy {
	p := DefaultPolicy()
	if maxRetries >= 0 {
		p.MaxRetries = maxRetries
	}
	if initial > 0 {
		p.Initial = initial
	}
	if maxDuration > 0 {
		p.Max = maxDuration
	}
	switch mode {
	case config.RetryBackoffFixed, config.RetryBackoffLinear, config.RetryBackoffExponential:
		p.Mode = mode
	}
	if p.Initial > p.Max {
		p.Initial = p.Max
	}
	return p
}

// FromConfig builds a policy from the cleanup retry section.
func FromConfig(rc config.RetryConfig) Policy {
	retries := -1
	if rc.MaxRetries != nil {
		retries = *rc.MaxRetries
	}
	return NewPolicy(config.NormalizeRetryBackoff(rc.Backoff), rc.Initial, rc.Max, retries)
}

// Delay returns the backoff delay for the given retry attempt number (1-based: first retry => 1).
func (p Policy) Delay(retryCount int) time.Duration {
	if retryCount <= 0 {
		return 0
	}
	switch p.Mode {
	case config.RetryBackoffFixed:
		return p.Initial
	case config.RetryBackoffExponential:
		d := p.Initial * (1 << (retryCount - 1))
		if d > p.Max || d <= 0 {
			return p.Max
		}
		return d
	default: // linear
		d := time.Duration(retryCount) * p.Initial
		if d > p.Max {
			return p.Max
		}
		return d
	}
}

// Validate ensures invariants; returns error if policy impossible to apply.
func (p Policy) Validate() error {
	if p.Initial <= 0 {
		return fmt.Errorf("initial must be >0")
	}
	if p.Max <= 0 {
		return fmt.Errorf("max must be >0")
	}
	if p.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	return nil
}

// Do runs fn until it succeeds, retryable reports false, or retries are exhausted.
// Once ctx is done, remaining attempts run back to back without waiting, so a
// canceled caller still gets every attempt but no further delay. It returns the
// last error and the number of attempts made.
func (p Policy) Do(ctx context.Context, fn func() error, retryable func(error) bool) (int, error) {
	attempts := 0
	var err error
	for {
		attempts++
		if err = fn(); err == nil {
			return attempts, nil
		}
		if retryable != nil && !retryable(err) {
			return attempts, err
		}
		if attempts > p.MaxRetries {
			return attempts, err
		}
		if ctx.Err() != nil {
			continue
		}
		t := time.NewTimer(p.Delay(attempts))
		select {
		case <-ctx.Done():
			t.Stop()
		case <-t.C:
		}
	}
}
