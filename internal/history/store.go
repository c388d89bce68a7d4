// Package history keeps a record of report runs.
package history

import (
	"context"
	"time"
)

// Run is one completed pipeline run.
type Run struct {
	ID        string
	StartedAt time.Time
	Duration  time.Duration
	Status    string
	Output    string
	Sections  int
	Pages     int
	Warnings  int
	Error     string
	// Producers lists section names in generation order.
	Producers []string
}

// Store persists and retrieves runs.
type Store interface {
	Record(ctx context.Context, run Run) error
	// Recent returns up to limit runs, newest first.
	Recent(ctx context.Context, limit int) ([]Run, error)
	Get(ctx context.Context, id string) (Run, error)
	Close() error
}
