package pipeline

import "time"

// PageState tracks a page through allocation, drawing and persistence.
type PageState int

const (
	PageAllocated PageState = iota
	PageDrawing
	PagePersisted
)

func (s PageState) String() string {
	switch s {
	case PageAllocated:
		return "allocated"
	case PageDrawing:
		return "drawing"
	case PagePersisted:
		return "persisted"
	default:
		return "unknown"
	}
}

// Page is one producer's finalized artifact.
type Page struct {
	Seq      int
	Path     string
	Producer string
	State    PageState
	// Pages is the number of document pages the producer drew (at least 1).
	Pages    int
	Duration time.Duration
}
