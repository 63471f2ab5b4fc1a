package domain

import (
	"context"
	"time"

	"arguxai/internal/core/event"
	"arguxai/internal/core/window"
)

// IngestPort accepts event batches
type IngestPort interface {
	IngestBatch(ctx context.Context, events []event.Event) (IngestResult, error)
}

// ReaderPort is the event store as detection and diagnosis see it
type ReaderPort interface {
	// EventsInWindow returns events on any of steps with Start <= ts < End, ordered by ts
	EventsInWindow(ctx context.Context, w window.Window, steps ...string) ([]event.Event, error)
	// Recent returns the newest events, optionally for one step
	Recent(ctx context.Context, step string, limit int) ([]event.Event, error)
}

// StorageRepo is the postgres event table
type StorageRepo interface {
	Insert(ctx context.Context, xs []event.Event) error
	InWindow(ctx context.Context, steps []string, start, end time.Time) ([]event.Event, error)
	Recent(ctx context.Context, step string, limit int) ([]event.Event, error)
}

// MirrorRepo is the optional columnar copy used for window reads
type MirrorRepo interface {
	Insert(ctx context.Context, xs []event.Event) error
	InWindow(ctx context.Context, steps []string, start, end time.Time) ([]event.Event, error)
}
