package scan

import (
	"context"

	"veriscan/pkg/geo"
)

// Store is the append-only scan event log. Events are never mutated or
// deleted; duplicate and near-simultaneous appends for the same product are
// expected (they are the fraud signal, not a conflict).
type Store interface {
	// Append persists one immutable event.
	Append(ctx context.Context, event Event) error

	// List returns events matching the filter, newest first, bounded by
	// Filter.Limit.
	List(ctx context.Context, filter Filter) ([]Event, error)

	// ListByResult returns all events whose result is one of the given
	// values, for detector aggregation. Order is unspecified.
	ListByResult(ctx context.Context, results ...Result) ([]Event, error)

	// Near returns up to limit located events within radiusMeters of
	// center, nearest first.
	Near(ctx context.Context, center geo.Point, radiusMeters float64, limit int) ([]Event, error)

	// CountByResult returns event totals grouped by result.
	CountByResult(ctx context.Context) (map[Result]int64, error)
}
