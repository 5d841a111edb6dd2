package scan

import (
	"context"
	"sort"
	"sync"

	"veriscan/pkg/geo"
)

// MemoryStore is an in-memory Store for development and tests. The Redis
// store is the indexed production path.
type MemoryStore struct {
	mu       sync.RWMutex
	events   []Event
	byResult map[Result][]int // indexes into events
}

// NewMemoryStore creates an empty in-memory scan store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byResult: make(map[Result][]int),
	}
}

// Append persists one event. Events are copied in; callers cannot mutate
// stored state afterwards.
func (s *MemoryStore) Append(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byResult[event.Result] = append(s.byResult[event.Result], len(s.events))
	s.events = append(s.events, event)
	return nil
}

// List returns matching events, newest first.
func (s *MemoryStore) List(ctx context.Context, filter Filter) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]Event, 0)
	for _, e := range s.events {
		if filter.Matches(e) {
			matched = append(matched, e)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].OccurredAt.After(matched[j].OccurredAt)
	})
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

// ListByResult returns all events with any of the given results.
func (s *MemoryStore) ListByResult(ctx context.Context, results ...Result) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Event
	for _, r := range results {
		for _, idx := range s.byResult[r] {
			out = append(out, s.events[idx])
		}
	}
	return out, nil
}

// Near scans located events and returns the closest ones within the radius.
func (s *MemoryStore) Near(ctx context.Context, center geo.Point, radiusMeters float64, limit int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type hit struct {
		event    Event
		distance float64
	}
	var hits []hit
	for _, e := range s.events {
		if e.Location == nil {
			continue
		}
		d := geo.DistanceMeters(center, *e.Location)
		if d <= radiusMeters {
			hits = append(hits, hit{event: e, distance: d})
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].distance < hits[j].distance })

	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	out := make([]Event, len(hits))
	for i, h := range hits {
		out[i] = h.event
	}
	return out, nil
}

// CountByResult returns event totals grouped by result.
func (s *MemoryStore) CountByResult(ctx context.Context) (map[Result]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[Result]int64, len(s.byResult))
	for r, idxs := range s.byResult {
		counts[r] = int64(len(idxs))
	}
	return counts, nil
}

var _ Store = (*MemoryStore)(nil)
