package catalog

import (
	"context"
	"sort"
	"sync"

	"veriscan/pkg/platform/sentinel"
)

// MemoryStore is an in-memory Store for development and tests.
type MemoryStore struct {
	mu    sync.RWMutex
	byUID map[string]Product
}

// NewMemoryStore creates an empty in-memory catalog store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byUID: make(map[string]Product)}
}

func (s *MemoryStore) Create(ctx context.Context, product Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byUID[product.UID]; exists {
		return sentinel.ErrConflict
	}
	s.byUID[product.UID] = product
	return nil
}

func (s *MemoryStore) ByUID(ctx context.Context, uid string) (Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	product, ok := s.byUID[uid]
	if !ok {
		return Product{}, sentinel.ErrNotFound
	}
	return product, nil
}

func (s *MemoryStore) ByManufacturer(ctx context.Context, address string, limit int) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Product, 0)
	for _, p := range s.byUID {
		if p.Manufacturer == address {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var _ Store = (*MemoryStore)(nil)
