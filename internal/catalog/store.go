package catalog

import (
	"context"
)

// Store persists catalog entries. Create returns sentinel.ErrConflict when
// the uid is already registered.
type Store interface {
	Create(ctx context.Context, product Product) error
	ByUID(ctx context.Context, uid string) (Product, error)
	ByManufacturer(ctx context.Context, address string, limit int) ([]Product, error)
}
