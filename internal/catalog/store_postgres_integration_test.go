//go:build integration

package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veriscan/pkg/platform/sentinel"
	"veriscan/pkg/testutil/containers"
)

func TestPostgresStore(t *testing.T) {
	pc := containers.NewPostgresContainer(t)
	store := NewPostgres(pc.DB)
	ctx := context.Background()

	product := Product{
		ID:           uuid.New(),
		UID:          "PRD-001",
		Manufacturer: "0xa1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2",
		Details:      `{"name":"Aspirin"}`,
		CreatedAt:    time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
	}

	t.Run("create and find", func(t *testing.T) {
		require.NoError(t, store.Create(ctx, product))

		found, err := store.ByUID(ctx, product.UID)
		require.NoError(t, err)
		assert.Equal(t, product.ID, found.ID)
		assert.Equal(t, product.Manufacturer, found.Manufacturer)
		assert.True(t, product.CreatedAt.Equal(found.CreatedAt))
	})

	t.Run("duplicate uid conflicts", func(t *testing.T) {
		dup := product
		dup.ID = uuid.New()
		err := store.Create(ctx, dup)
		require.Error(t, err)
		assert.True(t, errors.Is(err, sentinel.ErrConflict))
	})

	t.Run("missing uid not found", func(t *testing.T) {
		_, err := store.ByUID(ctx, "PRD-MISSING")
		require.Error(t, err)
		assert.True(t, errors.Is(err, sentinel.ErrNotFound))
	})

	t.Run("list by manufacturer newest first", func(t *testing.T) {
		second := Product{
			ID:           uuid.New(),
			UID:          "PRD-002",
			Manufacturer: product.Manufacturer,
			Details:      "{}",
			CreatedAt:    product.CreatedAt.Add(time.Hour),
		}
		require.NoError(t, store.Create(ctx, second))

		products, err := store.ByManufacturer(ctx, product.Manufacturer, 10)
		require.NoError(t, err)
		require.Len(t, products, 2)
		assert.Equal(t, "PRD-002", products[0].UID)

		products, err = store.ByManufacturer(ctx, product.Manufacturer, 1)
		require.NoError(t, err)
		assert.Len(t, products, 1)
	})
}
