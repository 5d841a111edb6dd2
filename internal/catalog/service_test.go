package catalog

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "veriscan/pkg/domain-errors"
	"veriscan/pkg/requestcontext"
)

const manufacturerAddr = "0xA1b2C3d4E5f6A1b2C3d4E5f6A1b2C3d4E5f6A1b2"

func newTestService() *Service {
	return NewService(NewMemoryStore(), slog.New(slog.NewTextHandler(io.Discard, nil)), 100, 1000)
}

func TestCreate(t *testing.T) {
	t.Run("success normalizes input", func(t *testing.T) {
		svc := newTestService()
		now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
		ctx := requestcontext.WithTime(context.Background(), now)

		product, err := svc.Create(ctx, CreateInput{
			UID:          "  PRD-001  ",
			Manufacturer: "  " + manufacturerAddr + "  ",
			Details:      ` {"name":"Aspirin"} `,
		})
		require.NoError(t, err)
		assert.Equal(t, "PRD-001", product.UID)
		assert.Equal(t, "0xa1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2", product.Manufacturer)
		assert.Equal(t, `{"name":"Aspirin"}`, product.Details)
		assert.Equal(t, now, product.CreatedAt)
		assert.NotEqual(t, product.ID.String(), "00000000-0000-0000-0000-000000000000")
	})

	t.Run("duplicate uid conflicts", func(t *testing.T) {
		svc := newTestService()
		in := CreateInput{UID: "PRD-001", Manufacturer: manufacturerAddr, Details: "x"}

		_, err := svc.Create(context.Background(), in)
		require.NoError(t, err)

		_, err = svc.Create(context.Background(), in)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	t.Run("validation", func(t *testing.T) {
		svc := newTestService()
		cases := []struct {
			name string
			in   CreateInput
		}{
			{"missing uid", CreateInput{Manufacturer: manufacturerAddr, Details: "x"}},
			{"missing details", CreateInput{UID: "PRD-001", Manufacturer: manufacturerAddr}},
			{"bad address", CreateInput{UID: "PRD-001", Manufacturer: "0x123", Details: "x"}},
			{"address without prefix", CreateInput{UID: "PRD-001", Manufacturer: "a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2", Details: "x"}},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := svc.Create(context.Background(), tc.in)
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
			})
		}
	})
}

func TestByManufacturer(t *testing.T) {
	t.Run("newest first with limit", func(t *testing.T) {
		svc := newTestService()
		base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
		for i := 0; i < 3; i++ {
			ctx := requestcontext.WithTime(context.Background(), base.Add(time.Duration(i)*time.Hour))
			_, err := svc.Create(ctx, CreateInput{
				UID:          "PRD-00" + string(rune('1'+i)),
				Manufacturer: manufacturerAddr,
				Details:      "x",
			})
			require.NoError(t, err)
		}

		products, err := svc.ByManufacturer(context.Background(), manufacturerAddr, 2)
		require.NoError(t, err)
		require.Len(t, products, 2)
		assert.Equal(t, "PRD-003", products[0].UID)
		assert.Equal(t, "PRD-002", products[1].UID)
	})

	t.Run("case insensitive lookup", func(t *testing.T) {
		svc := newTestService()
		_, err := svc.Create(context.Background(), CreateInput{
			UID: "PRD-001", Manufacturer: manufacturerAddr, Details: "x",
		})
		require.NoError(t, err)

		upper := "0xA1B2C3D4E5F6A1B2C3D4E5F6A1B2C3D4E5F6A1B2"
		products, err := svc.ByManufacturer(context.Background(), upper, 0)
		require.NoError(t, err)
		assert.Len(t, products, 1)
	})

	t.Run("rejects malformed address", func(t *testing.T) {
		svc := newTestService()
		_, err := svc.ByManufacturer(context.Background(), "not-an-address", 0)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}
