package scan

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
	"veriscan/pkg/testutil"
)

func newTestService(store Store) *Service {
	return NewService(store, nil, slog.New(slog.NewTextHandler(io.Discard, nil)), 1000)
}

func floatPtr(v float64) *float64 { return &v }

func TestRecord(t *testing.T) {
	testutil.Given(t, "a valid located scan", func(t *testing.T) {
		store := NewMemoryStore()
		svc := newTestService(store)
		now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
		ctx := requestcontext.WithTime(context.Background(), now)

		event, err := svc.Record(ctx, RecordInput{
			ProductID: "PRD-001",
			Result:    ResultAuthentic,
			Latitude:  floatPtr(52.52),
			Longitude: floatPtr(13.405),
		})
		require.NoError(t, err)

		testutil.Then(t, "the event carries server-assigned identity and time", func(t *testing.T) {
			assert.NotEmpty(t, event.ID)
			assert.Equal(t, now, event.OccurredAt)
			require.NotNil(t, event.Location)
			assert.InDelta(t, 52.52, event.Location.Lat, 1e-9)
		})

		testutil.Then(t, "the event is persisted", func(t *testing.T) {
			events, err := store.List(context.Background(), Filter{})
			require.NoError(t, err)
			assert.Len(t, events, 1)
		})
	})

	t.Run("unlocated scan is accepted", func(t *testing.T) {
		svc := newTestService(NewMemoryStore())
		event, err := svc.Record(context.Background(), RecordInput{
			ProductID: "PRD-001",
			Result:    ResultNotFound,
		})
		require.NoError(t, err)
		assert.Nil(t, event.Location)
	})

	t.Run("validation", func(t *testing.T) {
		svc := newTestService(NewMemoryStore())
		cases := []struct {
			name string
			in   RecordInput
		}{
			{"missing product id", RecordInput{Result: ResultAuthentic}},
			{"unknown result", RecordInput{ProductID: "PRD-001", Result: "MAYBE"}},
			{"latitude without longitude", RecordInput{ProductID: "PRD-001", Result: ResultAuthentic, Latitude: floatPtr(52.52)}},
			{"longitude without latitude", RecordInput{ProductID: "PRD-001", Result: ResultAuthentic, Longitude: floatPtr(13.405)}},
			{"latitude out of range", RecordInput{ProductID: "PRD-001", Result: ResultAuthentic, Latitude: floatPtr(91), Longitude: floatPtr(0)}},
			{"longitude out of range", RecordInput{ProductID: "PRD-001", Result: ResultAuthentic, Latitude: floatPtr(0), Longitude: floatPtr(181)}},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := svc.Record(context.Background(), tc.in)
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
			})
		}
	})

	t.Run("canceled context appends nothing", func(t *testing.T) {
		store := NewMemoryStore()
		svc := newTestService(store)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := svc.Record(ctx, RecordInput{ProductID: "PRD-001", Result: ResultAuthentic})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))

		events, err := store.List(context.Background(), Filter{})
		require.NoError(t, err)
		assert.Empty(t, events)
	})
}

func TestList(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store, nil, slog.New(slog.NewTextHandler(io.Discard, nil)), 2)
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		ctx := requestcontext.WithTime(context.Background(), base.Add(time.Duration(i)*time.Minute))
		_, err := svc.Record(ctx, RecordInput{ProductID: "PRD-001", Result: ResultAuthentic})
		require.NoError(t, err)
	}

	t.Run("caps limit server-side", func(t *testing.T) {
		events, err := svc.List(context.Background(), Filter{Limit: 100})
		require.NoError(t, err)
		assert.Len(t, events, 2)
	})

	t.Run("newest first", func(t *testing.T) {
		events, err := svc.List(context.Background(), Filter{})
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.True(t, events[0].OccurredAt.After(events[1].OccurredAt))
	})
}
