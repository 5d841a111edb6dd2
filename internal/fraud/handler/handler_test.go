package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veriscan/internal/fraud"
	"veriscan/internal/scan"
	"veriscan/pkg/geo"
)

type stubDetector struct {
	report     fraud.AnalyticsReport
	suspicious []fraud.SuspiciousProductReport
	nearby     []scan.Event

	soldMin, notFoundMin int
	center               geo.Point
	radius               float64
	limit                int
}

func (s *stubDetector) Analytics(context.Context) (fraud.AnalyticsReport, error) {
	return s.report, nil
}

func (s *stubDetector) SuspiciousProducts(_ context.Context, soldMin, notFoundMin int) ([]fraud.SuspiciousProductReport, error) {
	s.soldMin, s.notFoundMin = soldMin, notFoundMin
	return s.suspicious, nil
}

func (s *stubDetector) Nearby(_ context.Context, center geo.Point, radiusMeters float64, limit int) ([]scan.Event, error) {
	s.center, s.radius, s.limit = center, radiusMeters, limit
	return s.nearby, nil
}

func newTestRouter(d Detector) http.Handler {
	r := chi.NewRouter()
	h := New(d, slog.New(slog.NewTextHandler(io.Discard, nil)))
	h.Register(r)
	return r
}

func TestHandleAnalytics(t *testing.T) {
	stub := &stubDetector{report: fraud.AnalyticsReport{
		Statistics: fraud.Statistics{Total: 7, Authentic: 4, NotFound: 2, AlreadySold: 1},
	}}
	router := newTestRouter(stub)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/scans/analytics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Success bool                  `json:"success"`
		Data    fraud.AnalyticsReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, int64(7), resp.Data.Statistics.Total)
}

func TestHandleSuspicious(t *testing.T) {
	t.Run("passes threshold overrides", func(t *testing.T) {
		stub := &stubDetector{suspicious: []fraud.SuspiciousProductReport{{ProductID: "PRD-1"}}}
		router := newTestRouter(stub)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
			"/api/scans/suspicious?minAlreadySold=2&minNotFound=4", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 2, stub.soldMin)
		assert.Equal(t, 4, stub.notFoundMin)
	})

	t.Run("rejects non-numeric override", func(t *testing.T) {
		router := newTestRouter(&stubDetector{})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
			"/api/scans/suspicious?minAlreadySold=lots", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleNearby(t *testing.T) {
	t.Run("forwards coordinates and radius", func(t *testing.T) {
		stub := &stubDetector{}
		router := newTestRouter(stub)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
			"/api/scans/nearby?latitude=52.52&longitude=13.405&radius=2000", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.InDelta(t, 52.52, stub.center.Lat, 1e-9)
		assert.InDelta(t, 13.405, stub.center.Lon, 1e-9)
		assert.InDelta(t, 2000, stub.radius, 1e-9)
	})

	t.Run("requires coordinates", func(t *testing.T) {
		router := newTestRouter(&stubDetector{})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
			"/api/scans/nearby?radius=2000", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
