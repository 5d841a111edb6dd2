package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veriscan/internal/scan"
)

type stubService struct {
	event  scan.Event
	events []scan.Event
	err    error

	lastRecord scan.RecordInput
	lastFilter scan.Filter
}

func (s *stubService) Record(_ context.Context, in scan.RecordInput) (scan.Event, error) {
	s.lastRecord = in
	return s.event, s.err
}

func (s *stubService) List(_ context.Context, filter scan.Filter) ([]scan.Event, error) {
	s.lastFilter = filter
	return s.events, s.err
}

func newTestRouter(svc *stubService) http.Handler {
	r := chi.NewRouter()
	h := New(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	h.RegisterIngest(r)
	h.RegisterDashboard(r)
	return r
}

func TestHandleRecordScan(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		stub := &stubService{event: scan.Event{ProductID: "PRD-001", Result: scan.ResultAuthentic}}
		router := newTestRouter(stub)

		body := `{"productId":"PRD-001","scanResult":"AUTHENTIC","latitude":52.52,"longitude":13.405,` +
			`"blockchainData":{"manufacturer":"0xabc","status":"Available"},` +
			`"deviceInfo":{"userAgent":"test","platform":"linux"}}`
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/scans", strings.NewReader(body)))

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "PRD-001", stub.lastRecord.ProductID)
		assert.Equal(t, scan.ResultAuthentic, stub.lastRecord.Result)
		require.NotNil(t, stub.lastRecord.Latitude)
		assert.Equal(t, "0xabc", stub.lastRecord.Ledger.Manufacturer)
		require.NotNil(t, stub.lastRecord.Device)
		assert.Equal(t, "linux", stub.lastRecord.Device.Platform)

		var resp struct {
			Success bool   `json:"success"`
			Message string `json:"message"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, "Scan logged successfully", resp.Message)
	})

	t.Run("malformed body", func(t *testing.T) {
		router := newTestRouter(&stubService{})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/scans", strings.NewReader("{")))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleListScans(t *testing.T) {
	t.Run("parses filters", func(t *testing.T) {
		stub := &stubService{events: []scan.Event{{ProductID: "PRD-001"}}}
		router := newTestRouter(stub)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
			"/api/scans?productId=PRD-001&scanResult=NOT_FOUND&startDate=2026-04-01T00:00:00Z&limit=10", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "PRD-001", stub.lastFilter.ProductID)
		assert.Equal(t, []scan.Result{scan.ResultNotFound}, stub.lastFilter.Results)
		assert.Equal(t, 10, stub.lastFilter.Limit)
		assert.False(t, stub.lastFilter.From.IsZero())

		var resp struct {
			Success bool         `json:"success"`
			Count   int          `json:"count"`
			Data    []scan.Event `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 1, resp.Count)
	})

	t.Run("rejects unknown result", func(t *testing.T) {
		router := newTestRouter(&stubService{})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/scans?scanResult=MAYBE", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects bad date", func(t *testing.T) {
		router := newTestRouter(&stubService{})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/scans?startDate=yesterday", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
