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

	"veriscan/internal/verify"
	dErrors "veriscan/pkg/domain-errors"
)

type stubEvaluator struct {
	result verify.Result
	err    error
	lastIn verify.Request
}

func (s *stubEvaluator) Evaluate(_ context.Context, req verify.Request) (verify.Result, error) {
	s.lastIn = req
	return s.result, s.err
}

func newTestRouter(e *stubEvaluator) http.Handler {
	r := chi.NewRouter()
	h := New(e, slog.New(slog.NewTextHandler(io.Discard, nil)))
	h.Register(r)
	return r
}

func TestHandleVerify(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		stub := &stubEvaluator{result: verify.Result{
			Verdict: verify.Verdict{
				ProductID:      "PRD-001",
				Exists:         true,
				Classification: verify.ClassificationAuthentic,
				OK:             true,
				Reasons:        []string{},
			},
			ScanEventID: "3f1d1b9e-0000-0000-0000-000000000000",
		}}
		router := newTestRouter(stub)

		body := `{"productId":"PRD-001","details":"{\"name\":\"x\"}","latitude":52.52,"longitude":13.405}`
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/verify", strings.NewReader(body)))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "PRD-001", stub.lastIn.ProductID)
		require.NotNil(t, stub.lastIn.Latitude)
		assert.InDelta(t, 52.52, *stub.lastIn.Latitude, 1e-9)

		var resp struct {
			Success     bool           `json:"success"`
			ScanEventID string         `json:"scanEventId"`
			Data        verify.Verdict `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, stub.result.ScanEventID, resp.ScanEventID)
		assert.True(t, resp.Data.OK)
		assert.Equal(t, verify.ClassificationAuthentic, resp.Data.Classification)
	})

	t.Run("malformed body", func(t *testing.T) {
		router := newTestRouter(&stubEvaluator{})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/verify", strings.NewReader("{not json")))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing product id", func(t *testing.T) {
		stub := &stubEvaluator{err: dErrors.New(dErrors.CodeBadRequest, "productId is required")}
		router := newTestRouter(stub)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/verify", strings.NewReader(`{}`)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("ledger unavailable", func(t *testing.T) {
		stub := &stubEvaluator{err: dErrors.New(dErrors.CodeUnavailable, "ledger unavailable")}
		router := newTestRouter(stub)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/verify", strings.NewReader(`{"productId":"PRD-001"}`)))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}
