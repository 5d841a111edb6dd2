package handler

import (
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

	"veriscan/internal/catalog"
)

func newTestRouter() http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := catalog.NewService(catalog.NewMemoryStore(), logger, 100, 1000)
	r := chi.NewRouter()
	New(svc, logger).Register(r)
	return r
}

func TestHandleCreate(t *testing.T) {
	const addr = "0xa1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2"

	t.Run("created", func(t *testing.T) {
		router := newTestRouter()
		body := `{"uid":"PRD-001","manufacturer":"` + addr + `","details":"{\"name\":\"x\"}"}`

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(body)))

		require.Equal(t, http.StatusCreated, rec.Code)
		var resp struct {
			Success bool            `json:"success"`
			Data    catalog.Product `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, "PRD-001", resp.Data.UID)
	})

	t.Run("duplicate uid conflicts", func(t *testing.T) {
		router := newTestRouter()
		body := `{"uid":"PRD-001","manufacturer":"` + addr + `","details":"x"}`

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(body)))
		require.Equal(t, http.StatusCreated, rec.Code)

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(body)))
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("invalid manufacturer rejected", func(t *testing.T) {
		router := newTestRouter()
		body := `{"uid":"PRD-001","manufacturer":"0x123","details":"x"}`

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleByManufacturer(t *testing.T) {
	const addr = "0xa1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2"
	router := newTestRouter()

	body := `{"uid":"PRD-001","manufacturer":"` + addr + `","details":"x"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code)

	t.Run("lists products", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products/manufacturer/"+addr, nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Success bool              `json:"success"`
			Count   int               `json:"count"`
			Data    []catalog.Product `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 1, resp.Count)
		require.Len(t, resp.Data, 1)
	})

	t.Run("rejects bad limit", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products/manufacturer/"+addr+"?limit=zero", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
