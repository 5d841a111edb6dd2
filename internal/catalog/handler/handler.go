// Package handler exposes the product catalog endpoints.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"veriscan/internal/catalog"
	dErrors "veriscan/pkg/domain-errors"
	"veriscan/pkg/platform/httputil"
	"veriscan/pkg/requestcontext"
)

// Service defines the catalog operations the handler needs.
type Service interface {
	Create(ctx context.Context, in catalog.CreateInput) (catalog.Product, error)
	ByManufacturer(ctx context.Context, address string, limit int) ([]catalog.Product, error)
}

// Handler handles catalog registration and listing endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New creates a catalog Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the catalog routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/products", h.handleCreate)
	r.Get("/api/products/manufacturer/{address}", h.handleByManufacturer)
}

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Count   *int   `json:"count,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var in catalog.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	product, err := h.service.Create(ctx, in)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeBadRequest) || dErrors.HasCode(err, dErrors.CodeConflict) {
			httputil.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "failed to register product",
			"request_id", requestcontext.RequestID(ctx),
			"uid", in.UID,
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to register product"))
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, envelope{
		Success: true,
		Message: "Product registered successfully",
		Data:    product,
	})
}

func (h *Handler) handleByManufacturer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	address := chi.URLParam(r, "address")

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be a positive integer"))
			return
		}
		limit = n
	}

	products, err := h.service.ByManufacturer(ctx, address, limit)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeBadRequest) {
			httputil.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "failed to list products",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to list products"))
		return
	}

	count := len(products)
	httputil.WriteJSON(w, http.StatusOK, envelope{Success: true, Count: &count, Data: products})
}
