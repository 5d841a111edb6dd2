// Package handler exposes the product verification endpoint.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"veriscan/internal/scan"
	"veriscan/internal/verify"
	dErrors "veriscan/pkg/domain-errors"
	"veriscan/pkg/platform/httputil"
	"veriscan/pkg/requestcontext"
)

// Evaluator is the verification entry point the handler depends on.
type Evaluator interface {
	Evaluate(ctx context.Context, req verify.Request) (verify.Result, error)
}

// Handler serves POST /api/verify.
type Handler struct {
	evaluator Evaluator
	logger    *slog.Logger
}

// New creates a verify Handler.
func New(evaluator Evaluator, logger *slog.Logger) *Handler {
	return &Handler{evaluator: evaluator, logger: logger}
}

// Register mounts the verification route.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/verify", h.handleVerify)
}

type verifyRequest struct {
	ProductID string               `json:"productId"`
	Details   string               `json:"details,omitempty"`
	Latitude  *float64             `json:"latitude,omitempty"`
	Longitude *float64             `json:"longitude,omitempty"`
	Address   string               `json:"address,omitempty"`
	Device    *scan.DeviceSnapshot `json:"deviceInfo,omitempty"`
}

type verifyResponse struct {
	Success     bool           `json:"success"`
	ScanEventID string         `json:"scanEventId,omitempty"`
	Data        verify.Verdict `json:"data"`
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid verify payload",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	result, err := h.evaluator.Evaluate(ctx, verify.Request{
		ProductID: req.ProductID,
		Details:   req.Details,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Address:   req.Address,
		Device:    req.Device,
	})
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeBadRequest) {
			httputil.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "verification failed",
			"request_id", requestID,
			"product_id", req.ProductID,
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnavailable, "trust registry unavailable"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, verifyResponse{
		Success:     true,
		ScanEventID: result.ScanEventID,
		Data:        result.Verdict,
	})
}
