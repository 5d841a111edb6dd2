// Package handler exposes the scan ingestion and listing endpoints.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"veriscan/internal/scan"
	dErrors "veriscan/pkg/domain-errors"
	"veriscan/pkg/platform/httputil"
	"veriscan/pkg/requestcontext"
)

// Service defines the scan operations the handler needs.
type Service interface {
	Record(ctx context.Context, in scan.RecordInput) (scan.Event, error)
	List(ctx context.Context, filter scan.Filter) ([]scan.Event, error)
}

// Handler handles scan ingestion and dashboard listing endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New creates a scan Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterIngest mounts the public ingestion route.
func (h *Handler) RegisterIngest(r chi.Router) {
	r.Post("/api/scans", h.handleRecordScan)
}

// RegisterDashboard mounts the authenticated listing route.
func (h *Handler) RegisterDashboard(r chi.Router) {
	r.Get("/api/scans", h.handleListScans)
}

// recordScanRequest is the ingestion payload.
type recordScanRequest struct {
	ProductID string      `json:"productId"`
	Result    scan.Result `json:"scanResult"`
	Latitude  *float64    `json:"latitude,omitempty"`
	Longitude *float64    `json:"longitude,omitempty"`
	Address   string      `json:"address,omitempty"`

	Ledger scan.LedgerSnapshot  `json:"blockchainData"`
	Device *scan.DeviceSnapshot `json:"deviceInfo,omitempty"`
}

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Count   *int   `json:"count,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func (h *Handler) handleRecordScan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	var req recordScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid scan payload",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	event, err := h.service.Record(ctx, scan.RecordInput{
		ProductID:    req.ProductID,
		Result:       req.Result,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		HumanAddress: req.Address,
		Ledger:       req.Ledger,
		Device:       req.Device,
	})
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeBadRequest) {
			httputil.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "failed to record scan",
			"request_id", requestID,
			"product_id", req.ProductID,
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to log scan"))
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, envelope{
		Success: true,
		Message: "Scan logged successfully",
		Data:    event,
	})
}

func (h *Handler) handleListScans(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter, err := filterFromQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	events, err := h.service.List(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list scans",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to fetch scans"))
		return
	}

	count := len(events)
	httputil.WriteJSON(w, http.StatusOK, envelope{
		Success: true,
		Count:   &count,
		Data:    events,
	})
}

func filterFromQuery(r *http.Request) (scan.Filter, error) {
	q := r.URL.Query()
	filter := scan.Filter{ProductID: q.Get("productId")}

	if v := q.Get("scanResult"); v != "" {
		result := scan.Result(v)
		if !result.Valid() {
			return scan.Filter{}, dErrors.New(dErrors.CodeBadRequest, "unknown scanResult")
		}
		filter.Results = []scan.Result{result}
	}
	if v := q.Get("startDate"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return scan.Filter{}, dErrors.New(dErrors.CodeBadRequest, "startDate must be RFC3339")
		}
		filter.From = t
	}
	if v := q.Get("endDate"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return scan.Filter{}, dErrors.New(dErrors.CodeBadRequest, "endDate must be RFC3339")
		}
		filter.To = t
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return scan.Filter{}, dErrors.New(dErrors.CodeBadRequest, "limit must be a positive integer")
		}
		filter.Limit = n
	}
	return filter, nil
}
