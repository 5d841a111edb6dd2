// Package handler exposes the fraud analytics dashboard endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"veriscan/internal/fraud"
	"veriscan/internal/scan"
	dErrors "veriscan/pkg/domain-errors"
	"veriscan/pkg/geo"
	"veriscan/pkg/platform/httputil"
	"veriscan/pkg/requestcontext"
)

// Detector defines the aggregations the handler serves.
type Detector interface {
	Analytics(ctx context.Context) (fraud.AnalyticsReport, error)
	SuspiciousProducts(ctx context.Context, soldMin, notFoundMin int) ([]fraud.SuspiciousProductReport, error)
	Nearby(ctx context.Context, center geo.Point, radiusMeters float64, limit int) ([]scan.Event, error)
}

// Handler serves the analytics routes. All of them sit behind dashboard
// auth; the handler itself assumes the caller is already authorized.
type Handler struct {
	detector Detector
	logger   *slog.Logger
}

// New creates an analytics Handler.
func New(detector Detector, logger *slog.Logger) *Handler {
	return &Handler{detector: detector, logger: logger}
}

// Register mounts the analytics routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/scans/analytics", h.handleAnalytics)
	r.Get("/api/scans/suspicious", h.handleSuspicious)
	r.Get("/api/scans/nearby", h.handleNearby)
}

type envelope struct {
	Success bool   `json:"success"`
	Count   *int   `json:"count,omitempty"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func (h *Handler) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	report, err := h.detector.Analytics(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "analytics aggregation failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to compute analytics"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, envelope{Success: true, Data: report})
}

func (h *Handler) handleSuspicious(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	soldMin, err := intQuery(r, "minAlreadySold")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	notFoundMin, err := intQuery(r, "minNotFound")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	reports, err := h.detector.SuspiciousProducts(ctx, soldMin, notFoundMin)
	if err != nil {
		h.logger.ErrorContext(ctx, "suspicious product aggregation failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to compute suspicious products"))
		return
	}

	count := len(reports)
	httputil.WriteJSON(w, http.StatusOK, envelope{Success: true, Count: &count, Data: reports})
}

func (h *Handler) handleNearby(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	lat, err := floatQuery(r, "latitude", true)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	lon, err := floatQuery(r, "longitude", true)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	radius, err := floatQuery(r, "radius", true)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	limit, err := intQuery(r, "limit")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	events, err := h.detector.Nearby(ctx, geo.Point{Lat: lat, Lon: lon}, radius, limit)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeBadRequest) {
			httputil.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "nearby query failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to query nearby scans"))
		return
	}

	count := len(events)
	httputil.WriteJSON(w, http.StatusOK, envelope{Success: true, Count: &count, Data: events})
}

func intQuery(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, dErrors.New(dErrors.CodeBadRequest, name+" must be a positive integer")
	}
	return n, nil
}

func floatQuery(r *http.Request, name string, required bool) (float64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		if required {
			return 0, dErrors.New(dErrors.CodeBadRequest, name+" is required")
		}
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeBadRequest, name+" must be a number")
	}
	return f, nil
}
