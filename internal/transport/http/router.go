// Package httptransport assembles the HTTP surface: route layout,
// middleware chains, and the auth boundary between public scanning and the
// analytics dashboard.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	cataloghandler "veriscan/internal/catalog/handler"
	fraudhandler "veriscan/internal/fraud/handler"
	"veriscan/internal/platform/metrics"
	"veriscan/internal/platform/middleware"
	scanhandler "veriscan/internal/scan/handler"
	verifyhandler "veriscan/internal/verify/handler"
	"veriscan/pkg/platform/httputil"
)

// Deps carries everything the router mounts.
type Deps struct {
	Verify  *verifyhandler.Handler
	Scans   *scanhandler.Handler
	Fraud   *fraudhandler.Handler
	Catalog *cataloghandler.Handler

	Auth    middleware.JWTValidator
	Logger  *slog.Logger
	Metrics *metrics.Metrics

	// Health reports dependency status for the health endpoint.
	Health func() map[string]string

	RequestTimeout time.Duration
}

// NewRouter wires all endpoints. Scanning and verification are public;
// analytics and listings sit behind dashboard auth.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.Logger(deps.Logger))
	if deps.RequestTimeout > 0 {
		r.Use(middleware.Timeout(deps.RequestTimeout))
	}
	r.Use(middleware.ContentTypeJSON)

	r.Get("/health", healthHandler(deps.Health))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Public scanning surface.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Observe(deps.Metrics, "public"))
		deps.Verify.Register(r)
		deps.Scans.RegisterIngest(r)
		deps.Catalog.Register(r)
	})

	// Authenticated dashboard surface.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Observe(deps.Metrics, "dashboard"))
		r.Use(middleware.RequireAuth(deps.Auth, deps.Logger))
		deps.Scans.RegisterDashboard(r)
		deps.Fraud.Register(r)
	})

	return r
}

func healthHandler(health func() map[string]string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{"status": "ok"}
		if health != nil {
			for name, state := range health() {
				status[name] = state
			}
		}
		httputil.WriteJSON(w, http.StatusOK, status)
	}
}
