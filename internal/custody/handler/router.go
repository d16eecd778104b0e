package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"jailcheck/pkg/platform/httputil"
	"jailcheck/pkg/platform/middleware/accesslog"
	"jailcheck/pkg/platform/middleware/requestid"
	"jailcheck/pkg/platform/middleware/requesttime"
)

// HealthCheck reports a dependency's readiness.
type HealthCheck func(ctx context.Context) error

// NewRouter mounts the custody API, /healthz and /metrics behind the
// platform middleware chain.
func NewRouter(h *Handler, logger *slog.Logger, gatherer prometheus.Gatherer, checks ...HealthCheck) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(accesslog.Middleware(logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		for _, check := range checks {
			if err := check(r.Context()); err != nil {
				logger.WarnContext(r.Context(), "health check failed", "error", err)
				httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	h.Register(r)
	return r
}
