package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"clinid/internal/platform/middleware"
	"clinid/pkg/platform/httputil"
)

// HealthCheck probes one dependency. A nil error means healthy.
type HealthCheck func(ctx context.Context) error

// RouterConfig carries the cross-cutting dependencies of the HTTP surface.
type RouterConfig struct {
	Logger *slog.Logger
	// Validator enables bearer-token auth on /v1 routes. Nil disables auth,
	// for local development behind a trusted gateway.
	Validator middleware.JWTValidator
	// RateLimiter guards the public surface. Nil disables limiting.
	RateLimiter *middleware.IPRateLimiter
	// RequestTimeout caps each request. Zero selects 30s.
	RequestTimeout time.Duration
	// HealthChecks run on /healthz, keyed by dependency name.
	HealthChecks map[string]HealthCheck
}

// NewRouter assembles the full HTTP surface: middleware chain, the v1 API,
// and the operational endpoints.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Handler)
	}

	r.Get("/healthz", healthHandler(cfg.HealthChecks))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		if cfg.Validator != nil {
			r.Use(middleware.RequireAuth(cfg.Validator, cfg.Logger))
		}
		h.Register(r)
	})

	return r
}

// healthHandler reports per-dependency status. Any failing dependency turns
// the overall response into a 503 so orchestrators stop routing traffic.
func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		deps := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				deps[name] = "unhealthy"
				status = http.StatusServiceUnavailable
				continue
			}
			deps[name] = "healthy"
		}

		body := map[string]any{"status": "ok"}
		if status != http.StatusOK {
			body["status"] = "degraded"
		}
		if len(deps) > 0 {
			body["dependencies"] = deps
		}
		httputil.WriteJSON(w, status, body)
	}
}
