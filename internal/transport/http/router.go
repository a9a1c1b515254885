// Package httptransport assembles the HTTP surface: middleware chain, health
// and metrics endpoints, and the token-protected audit routes.
package httptransport

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"docaudit/internal/audit/handler"
	"docaudit/internal/platform/middleware"
	"docaudit/internal/platform/redis"
	"docaudit/pkg/platform/httputil"
)

// Deps carries everything the router mounts.
type Deps struct {
	Logger        *slog.Logger
	Audit         *handler.Handler
	JWTSigningKey string
	DB            *sql.DB
	Redis         *redis.Client
	Timeout       time.Duration
}

// NewRouter wires all endpoints. Health and metrics stay unauthenticated;
// everything under /audit requires a service token.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.Logger(deps.Logger))
	if deps.Timeout > 0 {
		r.Use(middleware.Timeout(deps.Timeout))
	}

	r.Get("/healthz", handleHealth(deps))
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(pr chi.Router) {
		pr.Use(middleware.RequireServiceToken(deps.JWTSigningKey, deps.Logger))
		deps.Audit.Register(pr)
	})

	return r
}

// handleHealth reports per-dependency status. Any failing dependency turns
// the response into 503 so load balancers stop routing here.
func handleHealth(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		status := http.StatusOK
		checks := map[string]string{}

		if deps.DB != nil {
			if err := deps.DB.PingContext(ctx); err != nil {
				checks["postgres"] = "unhealthy"
				status = http.StatusServiceUnavailable
			} else {
				checks["postgres"] = "ok"
			}
		}
		if deps.Redis != nil {
			if err := deps.Redis.Health(ctx); err != nil {
				checks["redis"] = "unhealthy"
				status = http.StatusServiceUnavailable
			} else {
				checks["redis"] = "ok"
			}
		}

		body := map[string]any{"status": "ok", "checks": checks}
		if status != http.StatusOK {
			body["status"] = "degraded"
		}
		httputil.WriteJSON(w, status, body)
	}
}
