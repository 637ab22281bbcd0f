// Package http wires the HTTP surface: router, middleware and server.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/areascope/areascope/internal/infrastructure/monitoring/logging"
	"github.com/areascope/areascope/internal/interfaces/http/handlers"
	"github.com/areascope/areascope/internal/interfaces/http/middleware"
)

// RouterConfig collects everything the router mounts.
type RouterConfig struct {
	Logger      logging.Logger
	Aggregation *handlers.AggregationHandler
	Health      *handlers.HealthHandler

	// MetricsHandler serves the Prometheus scrape endpoint; nil disables it.
	MetricsHandler http.Handler

	// HTTPMetrics feeds request counters from the logging middleware.
	HTTPMetrics middleware.HTTPMetrics

	// CORSOrigins lists allowed origins; empty leaves CORS closed.
	CORSOrigins []string
}

// NewRouter assembles the middleware stack and route tree.
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	if len(cfg.CORSOrigins) > 0 {
		r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.CORSOrigins)))
	}
	r.Use(middleware.RequestLogging(cfg.Logger.Named("http"), cfg.HTTPMetrics, middleware.DefaultLoggingConfig()))

	r.Get("/healthz", cfg.Health.Liveness)
	r.Get("/readyz", cfg.Health.Readiness)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/datasets/{datasetID}", func(r chi.Router) {
			r.Post("/aggregate", cfg.Aggregation.Aggregate)
		})
	})

	return r
}
