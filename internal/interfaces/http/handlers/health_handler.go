package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/areascope/areascope/internal/infrastructure/monitoring/logging"
)

// checkTimeout bounds each readiness probe so one stuck dependency cannot
// hold the whole endpoint.
const checkTimeout = 3 * time.Second

// HealthCheck probes a single dependency.
type HealthCheck func(ctx context.Context) error

// HealthStatus is the gauge fed by readiness results; wired to the metrics
// bundle in production, nil in tests.
type HealthStatus interface {
	SetHealthStatus(component string, healthy bool)
}

// HealthHandler serves the liveness and readiness endpoints.
type HealthHandler struct {
	checks  map[string]HealthCheck
	status  HealthStatus
	logger  logging.Logger
	version string
}

// NewHealthHandler builds the handler. checks maps component names to their
// probes; an empty map means readiness always passes.
func NewHealthHandler(checks map[string]HealthCheck, status HealthStatus, version string, logger logging.Logger) *HealthHandler {
	return &HealthHandler{
		checks:  checks,
		status:  status,
		logger:  logger.Named("http.health"),
		version: version,
	}
}

type healthResponse struct {
	Status     string            `json:"status"`
	Version    string            `json:"version,omitempty"`
	Components map[string]string `json:"components,omitempty"`
}

// Liveness handles GET /healthz. It only reports that the process is up.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Version: h.version})
}

// Readiness handles GET /readyz, probing every registered dependency
// concurrently. Any failure turns the response into a 503 listing the
// failing components.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	var (
		mu         sync.Mutex
		wg         sync.WaitGroup
		components = make(map[string]string, len(h.checks))
		healthy    = true
	)
	for name, check := range h.checks {
		wg.Add(1)
		go func(name string, check HealthCheck) {
			defer wg.Done()
			err := check(ctx)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				components[name] = err.Error()
				healthy = false
			} else {
				components[name] = "ok"
			}
			if h.status != nil {
				h.status.SetHealthStatus(name, err == nil)
			}
			if err != nil {
				h.logger.Warn("readiness check failed",
					logging.String("component", name), logging.Err(err))
			}
		}(name, check)
	}
	wg.Wait()

	if !healthy {
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{
			Status:     "unavailable",
			Version:    h.version,
			Components: components,
		})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:     "ok",
		Version:    h.version,
		Components: components,
	})
}
