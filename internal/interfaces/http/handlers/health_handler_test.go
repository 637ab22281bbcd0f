package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/areascope/areascope/internal/infrastructure/monitoring/logging"
)

type recordingStatus struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (r *recordingStatus) SetHealthStatus(component string, healthy bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seen == nil {
		r.seen = make(map[string]bool)
	}
	r.seen[component] = healthy
}

func doHealth(h http.HandlerFunc, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestLiveness(t *testing.T) {
	h := NewHealthHandler(nil, nil, "1.2.3", logging.NewNopLogger())
	rec := doHealth(h.Liveness, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
}

func TestReadinessAllHealthy(t *testing.T) {
	status := &recordingStatus{}
	h := NewHealthHandler(map[string]HealthCheck{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return nil },
	}, status, "", logging.NewNopLogger())

	rec := doHealth(h.Readiness, "/readyz")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "ok", resp.Components["postgres"])
	assert.Equal(t, "ok", resp.Components["redis"])
	assert.Equal(t, map[string]bool{"postgres": true, "redis": true}, status.seen)
}

func TestReadinessOneFailing(t *testing.T) {
	status := &recordingStatus{}
	h := NewHealthHandler(map[string]HealthCheck{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return fmt.Errorf("dial tcp: connection refused") },
	}, status, "", logging.NewNopLogger())

	rec := doHealth(h.Readiness, "/readyz")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "unavailable", resp.Status)
	assert.Equal(t, "ok", resp.Components["postgres"])
	assert.Contains(t, resp.Components["redis"], "connection refused")
	assert.False(t, status.seen["redis"])
	assert.True(t, status.seen["postgres"])
}

func TestReadinessNoChecks(t *testing.T) {
	h := NewHealthHandler(nil, nil, "", logging.NewNopLogger())
	rec := doHealth(h.Readiness, "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
}
