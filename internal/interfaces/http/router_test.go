package http

import (
	"context"
	"encoding/json"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/areascope/areascope/internal/application/aggregation"
	"github.com/areascope/areascope/internal/domain/record"
	"github.com/areascope/areascope/internal/infrastructure/database/memory"
	"github.com/areascope/areascope/internal/infrastructure/monitoring/logging"
	"github.com/areascope/areascope/internal/interfaces/http/handlers"
	"github.com/areascope/areascope/pkg/errors"
)

type staticRepo struct {
	version string
	records []*record.LocatedRecord
}

func (r *staticRepo) ListByDataset(context.Context, string) ([]*record.LocatedRecord, error) {
	return r.records, nil
}

func (r *staticRepo) ListByDatasetInBound(_ context.Context, _ string, bound orb.Bound) ([]*record.LocatedRecord, error) {
	var out []*record.LocatedRecord
	for _, rec := range r.records {
		if bound.Contains(rec.Location) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *staticRepo) DatasetVersion(_ context.Context, datasetID string) (string, error) {
	if r.version == "" {
		return "", errors.Newf(errors.ErrCodeDatasetNotFound, "dataset %q not found", datasetID)
	}
	return r.version, nil
}

func tractRecord(id string, x, y float64, fields map[string]interface{}) *record.LocatedRecord {
	return &record.LocatedRecord{
		ID:       id,
		Location: orb.Point{x, y},
		Kind:     record.GeometryCentroid,
		Fields:   fields,
	}
}

func newTestRouter(repo record.Repository) nethttp.Handler {
	log := logging.NewNopLogger()
	svc := aggregation.NewCachedAggregator(
		repo,
		aggregation.NewOrchestrator(log),
		memory.NewCache(64, time.Minute),
		log,
	)
	return NewRouter(RouterConfig{
		Logger:      log,
		Aggregation: handlers.NewAggregationHandler(svc, log),
		Health: handlers.NewHealthHandler(map[string]handlers.HealthCheck{
			"store": func(context.Context) error { return nil },
		}, nil, "test", log),
	})
}

func TestRouterAggregateEndToEnd(t *testing.T) {
	repo := &staticRepo{
		version: "v1",
		records: []*record.LocatedRecord{
			tractRecord("t1", 1, 1, map[string]interface{}{
				"strategic_score": 80.0, "median_income": 60000.0, "population": 2000.0,
			}),
			tractRecord("t2", 2, 2, map[string]interface{}{
				"strategic_score": 85.0, "median_income": 70000.0, "population": 4000.0,
			}),
			tractRecord("t3", 3, 3, map[string]interface{}{
				"strategic_score": 90.0, "median_income": 85000.0, "population": 7000.0,
			}),
			tractRecord("far", 50, 50, map[string]interface{}{
				"strategic_score": 10.0, "population": 100.0,
			}),
		},
	}
	router := newTestRouter(repo)

	body := `{"geometry":{"type":"Polygon","coordinates":[[[0,0],[10,0],[10,10],[0,10],[0,0]]]}}`
	req := httptest.NewRequest(nethttp.MethodPost, "/api/v1/datasets/tracts/aggregate", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, nethttp.StatusOK, rec.Code, rec.Body.String())

	var out aggregation.Outcome
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Equal(t, aggregation.StatusOK, out.Status)
	require.NotNil(t, out.Result)

	assert.InDelta(t, 85.0, out.Result.Fields["strategic_score"], 1e-9)
	assert.InDelta(t, 13000.0, out.Result.Info.TotalPopulation, 1e-9)
	// (60000*2000 + 70000*4000 + 85000*7000) / 13000
	assert.InDelta(t, 76538.4615384615, out.Result.Fields["median_income"], 1e-6)
	assert.Equal(t, 3, out.Result.Info.SourceCount)
	assert.InDelta(t, 0.85, out.Result.Info.ConfidenceAdjustment, 1e-9)
	assert.Equal(t, aggregation.MethodMultiSource, out.Result.Info.Method)
}

func TestRouterNoDataOutsideRecords(t *testing.T) {
	repo := &staticRepo{version: "v1", records: []*record.LocatedRecord{
		tractRecord("t1", 50, 50, map[string]interface{}{"strategic_score": 80.0}),
	}}
	router := newTestRouter(repo)

	body := `{"geometry":{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,1],[0,0]]]}}`
	req := httptest.NewRequest(nethttp.MethodPost, "/api/v1/datasets/tracts/aggregate", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, nethttp.StatusOK, rec.Code)

	var out aggregation.Outcome
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.True(t, out.NoData())
}

func TestRouterDatasetNotFound(t *testing.T) {
	router := newTestRouter(&staticRepo{})

	body := `{"geometry":{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,1],[0,0]]]}}`
	req := httptest.NewRequest(nethttp.MethodPost, "/api/v1/datasets/absent/aggregate", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, nethttp.StatusNotFound, rec.Code)
}

func TestRouterHealthRoutes(t *testing.T) {
	router := newTestRouter(&staticRepo{version: "v1"})

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(nethttp.MethodGet, path, nil))
		assert.Equal(t, nethttp.StatusOK, rec.Code, path)
	}
}

func TestRouterCORSPreflight(t *testing.T) {
	log := logging.NewNopLogger()
	repo := &staticRepo{version: "v1"}
	svc := aggregation.NewCachedAggregator(repo, aggregation.NewOrchestrator(log), nil, log)
	router := NewRouter(RouterConfig{
		Logger:      log,
		Aggregation: handlers.NewAggregationHandler(svc, log),
		Health:      handlers.NewHealthHandler(nil, nil, "", log),
		CORSOrigins: []string{"https://app.example.com"},
	})

	req := httptest.NewRequest(nethttp.MethodOptions, "/api/v1/datasets/tracts/aggregate", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, nethttp.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}
