package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/areascope/areascope/internal/application/aggregation"
	"github.com/areascope/areascope/internal/domain/studyarea"
	"github.com/areascope/areascope/internal/infrastructure/monitoring/logging"
	"github.com/areascope/areascope/pkg/errors"
)

// maxGeometryBody caps the request body; a study area drawn by hand never
// approaches this.
const maxGeometryBody = 4 << 20

// Aggregator is the application service the handler drives.
type Aggregator interface {
	Aggregate(ctx context.Context, datasetID string, area *studyarea.StudyArea, fields []string) (*aggregation.Outcome, error)
}

// AggregateRequest is the POST body: a GeoJSON study area plus optional
// output controls.
type AggregateRequest struct {
	// Geometry is a GeoJSON Polygon or MultiPolygon, bare geometry or
	// wrapped in a Feature/FeatureCollection.
	Geometry json.RawMessage `json:"geometry"`

	// Fields narrows the aggregated output; empty means every numeric field.
	Fields []string `json:"fields,omitempty"`

	// TopFeatures truncates the recombined importance list in the response.
	// Zero returns the full list.
	TopFeatures int `json:"top_features,omitempty"`
}

// AggregationHandler serves the aggregation endpoint.
type AggregationHandler struct {
	service Aggregator
	logger  logging.Logger
}

// NewAggregationHandler builds the handler.
func NewAggregationHandler(service Aggregator, logger logging.Logger) *AggregationHandler {
	return &AggregationHandler{
		service: service,
		logger:  logger.Named("http.aggregation"),
	}
}

// Aggregate handles POST /api/v1/datasets/{datasetID}/aggregate.
func (h *AggregationHandler) Aggregate(w http.ResponseWriter, r *http.Request) {
	datasetID := chi.URLParam(r, "datasetID")
	if datasetID == "" {
		writeAppError(w, errors.New(errors.ErrCodeBadRequest, "dataset id is required"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxGeometryBody)
	var req AggregateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAppError(w, errors.Wrap(err, errors.ErrCodeBadRequest, "invalid request body"))
		return
	}
	if len(req.Geometry) == 0 {
		writeAppError(w, errors.New(errors.ErrCodeGeometryEmpty, "geometry is required"))
		return
	}
	if req.TopFeatures < 0 {
		writeAppError(w, errors.New(errors.ErrCodeBadRequest, "top_features must not be negative"))
		return
	}

	area, err := studyarea.ParseGeoJSON(req.Geometry)
	if err != nil {
		writeAppError(w, err)
		return
	}

	outcome, err := h.service.Aggregate(r.Context(), datasetID, area, req.Fields)
	if err != nil {
		h.logger.Error("aggregation request failed",
			logging.String("dataset_id", datasetID), logging.Err(err))
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, truncateImportances(outcome, req.TopFeatures))
}

// truncateImportances applies the top-N view without mutating the outcome,
// which may be shared with the cache.
func truncateImportances(outcome *aggregation.Outcome, top int) *aggregation.Outcome {
	if top <= 0 || outcome.Result == nil || len(outcome.Result.FeatureImportances) <= top {
		return outcome
	}
	result := *outcome.Result
	result.FeatureImportances = result.FeatureImportances[:top]
	return &aggregation.Outcome{Status: outcome.Status, Result: &result}
}
