// Package record defines the located analysis record consumed by the
// aggregation engine.  Records are produced by an upstream scoring pipeline,
// one per small area unit (e.g., a census tract), and are immutable inputs
// here: the engine reads scores, demographic counts, and ranked feature
// importances but never writes them back.
package record

import (
	"math"

	"github.com/paulmach/orb"
)

// GeometryKind distinguishes how a record is located.
type GeometryKind string

const (
	// GeometryPoint marks records located by an exact point.
	GeometryPoint GeometryKind = "point"

	// GeometryCentroid marks records available only as a polygon-centroid
	// proxy.  Containment tests use the centroid, a documented binary
	// approximation: boundary-straddling units are wholly in or wholly out.
	GeometryCentroid GeometryKind = "centroid"
)

// Well-known field names produced by the upstream pipeline.
const (
	FieldStrategicScore           = "strategic_score"
	FieldCompetitiveScore         = "competitive_score"
	FieldTrendScore               = "trend_score"
	FieldPredictionScore          = "prediction_score"
	FieldDemographicInsightsScore = "demographic_insights_score"
	FieldConfidenceScore          = "confidence_score"
	FieldPopulation               = "population"
	FieldTotalPopulation          = "total_population"
	FieldHouseholds               = "households"
	FieldTotalHouseholds          = "total_households"
	FieldMedianIncome             = "median_income"
	FieldMedianAge                = "median_age"
	FieldAvgHouseholdSize         = "average_household_size"
)

// FeatureImportance is one entry of a record's ranked explanation list:
// a variable's contribution to the record's score, produced upstream.
type FeatureImportance struct {
	FeatureName string  `json:"feature_name"`
	Importance  float64 `json:"importance_score"` // in [0,1]
	Rank        int     `json:"rank"`             // unique, 1-based within its owning record
}

// LocatedRecord is one per-location analysis result.  Fields holds the named
// numeric values as decoded from the store; values may be absent or carry a
// non-numeric payload, which the aggregation engine treats as missing.
type LocatedRecord struct {
	ID          string                 `json:"id"`
	Location    orb.Point              `json:"location"`
	Kind        GeometryKind           `json:"geometry_kind"`
	Fields      map[string]interface{} `json:"fields"`
	Importances []FeatureImportance    `json:"feature_importances"`
}

// NumericField resolves a named field to a float64.  The second return is
// false when the field is absent, carries a non-numeric payload, or is NaN/Inf.
// JSON decoding may surface numbers as float64, json.Number-like strings are
// not accepted: the store contract is numeric JSON values.
func (r *LocatedRecord) NumericField(name string) (float64, bool) {
	raw, ok := r.Fields[name]
	if !ok {
		return 0, false
	}
	var v float64
	switch n := raw.(type) {
	case float64:
		v = n
	case float32:
		v = float64(n)
	case int:
		v = float64(n)
	case int64:
		v = float64(n)
	default:
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// HasGeometry reports whether the record carries a usable location.
func (r *LocatedRecord) HasGeometry() bool {
	if r.Kind != GeometryPoint && r.Kind != GeometryCentroid {
		return false
	}
	return !math.IsNaN(r.Location[0]) && !math.IsNaN(r.Location[1])
}

// Usable reports whether the record can participate in aggregation at all:
// it must have a geometry and at least one numeric field.  Unusable records
// are skipped with a counted warning, never a fatal error.
func (r *LocatedRecord) Usable() bool {
	if !r.HasGeometry() {
		return false
	}
	for name := range r.Fields {
		if _, ok := r.NumericField(name); ok {
			return true
		}
	}
	return false
}
