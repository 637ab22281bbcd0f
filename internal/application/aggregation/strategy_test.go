package aggregation

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/areascope/areascope/internal/domain/record"
)

func newRecord(id string, x, y float64, fields map[string]interface{}) *record.LocatedRecord {
	return &record.LocatedRecord{
		ID:       id,
		Location: orb.Point{x, y},
		Kind:     record.GeometryCentroid,
		Fields:   fields,
	}
}

func TestStrategyRegistryResolution(t *testing.T) {
	r := NewStrategyRegistry()

	tests := []struct {
		field string
		kind  StrategyKind
	}{
		{record.FieldStrategicScore, StrategyAverage},
		{record.FieldCompetitiveScore, StrategyAverage},
		{record.FieldConfidenceScore, StrategyAverage},
		{record.FieldMedianIncome, StrategyWeightedAverage},
		{record.FieldMedianAge, StrategyWeightedAverage},
		{record.FieldAvgHouseholdSize, StrategyWeightedAverage},
		{record.FieldPopulation, StrategySum},
		{record.FieldTotalPopulation, StrategySum},
		{record.FieldHouseholds, StrategySum},
		{"some_new_score", StrategyAverage}, // unknown fields default to average
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			assert.Equal(t, tt.kind, r.StrategyFor(tt.field).Kind)
		})
	}

	assert.Equal(t, record.FieldPopulation, r.StrategyFor(record.FieldMedianIncome).WeightField)
}

func TestApplyAverageExcludesMissing(t *testing.T) {
	r := NewStrategyRegistry()
	records := []*record.LocatedRecord{
		newRecord("a", 0, 0, map[string]interface{}{"strategic_score": 80.0}),
		newRecord("b", 0, 0, map[string]interface{}{"strategic_score": 90.0}),
		newRecord("c", 0, 0, map[string]interface{}{"trend_score": 50.0}), // no strategic_score
	}

	v, ok := r.Apply(record.FieldStrategicScore, records)
	require.True(t, ok)
	// Mean over the two records that carry the field, not three.
	assert.InDelta(t, 85.0, v, 1e-9)
}

func TestApplyAverageAllMissingIsUndefined(t *testing.T) {
	r := NewStrategyRegistry()
	records := []*record.LocatedRecord{
		newRecord("a", 0, 0, map[string]interface{}{"trend_score": 50.0}),
		newRecord("b", 0, 0, map[string]interface{}{"trend_score": 60.0}),
	}

	_, ok := r.Apply(record.FieldStrategicScore, records)
	assert.False(t, ok, "average over zero values must be undefined, not zero")
}

func TestApplySumTreatsMissingAsZero(t *testing.T) {
	r := NewStrategyRegistry()
	records := []*record.LocatedRecord{
		newRecord("a", 0, 0, map[string]interface{}{"population": 5000.0}),
		newRecord("b", 0, 0, map[string]interface{}{"median_age": 40.0}),
		newRecord("c", 0, 0, map[string]interface{}{"population": 8000.0}),
	}

	v, ok := r.Apply(record.FieldPopulation, records)
	require.True(t, ok, "a sum is always defined")
	assert.InDelta(t, 13000.0, v, 1e-9)

	v, ok = r.Apply(record.FieldHouseholds, records)
	require.True(t, ok)
	assert.Zero(t, v)
}

func TestApplyWeightedAverage(t *testing.T) {
	r := NewStrategyRegistry()
	records := []*record.LocatedRecord{
		newRecord("a", 0, 0, map[string]interface{}{"median_income": 75000.0, "population": 5000.0}),
		newRecord("b", 0, 0, map[string]interface{}{"median_income": 77500.0, "population": 8000.0}),
	}

	v, ok := r.Apply(record.FieldMedianIncome, records)
	require.True(t, ok)
	// (75000*5000 + 77500*8000) / 13000
	assert.InDelta(t, 76538.4615384615, v, 1e-6)
}

func TestApplyWeightedAverageEqualWeightsReducesToMean(t *testing.T) {
	r := NewStrategyRegistry()
	// Every record carries the same positive population, so the weights cancel
	// and the weighted average must equal the plain mean.
	records := []*record.LocatedRecord{
		newRecord("a", 0, 0, map[string]interface{}{"median_income": 65000.0, "population": 3000.0}),
		newRecord("b", 0, 0, map[string]interface{}{"median_income": 75000.0, "population": 3000.0}),
		newRecord("c", 0, 0, map[string]interface{}{"median_income": 95000.0, "population": 3000.0}),
	}

	v, ok := r.Apply(record.FieldMedianIncome, records)
	require.True(t, ok)
	assert.InDelta(t, (65000.0+75000.0+95000.0)/3, v, 1e-9)
}

func TestApplyWeightedAverageZeroWeightFallsBackToMean(t *testing.T) {
	r := NewStrategyRegistry()

	tests := []struct {
		name    string
		records []*record.LocatedRecord
	}{
		{
			name: "weights absent",
			records: []*record.LocatedRecord{
				newRecord("a", 0, 0, map[string]interface{}{"median_income": 60000.0}),
				newRecord("b", 0, 0, map[string]interface{}{"median_income": 80000.0}),
			},
		},
		{
			name: "weights zero",
			records: []*record.LocatedRecord{
				newRecord("a", 0, 0, map[string]interface{}{"median_income": 60000.0, "population": 0.0}),
				newRecord("b", 0, 0, map[string]interface{}{"median_income": 80000.0, "population": 0.0}),
			},
		},
		{
			name: "weights negative",
			records: []*record.LocatedRecord{
				newRecord("a", 0, 0, map[string]interface{}{"median_income": 60000.0, "population": -1.0}),
				newRecord("b", 0, 0, map[string]interface{}{"median_income": 80000.0, "population": -2.0}),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := r.Apply(record.FieldMedianIncome, tt.records)
			require.True(t, ok)
			assert.InDelta(t, 70000.0, v, 1e-9)
		})
	}
}

func TestApplyWeightedAverageSkipsValuelessRecords(t *testing.T) {
	r := NewStrategyRegistry()
	records := []*record.LocatedRecord{
		newRecord("a", 0, 0, map[string]interface{}{"median_income": 70000.0, "population": 1000.0}),
		// Carries weight but no value: must not drag the weighted sum.
		newRecord("b", 0, 0, map[string]interface{}{"population": 99999.0}),
	}

	v, ok := r.Apply(record.FieldMedianIncome, records)
	require.True(t, ok)
	assert.InDelta(t, 70000.0, v, 1e-9)
}
