// Package aggregation implements the multi-source spatial score aggregation
// engine: selecting the located records inside a study area, combining their
// fields under per-field strategies, recombining feature-importance lists, and
// discounting confidence for the number of merged sources.
package aggregation

import (
	"github.com/areascope/areascope/internal/domain/record"
)

// StrategyKind is the closed set of per-field aggregation behaviors.
// Representing the dispatch as a tagged variant resolved once at registry
// construction avoids silent misclassification of a mistyped field name.
type StrategyKind string

const (
	// StrategyAverage is the arithmetic mean over non-missing values.
	StrategyAverage StrategyKind = "average"

	// StrategyWeightedAverage is Σ(value·weight)/Σ(weight) with a documented
	// fallback to the unweighted mean when the total weight is zero.
	StrategyWeightedAverage StrategyKind = "weighted_average"

	// StrategySum is the arithmetic sum; missing values contribute zero.
	StrategySum StrategyKind = "sum"
)

// Strategy binds a kind to its weight source.  WeightField is set only for
// StrategyWeightedAverage.
type Strategy struct {
	Kind        StrategyKind
	WeightField string
}

// StrategyRegistry resolves a field name to its aggregation strategy from a
// static table.  Unrecognized fields default to Average: new score-like fields
// added upstream aggregate sensibly instead of being silently dropped.
type StrategyRegistry struct {
	table    map[string]Strategy
	fallback Strategy
}

// NewStrategyRegistry builds the registry with the canonical field table.
func NewStrategyRegistry() *StrategyRegistry {
	avg := Strategy{Kind: StrategyAverage}
	weighted := Strategy{Kind: StrategyWeightedAverage, WeightField: record.FieldPopulation}
	sum := Strategy{Kind: StrategySum}

	return &StrategyRegistry{
		fallback: avg,
		table: map[string]Strategy{
			record.FieldStrategicScore:           avg,
			record.FieldCompetitiveScore:         avg,
			record.FieldTrendScore:               avg,
			record.FieldPredictionScore:          avg,
			record.FieldDemographicInsightsScore: avg,
			record.FieldConfidenceScore:          avg,

			record.FieldMedianIncome:     weighted,
			record.FieldMedianAge:        weighted,
			record.FieldAvgHouseholdSize: weighted,

			record.FieldPopulation:      sum,
			record.FieldTotalPopulation: sum,
			record.FieldHouseholds:      sum,
			record.FieldTotalHouseholds: sum,
		},
	}
}

// StrategyFor resolves the strategy for a field name.
func (r *StrategyRegistry) StrategyFor(field string) Strategy {
	if s, ok := r.table[field]; ok {
		return s
	}
	return r.fallback
}

// Apply aggregates one field across the given records under its resolved
// strategy.  The boolean return is false only when the result is undefined:
// an Average or WeightedAverage where every record misses the field.  A Sum
// is always defined; records missing the field contribute zero.
func (r *StrategyRegistry) Apply(field string, records []*record.LocatedRecord) (float64, bool) {
	strat := r.StrategyFor(field)
	switch strat.Kind {
	case StrategySum:
		return sumField(field, records), true
	case StrategyWeightedAverage:
		return weightedAverageField(field, strat.WeightField, records)
	default:
		return averageField(field, records)
	}
}

// sumField is the exact arithmetic sum of the non-missing values.
func sumField(field string, records []*record.LocatedRecord) float64 {
	var total float64
	for _, rec := range records {
		if v, ok := rec.NumericField(field); ok {
			total += v
		}
	}
	return total
}

// averageField is the arithmetic mean over non-missing values.  Missing values
// are excluded from both numerator and denominator.
func averageField(field string, records []*record.LocatedRecord) (float64, bool) {
	var total float64
	var n int
	for _, rec := range records {
		if v, ok := rec.NumericField(field); ok {
			total += v
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return total / float64(n), true
}

// weightedAverageField computes Σ(value·weight)/Σ(weight) over records whose
// field value is non-missing.  A record with a missing or non-positive weight
// contributes nothing to either sum.  When the total weight is zero the
// function falls back to the unweighted mean of the same values, never
// dividing by zero.
func weightedAverageField(field, weightField string, records []*record.LocatedRecord) (float64, bool) {
	var weightedSum, totalWeight float64
	var sawValue bool
	for _, rec := range records {
		v, ok := rec.NumericField(field)
		if !ok {
			continue
		}
		sawValue = true
		w, ok := rec.NumericField(weightField)
		if !ok || w <= 0 {
			continue
		}
		weightedSum += v * w
		totalWeight += w
	}
	if !sawValue {
		return 0, false
	}
	if totalWeight == 0 {
		return averageField(field, records)
	}
	return weightedSum / totalWeight, true
}
