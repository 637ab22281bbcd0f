package aggregation

import (
	"context"
	"sort"
	"time"

	"github.com/areascope/areascope/internal/domain/record"
	"github.com/areascope/areascope/internal/domain/studyarea"
	"github.com/areascope/areascope/internal/infrastructure/monitoring/logging"
	apperrors "github.com/areascope/areascope/pkg/errors"
)

// MetricsRecorder is the orchestrator's outbound metrics port.  The concrete
// Prometheus implementation lives in infrastructure; a no-op stands in when
// monitoring is not wired (tests, CLI runs).
type MetricsRecorder interface {
	ObserveAggregation(status string, sourceCount int, duration time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) ObserveAggregation(string, int, time.Duration) {}

// Orchestrator runs the full aggregation pipeline for one study area:
// selection, per-field strategy application, feature-importance recombination,
// and confidence adjustment.  It is stateless and safe for concurrent use.
type Orchestrator struct {
	registry *StrategyRegistry
	logger   logging.Logger
	metrics  MetricsRecorder
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithMetrics wires a metrics recorder into the orchestrator.
func WithMetrics(m MetricsRecorder) Option {
	return func(o *Orchestrator) {
		if m != nil {
			o.metrics = m
		}
	}
}

// NewOrchestrator builds an orchestrator with the canonical strategy registry.
func NewOrchestrator(logger logging.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	o := &Orchestrator{
		registry: NewStrategyRegistry(),
		logger:   logger.Named("aggregation"),
		metrics:  noopMetrics{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Aggregate selects the records inside the study area and synthesizes a single
// result.  requestedFields narrows the output; when empty, every numeric field
// present on any selected record is aggregated.
//
// The outcome is never an implicit zero: an empty selection yields a no-data
// outcome, and a requested field that no selected record carries is listed in
// UndefinedFields instead of appearing in Fields.  The only errors are an
// invalid study area and context cancellation.
func (o *Orchestrator) Aggregate(ctx context.Context, area *studyarea.StudyArea, records []*record.LocatedRecord, requestedFields []string) (*Outcome, error) {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeTimeout, "aggregation cancelled")
	}

	sel, err := Select(area, records)
	if err != nil {
		return nil, err
	}
	if len(sel.Records) == 0 {
		o.logger.Debug("no records intersect study area",
			logging.Int("candidates", len(records)),
			logging.Int("skipped", sel.SkippedCount),
		)
		o.metrics.ObserveAggregation(StatusNoData, 0, time.Since(start))
		return NoDataOutcome(), nil
	}

	fields := requestedFields
	if len(fields) == 0 {
		fields = unionNumericFields(sel.Records)
	}

	var result *AggregationResult
	if len(sel.Records) == 1 {
		result = o.passthrough(sel, fields)
	} else {
		if err := ctx.Err(); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeTimeout, "aggregation cancelled")
		}
		result = o.merge(sel, fields)
	}

	result.Info.SkippedRecords = sel.SkippedCount
	result.Info.SkippedRecordIDs = sel.SkippedIDs

	o.logger.Debug("aggregation complete",
		logging.Int("sources", result.Info.SourceCount),
		logging.String("method", result.Info.Method),
		logging.Int("fields", len(result.Fields)),
		logging.Duration("elapsed", time.Since(start)),
	)
	o.metrics.ObserveAggregation(StatusOK, result.Info.SourceCount, time.Since(start))
	return &Outcome{Status: StatusOK, Result: result}, nil
}

// passthrough copies a lone record's values verbatim.  No merging happened, so
// no confidence penalty applies and the record's own ranked importances are
// returned untouched.
func (o *Orchestrator) passthrough(sel *Selection, fields []string) *AggregationResult {
	rec := sel.Records[0]

	out := make(map[string]float64, len(fields))
	var undefined []string
	for _, f := range fields {
		if v, ok := rec.NumericField(f); ok {
			out[f] = v
		} else {
			undefined = append(undefined, f)
		}
	}
	sort.Strings(undefined)

	importances := make([]record.FeatureImportance, len(rec.Importances))
	copy(importances, rec.Importances)

	return &AggregationResult{
		Fields:             out,
		FeatureImportances: importances,
		ConfidenceScore:    FinalConfidence(sel.Records, 1.0),
		Info: AggregationInfo{
			SourceCount:          1,
			Method:               MethodSingleSource,
			TotalPopulation:      totalPopulation(sel.Records),
			ConfidenceAdjustment: 1.0,
			UndefinedFields:      undefined,
		},
	}
}

// merge aggregates two or more records field by field under the strategy
// registry and recombines their importance lists.
func (o *Orchestrator) merge(sel *Selection, fields []string) *AggregationResult {
	out := make(map[string]float64, len(fields))
	methods := make(map[string]string, len(fields))
	var undefined []string
	for _, f := range fields {
		v, ok := o.registry.Apply(f, sel.Records)
		if !ok {
			undefined = append(undefined, f)
			continue
		}
		out[f] = v
		methods[f] = string(o.registry.StrategyFor(f).Kind)
	}
	sort.Strings(undefined)

	lists := make([][]record.FeatureImportance, 0, len(sel.Records))
	for _, rec := range sel.Records {
		if len(rec.Importances) > 0 {
			lists = append(lists, rec.Importances)
		}
	}

	adjustment := AdjustmentFor(len(sel.Records))
	return &AggregationResult{
		Fields:             out,
		FeatureImportances: Recombine(lists),
		ConfidenceScore:    FinalConfidence(sel.Records, adjustment),
		Info: AggregationInfo{
			SourceCount:          len(sel.Records),
			Method:               MethodMultiSource,
			TotalPopulation:      totalPopulation(sel.Records),
			ConfidenceAdjustment: adjustment,
			FieldMethods:         methods,
			UndefinedFields:      undefined,
		},
	}
}

// unionNumericFields returns the sorted union of numeric field names across the
// records, so an unrestricted request aggregates everything the data offers.
func unionNumericFields(records []*record.LocatedRecord) []string {
	seen := make(map[string]struct{})
	for _, rec := range records {
		for name := range rec.Fields {
			if _, ok := rec.NumericField(name); ok {
				seen[name] = struct{}{}
			}
		}
	}
	fields := make([]string, 0, len(seen))
	for name := range seen {
		fields = append(fields, name)
	}
	sort.Strings(fields)
	return fields
}

// totalPopulation sums the population of the selection.  Records that publish
// a per-record population are summed directly; when none do, the pre-computed
// total_population field is summed instead.
func totalPopulation(records []*record.LocatedRecord) float64 {
	var anyPop bool
	for _, rec := range records {
		if _, ok := rec.NumericField(record.FieldPopulation); ok {
			anyPop = true
			break
		}
	}
	if anyPop {
		return sumField(record.FieldPopulation, records)
	}
	return sumField(record.FieldTotalPopulation, records)
}
