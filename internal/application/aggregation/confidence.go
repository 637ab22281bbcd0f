package aggregation

import "github.com/areascope/areascope/internal/domain/record"

const (
	// confidenceDecayPerSource is the per-source confidence penalty applied
	// when two or more records are merged.
	confidenceDecayPerSource = 0.05

	// confidenceFloor bounds the penalty: merging arbitrarily many sources
	// never discounts confidence below this value.
	confidenceFloor = 0.70
)

// AdjustmentFor returns the multiplicative confidence penalty for merging
// sourceCount records: 1.0 for a single source (no penalty), otherwise
// max(0.70, 1 − sourceCount·0.05).  The result is non-increasing in
// sourceCount and always within [0.70, 1.0].
func AdjustmentFor(sourceCount int) float64 {
	if sourceCount <= 1 {
		return 1.0
	}
	adj := 1.0 - float64(sourceCount)*confidenceDecayPerSource
	if adj < confidenceFloor {
		return confidenceFloor
	}
	return adj
}

// FinalConfidence derives the reported confidence for a selection: the mean of
// confidence_score across the records that carry one, multiplied by the
// adjustment.  When no selected record carries a confidence score the
// adjustment itself is returned, a documented fallback so the report always
// has a confidence to disclose.
func FinalConfidence(records []*record.LocatedRecord, adjustment float64) float64 {
	var total float64
	var n int
	for _, rec := range records {
		if v, ok := rec.NumericField(record.FieldConfidenceScore); ok {
			total += v
			n++
		}
	}
	if n == 0 {
		return adjustment
	}
	return (total / float64(n)) * adjustment
}
