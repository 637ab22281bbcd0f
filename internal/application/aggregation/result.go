package aggregation

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/areascope/areascope/internal/domain/record"
)

// Aggregation method labels disclosed in AggregationInfo.
const (
	MethodSingleSource = "single_source"
	MethodMultiSource  = "multi_source"
)

// Outcome statuses.
const (
	StatusOK     = "ok"
	StatusNoData = "no_data"
)

// AggregationInfo is the mandatory metadata attached to every aggregation
// result.  Downstream consumers disclose how many sources were merged and
// what confidence discount was applied; omitting it would overstate certainty.
type AggregationInfo struct {
	SourceCount          int     `json:"source_count"`
	Method               string  `json:"aggregation_method"`
	TotalPopulation      float64 `json:"total_population"`
	ConfidenceAdjustment float64 `json:"confidence_adjustment"`

	// FieldMethods maps each aggregated field to the strategy that produced
	// it, e.g. "median_income" → "weighted_average".
	FieldMethods map[string]string `json:"field_methods,omitempty"`

	// UndefinedFields lists requested fields whose aggregate was undefined
	// (every selected record missed them).  They are disclosed rather than
	// reported as zero.
	UndefinedFields []string `json:"undefined_fields,omitempty"`

	// SkippedRecords counts malformed records excluded from selection;
	// SkippedRecordIDs is a capped sample for transparency.
	SkippedRecords   int      `json:"skipped_records,omitempty"`
	SkippedRecordIDs []string `json:"skipped_record_ids,omitempty"`
}

// AggregationResult is the synthesized report for one study area.
type AggregationResult struct {
	Fields             map[string]float64         `json:"fields"`
	Info               AggregationInfo            `json:"aggregation_info"`
	FeatureImportances []record.FeatureImportance `json:"feature_importances,omitempty"`
	ConfidenceScore    float64                    `json:"confidence_score"`
}

// Outcome is the union of the two valid results of an aggregation request.
// A no-data outcome (zero records intersect the area) is not an error and is
// distinct from a zero-valued aggregate; Result is nil exactly when Status is
// StatusNoData.
type Outcome struct {
	Status string             `json:"status"`
	Result *AggregationResult `json:"result,omitempty"`
}

// NoData reports whether the outcome carries no aggregate.
func (o *Outcome) NoData() bool {
	return o.Status == StatusNoData
}

// NoDataOutcome is the canonical empty-selection outcome.
func NoDataOutcome() *Outcome {
	return &Outcome{Status: StatusNoData}
}

// CacheKey derives the stable cache key for an aggregation request from the
// dataset identity and version, the study-area fingerprint, and the requested
// fields.  Fields are de-duplicated and sorted so that logically identical
// requests share a key regardless of field order.
func CacheKey(datasetID, datasetVersion, geometryFingerprint string, fields []string) string {
	uniq := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		uniq[f] = struct{}{}
	}
	sorted := make([]string, 0, len(uniq))
	for f := range uniq {
		sorted = append(sorted, f)
	}
	sort.Strings(sorted)

	h := sha256.New()
	h.Write([]byte(datasetID))
	h.Write([]byte{0})
	h.Write([]byte(datasetVersion))
	h.Write([]byte{0})
	h.Write([]byte(geometryFingerprint))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(sorted, ",")))
	return "agg:" + datasetID + ":" + hex.EncodeToString(h.Sum(nil))
}

// DatasetKeyPrefix returns the cache-key prefix shared by every cached result
// of a dataset, used for prefix invalidation when the dataset is reloaded.
func DatasetKeyPrefix(datasetID string) string {
	return "agg:" + datasetID + ":"
}
