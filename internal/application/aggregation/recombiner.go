package aggregation

import (
	"sort"

	"github.com/areascope/areascope/internal/domain/record"
)

// Recombine merges the ranked feature-importance lists of multiple records
// into one re-ranked list over the union of feature names.
//
// For each feature the importance is the arithmetic mean over only the lists
// that contain it: absence is exclusion, not an implicit zero, so a feature
// that is highly important in two tracts is not diluted by ten tracts whose
// models never surfaced it.  The merged set is sorted descending by mean
// importance with ties broken ascending by name, making the output a
// deterministic total order independent of input list order.  Ranks are
// re-assigned 1-based; each feature appears exactly once.
//
// The full merged set is returned.  Truncating to a top-N summary is the
// report renderer's concern, not the engine's.
func Recombine(lists [][]record.FeatureImportance) []record.FeatureImportance {
	type group struct {
		total float64
		count int
	}
	groups := make(map[string]*group)
	for _, list := range lists {
		for _, fi := range list {
			g, ok := groups[fi.FeatureName]
			if !ok {
				g = &group{}
				groups[fi.FeatureName] = g
			}
			g.total += fi.Importance
			g.count++
		}
	}
	if len(groups) == 0 {
		return nil
	}

	merged := make([]record.FeatureImportance, 0, len(groups))
	for name, g := range groups {
		merged = append(merged, record.FeatureImportance{
			FeatureName: name,
			Importance:  g.total / float64(g.count),
		})
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Importance != merged[j].Importance {
			return merged[i].Importance > merged[j].Importance
		}
		return merged[i].FeatureName < merged[j].FeatureName
	})
	for i := range merged {
		merged[i].Rank = i + 1
	}
	return merged
}
