package aggregation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/areascope/areascope/internal/domain/record"
)

func fi(name string, importance float64, rank int) record.FeatureImportance {
	return record.FeatureImportance{FeatureName: name, Importance: importance, Rank: rank}
}

func TestRecombineMeansOnlyOverListsContainingFeature(t *testing.T) {
	lists := [][]record.FeatureImportance{
		{fi("income", 0.9, 1), fi("density", 0.5, 2)},
		{fi("income", 0.7, 1)},
		{fi("density", 0.3, 1), fi("transit", 0.2, 2)},
	}

	merged := Recombine(lists)
	require.Len(t, merged, 3)

	byName := make(map[string]record.FeatureImportance, len(merged))
	for _, f := range merged {
		byName[f.FeatureName] = f
	}
	// income appears in two lists: mean over those two, never diluted to /3.
	assert.InDelta(t, 0.8, byName["income"].Importance, 1e-9)
	assert.InDelta(t, 0.4, byName["density"].Importance, 1e-9)
	assert.InDelta(t, 0.2, byName["transit"].Importance, 1e-9)
}

func TestRecombineOrderAndRanks(t *testing.T) {
	lists := [][]record.FeatureImportance{
		{fi("b_feature", 0.5, 1), fi("a_feature", 0.5, 2), fi("top", 0.9, 3)},
	}

	merged := Recombine(lists)
	require.Len(t, merged, 3)

	assert.Equal(t, "top", merged[0].FeatureName)
	// Tie at 0.5 breaks ascending by name.
	assert.Equal(t, "a_feature", merged[1].FeatureName)
	assert.Equal(t, "b_feature", merged[2].FeatureName)

	for i, f := range merged {
		assert.Equal(t, i+1, f.Rank)
	}
}

func TestRecombineIndependentOfListOrder(t *testing.T) {
	a := []record.FeatureImportance{fi("income", 0.9, 1), fi("density", 0.4, 2)}
	b := []record.FeatureImportance{fi("transit", 0.6, 1), fi("income", 0.5, 2)}
	c := []record.FeatureImportance{fi("density", 0.8, 1)}

	forward := Recombine([][]record.FeatureImportance{a, b, c})
	reversed := Recombine([][]record.FeatureImportance{c, b, a})
	assert.Equal(t, forward, reversed)
}

func TestRecombineEachFeatureAppearsOnce(t *testing.T) {
	lists := [][]record.FeatureImportance{
		{fi("income", 0.9, 1)},
		{fi("income", 0.3, 1)},
		{fi("income", 0.6, 1)},
	}

	merged := Recombine(lists)
	require.Len(t, merged, 1)
	assert.InDelta(t, 0.6, merged[0].Importance, 1e-9)
	assert.Equal(t, 1, merged[0].Rank)
}

func TestRecombineEmpty(t *testing.T) {
	assert.Nil(t, Recombine(nil))
	assert.Nil(t, Recombine([][]record.FeatureImportance{{}, {}}))
}
