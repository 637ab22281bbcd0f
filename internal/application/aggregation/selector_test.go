package aggregation

import (
	"fmt"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/areascope/areascope/internal/domain/record"
	"github.com/areascope/areascope/internal/domain/studyarea"
	apperrors "github.com/areascope/areascope/pkg/errors"
)

func squareArea(minX, minY, maxX, maxY float64) *studyarea.StudyArea {
	return studyarea.New(orb.MultiPolygon{{
		{{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY}, {minX, minY}},
	}})
}

func newEmptyArea() *studyarea.StudyArea {
	return studyarea.New(orb.MultiPolygon{})
}

func TestSelectFiltersByContainment(t *testing.T) {
	area := squareArea(0, 0, 10, 10)
	records := []*record.LocatedRecord{
		newRecord("inside", 5, 5, map[string]interface{}{"strategic_score": 1.0}),
		newRecord("outside", 20, 20, map[string]interface{}{"strategic_score": 1.0}),
		newRecord("on-edge", 10, 5, map[string]interface{}{"strategic_score": 1.0}),
		newRecord("on-corner", 0, 0, map[string]interface{}{"strategic_score": 1.0}),
	}

	sel, err := Select(area, records)
	require.NoError(t, err)
	require.Len(t, sel.Records, 3)

	ids := []string{sel.Records[0].ID, sel.Records[1].ID, sel.Records[2].ID}
	assert.ElementsMatch(t, []string{"inside", "on-edge", "on-corner"}, ids)
	assert.Zero(t, sel.SkippedCount)
}

func TestSelectSkipsUnusableRecords(t *testing.T) {
	area := squareArea(0, 0, 10, 10)
	noFields := newRecord("no-fields", 5, 5, map[string]interface{}{})
	nonNumeric := newRecord("non-numeric", 5, 5, map[string]interface{}{"strategic_score": "high"})
	noGeometry := newRecord("no-geom", 5, 5, map[string]interface{}{"strategic_score": 1.0})
	noGeometry.Kind = ""

	sel, err := Select(area, []*record.LocatedRecord{
		newRecord("good", 5, 5, map[string]interface{}{"strategic_score": 1.0}),
		noFields,
		nonNumeric,
		noGeometry,
	})
	require.NoError(t, err)
	require.Len(t, sel.Records, 1)
	assert.Equal(t, "good", sel.Records[0].ID)
	assert.Equal(t, 3, sel.SkippedCount)
	assert.ElementsMatch(t, []string{"no-fields", "non-numeric", "no-geom"}, sel.SkippedIDs)
}

func TestSelectCapsSkippedIDSample(t *testing.T) {
	area := squareArea(0, 0, 10, 10)
	var records []*record.LocatedRecord
	for i := 0; i < maxSkippedIDSample+15; i++ {
		records = append(records, newRecord(fmt.Sprintf("bad-%d", i), 5, 5, nil))
	}

	sel, err := Select(area, records)
	require.NoError(t, err)
	assert.Equal(t, maxSkippedIDSample+15, sel.SkippedCount)
	assert.Len(t, sel.SkippedIDs, maxSkippedIDSample)
}

func TestSelectRejectsInvalidArea(t *testing.T) {
	// Bowtie: edges cross, the ring self-intersects.
	bowtie := studyarea.New(orb.MultiPolygon{{
		{{0, 0}, {10, 10}, {10, 0}, {0, 10}, {0, 0}},
	}})

	_, err := Select(bowtie, []*record.LocatedRecord{
		newRecord("a", 5, 5, map[string]interface{}{"strategic_score": 1.0}),
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeGeometryInvalid, apperrors.GetCode(err))
}

func TestSelectEmptyInput(t *testing.T) {
	sel, err := Select(squareArea(0, 0, 1, 1), nil)
	require.NoError(t, err)
	assert.Empty(t, sel.Records)
	assert.Zero(t, sel.SkippedCount)
}

func TestSelectMultiPartArea(t *testing.T) {
	area := studyarea.New(orb.MultiPolygon{
		{{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}},
		{{{5, 5}, {6, 5}, {6, 6}, {5, 6}, {5, 5}}},
	})
	records := []*record.LocatedRecord{
		newRecord("in-first", 0.5, 0.5, map[string]interface{}{"strategic_score": 1.0}),
		newRecord("in-second", 5.5, 5.5, map[string]interface{}{"strategic_score": 1.0}),
		newRecord("between", 3, 3, map[string]interface{}{"strategic_score": 1.0}),
	}

	sel, err := Select(area, records)
	require.NoError(t, err)
	require.Len(t, sel.Records, 2)
}
