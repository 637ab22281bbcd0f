package studyarea

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/areascope/areascope/pkg/errors"
)

func square(minX, minY, maxX, maxY float64) orb.Polygon {
	return orb.Polygon{orb.Ring{
		{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY}, {minX, minY},
	}}
}

func TestParseGeoJSONPolygon(t *testing.T) {
	data := []byte(`{"type":"Polygon","coordinates":[[[0,0],[10,0],[10,10],[0,10],[0,0]]]}`)
	area, err := ParseGeoJSON(data)
	require.NoError(t, err)
	assert.Equal(t, 1, area.Parts())
	require.NoError(t, area.Validate())
}

func TestParseGeoJSONMultiPolygon(t *testing.T) {
	data := []byte(`{"type":"MultiPolygon","coordinates":[
		[[[0,0],[5,0],[5,5],[0,5],[0,0]]],
		[[[10,10],[15,10],[15,15],[10,15],[10,10]]]
	]}`)
	area, err := ParseGeoJSON(data)
	require.NoError(t, err)
	assert.Equal(t, 2, area.Parts())
}

func TestParseGeoJSONFeature(t *testing.T) {
	data := []byte(`{"type":"Feature","properties":{"name":"downtown"},
		"geometry":{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,1],[0,0]]]}}`)
	area, err := ParseGeoJSON(data)
	require.NoError(t, err)
	assert.Equal(t, 1, area.Parts())
}

func TestParseGeoJSONRejectsPoint(t *testing.T) {
	_, err := ParseGeoJSON([]byte(`{"type":"Point","coordinates":[1,2]}`))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeGeometryUnsupported))
}

func TestParseGeoJSONRejectsGarbage(t *testing.T) {
	_, err := ParseGeoJSON([]byte(`{"not":"geojson"}`))
	require.Error(t, err)
}

func TestValidateEmptyArea(t *testing.T) {
	err := New(orb.MultiPolygon{}).Validate()
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeGeometryEmpty))
}

func TestValidateOpenRing(t *testing.T) {
	open := orb.Polygon{orb.Ring{{0, 0}, {1, 0}, {1, 1}, {0, 1}}} // not closed
	err := New(orb.MultiPolygon{open}).Validate()
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeGeometryInvalid))
}

func TestValidateSelfIntersectingBowtie(t *testing.T) {
	// Classic bowtie: edges (0,0)-(10,10) and (10,0)-(0,10) cross at (5,5).
	bowtie := orb.Polygon{orb.Ring{{0, 0}, {10, 10}, {10, 0}, {0, 10}, {0, 0}}}
	err := New(orb.MultiPolygon{bowtie}).Validate()
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeGeometryInvalid))
}

func TestValidateSimpleSquarePasses(t *testing.T) {
	require.NoError(t, New(orb.MultiPolygon{square(0, 0, 10, 10)}).Validate())
}

func TestContainsInteriorAndExterior(t *testing.T) {
	area := New(orb.MultiPolygon{square(0, 0, 10, 10)})
	assert.True(t, area.Contains(orb.Point{5, 5}))
	assert.False(t, area.Contains(orb.Point{15, 5}))
	assert.False(t, area.Contains(orb.Point{-0.001, 5}))
}

func TestContainsIsBoundaryInclusive(t *testing.T) {
	area := New(orb.MultiPolygon{square(0, 0, 10, 10)})
	assert.True(t, area.Contains(orb.Point{0, 5}), "edge point")
	assert.True(t, area.Contains(orb.Point{10, 10}), "corner point")
	assert.True(t, area.Contains(orb.Point{5, 0}), "bottom edge")
}

func TestContainsAnyPartOfMultiPolygon(t *testing.T) {
	area := New(orb.MultiPolygon{square(0, 0, 5, 5), square(20, 20, 30, 30)})
	assert.True(t, area.Contains(orb.Point{2, 2}))
	assert.True(t, area.Contains(orb.Point{25, 25}))
	assert.False(t, area.Contains(orb.Point{10, 10}))
}

func TestContainsRespectsHoles(t *testing.T) {
	withHole := orb.Polygon{
		orb.Ring{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}},
		orb.Ring{{4, 4}, {6, 4}, {6, 6}, {4, 6}, {4, 4}},
	}
	area := New(orb.MultiPolygon{withHole})
	assert.False(t, area.Contains(orb.Point{5, 5}), "inside the hole")
	assert.True(t, area.Contains(orb.Point{2, 2}), "between outer ring and hole")
	assert.True(t, area.Contains(orb.Point{4, 5}), "on the hole boundary")
}

func TestFingerprintStability(t *testing.T) {
	a := New(orb.MultiPolygon{square(0, 0, 10, 10)})
	b := New(orb.MultiPolygon{square(0, 0, 10, 10)})
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	c := New(orb.MultiPolygon{square(0, 0, 10, 11)})
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}

func TestFingerprintDistinguishesPartOrder(t *testing.T) {
	ab := New(orb.MultiPolygon{square(0, 0, 5, 5), square(20, 20, 30, 30)})
	ba := New(orb.MultiPolygon{square(20, 20, 30, 30), square(0, 0, 5, 5)})
	assert.NotEqual(t, ab.Fingerprint(), ba.Fingerprint())
}

func TestBoundCoversAllParts(t *testing.T) {
	area := New(orb.MultiPolygon{square(0, 0, 5, 5), square(20, 20, 30, 30)})
	b := area.Bound()
	assert.Equal(t, 0.0, b.Min[0])
	assert.Equal(t, 30.0, b.Max[0])
}
