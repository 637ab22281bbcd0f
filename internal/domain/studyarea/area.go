// Package studyarea models the user-drawn geometry that bounds a spatial
// query: one or more simple polygons in a fixed coordinate reference system.
// A study area is ephemeral, created fresh per request from GeoJSON supplied
// by the map-drawing interface.
package studyarea

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"github.com/areascope/areascope/pkg/errors"
)

// maxValidatedVertices caps the O(n²) self-intersection sweep.  Rings larger
// than this skip the check; detection is documented as best-effort.
const maxValidatedVertices = 2500

// fingerprintPrecision is the coordinate quantum used when fingerprinting,
// 1e-9 degrees (~0.1mm), well below any drawing tool's resolution.
const fingerprintPrecision = 1e9

// StudyArea is a validated multi-part study-area geometry.
type StudyArea struct {
	parts orb.MultiPolygon
}

// New wraps an orb.MultiPolygon as a StudyArea.  Validation is deferred to
// Validate so callers can decide when to pay for it.
func New(parts orb.MultiPolygon) *StudyArea {
	return &StudyArea{parts: parts}
}

// ParseGeoJSON decodes a GeoJSON geometry, feature, or feature collection into
// a StudyArea.  Accepted geometry types are Polygon and MultiPolygon; feature
// collections contribute one part per polygon feature.
func ParseGeoJSON(data []byte) (*StudyArea, error) {
	if g, err := geojson.UnmarshalGeometry(data); err == nil {
		return fromOrbGeometry(g.Geometry())
	}
	if f, err := geojson.UnmarshalFeature(data); err == nil {
		return fromOrbGeometry(f.Geometry)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeGeometryParseFailed, "not a GeoJSON geometry, feature, or feature collection")
	}
	var parts orb.MultiPolygon
	for _, f := range fc.Features {
		area, convErr := fromOrbGeometry(f.Geometry)
		if convErr != nil {
			return nil, convErr
		}
		parts = append(parts, area.parts...)
	}
	if len(parts) == 0 {
		return nil, errors.New(errors.ErrCodeGeometryEmpty, "feature collection contains no polygons")
	}
	return New(parts), nil
}

func fromOrbGeometry(g orb.Geometry) (*StudyArea, error) {
	switch geom := g.(type) {
	case orb.Polygon:
		return New(orb.MultiPolygon{geom}), nil
	case orb.MultiPolygon:
		if len(geom) == 0 {
			return nil, errors.New(errors.ErrCodeGeometryEmpty, "multipolygon has no parts")
		}
		return New(geom), nil
	default:
		return nil, errors.Newf(errors.ErrCodeGeometryUnsupported, "unsupported geometry type %T, want Polygon or MultiPolygon", g)
	}
}

// Parts returns the number of polygon parts.
func (a *StudyArea) Parts() int {
	return len(a.parts)
}

// Bound returns the bounding box enclosing all parts, used as a coarse store
// prefilter before the exact containment test.
func (a *StudyArea) Bound() orb.Bound {
	return a.parts.Bound()
}

// Validate checks that the study area is usable: non-empty, closed rings with
// at least three distinct vertices, and no detectable self-intersection.
// The self-intersection sweep is best-effort: it is O(n²) per ring and skipped
// for rings above maxValidatedVertices.
func (a *StudyArea) Validate() error {
	if len(a.parts) == 0 {
		return errors.New(errors.ErrCodeGeometryEmpty, "study area has no polygon parts")
	}
	for pi, poly := range a.parts {
		if len(poly) == 0 {
			return errors.Newf(errors.ErrCodeGeometryEmpty, "part %d has no rings", pi)
		}
		for ri, ring := range poly {
			if len(ring) < 4 || !ring.Closed() {
				return errors.Newf(errors.ErrCodeGeometryInvalid, "part %d ring %d is not a closed ring", pi, ri)
			}
			if len(ring) <= maxValidatedVertices && ringSelfIntersects(ring) {
				return errors.Newf(errors.ErrCodeGeometryInvalid, "part %d ring %d is self-intersecting", pi, ri)
			}
		}
	}
	return nil
}

// Contains reports whether p lies inside or on the boundary of any part.
// The test is boundary-inclusive: a point exactly on a ring edge counts as
// contained even when the underlying ray cast would exclude it.
func (a *StudyArea) Contains(p orb.Point) bool {
	for _, poly := range a.parts {
		if len(poly) == 0 {
			continue
		}
		if pointOnRing(poly[0], p) {
			return true
		}
		if planar.PolygonContains(poly, p) {
			// Points sitting exactly on a hole boundary still count as inside.
			return true
		}
		for _, hole := range poly[1:] {
			if pointOnRing(hole, p) {
				return true
			}
		}
	}
	return false
}

// Fingerprint returns a stable hex digest of the geometry, suitable as a cache
// key component.  Coordinates are quantized so that byte-identical inputs and
// float round-trips through JSON fingerprint identically.
func (a *StudyArea) Fingerprint() string {
	h := sha256.New()
	var buf [8]byte
	writeCoord := func(v float64) {
		binary.BigEndian.PutUint64(buf[:], uint64(int64(math.Round(v*fingerprintPrecision))))
		h.Write(buf[:])
	}
	for _, poly := range a.parts {
		for _, ring := range poly {
			for _, pt := range ring {
				writeCoord(pt[0])
				writeCoord(pt[1])
			}
			h.Write([]byte{0xFF}) // ring separator
		}
		h.Write([]byte{0xFE}) // part separator
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ── geometry primitives ──────────────────────────────────────────────────────

const onSegmentEpsilon = 1e-12

// pointOnRing reports whether p lies on any segment of ring.
func pointOnRing(ring orb.Ring, p orb.Point) bool {
	for i := 0; i+1 < len(ring); i++ {
		if pointOnSegment(ring[i], ring[i+1], p) {
			return true
		}
	}
	return false
}

// pointOnSegment reports whether p lies on the closed segment ab.
func pointOnSegment(a, b, p orb.Point) bool {
	cross := (b[0]-a[0])*(p[1]-a[1]) - (b[1]-a[1])*(p[0]-a[0])
	if math.Abs(cross) > onSegmentEpsilon*math.Max(1, segLen2(a, b)) {
		return false
	}
	return p[0] >= math.Min(a[0], b[0])-onSegmentEpsilon &&
		p[0] <= math.Max(a[0], b[0])+onSegmentEpsilon &&
		p[1] >= math.Min(a[1], b[1])-onSegmentEpsilon &&
		p[1] <= math.Max(a[1], b[1])+onSegmentEpsilon
}

func segLen2(a, b orb.Point) float64 {
	dx, dy := b[0]-a[0], b[1]-a[1]
	return dx*dx + dy*dy
}

// ringSelfIntersects reports whether any two non-adjacent segments of a closed
// ring properly cross.  Adjacent segments share an endpoint and are skipped;
// the first and last segments of a closed ring are adjacent too.
func ringSelfIntersects(ring orb.Ring) bool {
	n := len(ring) - 1 // segment count for a closed ring
	for i := 0; i < n; i++ {
		for j := i + 2; j < n; j++ {
			if i == 0 && j == n-1 {
				continue // wrap-around adjacency
			}
			if segmentsCross(ring[i], ring[i+1], ring[j], ring[j+1]) {
				return true
			}
		}
	}
	return false
}

// segmentsCross reports whether segments pq and rs properly intersect.
func segmentsCross(p, q, r, s orb.Point) bool {
	d1 := orientation(r, s, p)
	d2 := orientation(r, s, q)
	d3 := orientation(p, q, r)
	d4 := orientation(p, q, s)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	// Collinear overlap also makes the ring non-simple.
	if d1 == 0 && pointOnSegment(r, s, p) {
		return true
	}
	if d2 == 0 && pointOnSegment(r, s, q) {
		return true
	}
	if d3 == 0 && pointOnSegment(p, q, r) {
		return true
	}
	if d4 == 0 && pointOnSegment(p, q, s) {
		return true
	}
	return false
}

func orientation(a, b, c orb.Point) float64 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}
