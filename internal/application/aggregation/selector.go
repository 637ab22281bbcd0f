package aggregation

import (
	"github.com/areascope/areascope/internal/domain/record"
	"github.com/areascope/areascope/internal/domain/studyarea"
)

// maxSkippedIDSample caps how many malformed-record IDs a Selection retains;
// the count is always exact.
const maxSkippedIDSample = 20

// Selection is the outcome of spatial record selection: the records inside the
// study area plus accounting for the malformed records that were skipped.
type Selection struct {
	Records []*record.LocatedRecord

	// SkippedCount is the number of records that could not participate
	// (missing geometry or no numeric fields).  Skipping is a counted
	// warning, never a failure.
	SkippedCount int

	// SkippedIDs is a capped sample of the skipped record IDs, surfaced for
	// transparency in the aggregation metadata.
	SkippedIDs []string
}

// Select returns the subset of records whose location lies inside or on the
// boundary of the study area.  Point records use their point; centroid-proxy
// records use the stored centroid under the same binary containment test.
// A multi-part area matches a record if any part contains it.
//
// Select is pure: it validates the area, filters, and returns.  An empty input
// and an empty intersection both yield an empty Selection; turning that into a
// no-data outcome is the orchestrator's job.  The only error is a study area
// that fails validation (e.g., a detectably self-intersecting ring).
func Select(area *studyarea.StudyArea, records []*record.LocatedRecord) (*Selection, error) {
	if err := area.Validate(); err != nil {
		return nil, err
	}

	sel := &Selection{}
	for _, rec := range records {
		if !rec.Usable() {
			sel.SkippedCount++
			if len(sel.SkippedIDs) < maxSkippedIDSample {
				sel.SkippedIDs = append(sel.SkippedIDs, rec.ID)
			}
			continue
		}
		if area.Contains(rec.Location) {
			sel.Records = append(sel.Records, rec)
		}
	}
	return sel, nil
}
