package record

import (
	"context"

	"github.com/paulmach/orb"
)

// Repository is the read-only port to the external per-location analysis
// store.  Implementations live in internal/infrastructure/database.
type Repository interface {
	// ListByDataset returns all located records belonging to a dataset.
	ListByDataset(ctx context.Context, datasetID string) ([]*LocatedRecord, error)

	// ListByDatasetInBound returns the records of a dataset whose location
	// falls inside bound.  It is a coarse prefilter: the caller still runs the
	// exact containment test against the study area.
	ListByDatasetInBound(ctx context.Context, datasetID string, bound orb.Bound) ([]*LocatedRecord, error)

	// DatasetVersion returns the opaque version tag of a dataset.  The version
	// changes whenever the upstream pipeline reloads the dataset, which makes
	// previously cached aggregation results unreachable.
	DatasetVersion(ctx context.Context, datasetID string) (string, error)
}
