// Package repositories contains the PostgreSQL implementations of the domain
// repository ports.
package repositories

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/paulmach/orb"

	"github.com/areascope/areascope/internal/domain/record"
	"github.com/areascope/areascope/internal/infrastructure/monitoring/logging"
	"github.com/areascope/areascope/pkg/errors"
)

// RecordRepository reads located analysis records from PostgreSQL.  The
// upstream scoring pipeline owns the tables; this side only queries.
type RecordRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewRecordRepository builds the repository on an established pool.
func NewRecordRepository(pool *pgxpool.Pool, log logging.Logger) *RecordRepository {
	return &RecordRepository{
		pool:   pool,
		logger: log.Named("record_repo"),
	}
}

const recordColumns = `id, lon, lat, geometry_kind, fields, feature_importances`

// ListByDataset returns every located record of a dataset.
func (r *RecordRepository) ListByDataset(ctx context.Context, datasetID string) ([]*record.LocatedRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+recordColumns+` FROM analysis_records WHERE dataset_id = $1`,
		datasetID,
	)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "query analysis records")
	}
	defer rows.Close()
	return r.scanRecords(rows)
}

// ListByDatasetInBound returns the records of a dataset whose stored location
// falls inside bound.  This is the coarse prefilter backing exact containment;
// the composite index on (dataset_id, lon, lat) keeps it cheap.
func (r *RecordRepository) ListByDatasetInBound(ctx context.Context, datasetID string, bound orb.Bound) ([]*record.LocatedRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+recordColumns+`
		   FROM analysis_records
		  WHERE dataset_id = $1
		    AND lon BETWEEN $2 AND $3
		    AND lat BETWEEN $4 AND $5`,
		datasetID, bound.Min[0], bound.Max[0], bound.Min[1], bound.Max[1],
	)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "query analysis records in bound")
	}
	defer rows.Close()
	return r.scanRecords(rows)
}

// DatasetVersion returns the opaque version tag of a dataset.
func (r *RecordRepository) DatasetVersion(ctx context.Context, datasetID string) (string, error) {
	var version string
	err := r.pool.QueryRow(ctx,
		`SELECT version FROM datasets WHERE id = $1`,
		datasetID,
	).Scan(&version)
	if err == pgx.ErrNoRows {
		return "", errors.Newf(errors.ErrCodeDatasetNotFound, "dataset %q not found", datasetID)
	}
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeDatabaseError, "query dataset version")
	}
	return version, nil
}

func (r *RecordRepository) scanRecords(rows pgx.Rows) ([]*record.LocatedRecord, error) {
	var out []*record.LocatedRecord
	for rows.Next() {
		var (
			id         string
			lon, lat   float64
			kind       string
			fieldsRaw  []byte
			importsRaw []byte
		)
		if err := rows.Scan(&id, &lon, &lat, &kind, &fieldsRaw, &importsRaw); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "scan analysis record")
		}

		rec := &record.LocatedRecord{
			ID:       id,
			Location: orb.Point{lon, lat},
			Kind:     record.GeometryKind(kind),
		}
		if len(fieldsRaw) > 0 {
			if err := json.Unmarshal(fieldsRaw, &rec.Fields); err != nil {
				// A record with undecodable fields is returned bare; the
				// selector will skip it with a counted warning.
				r.logger.Warn("undecodable record fields",
					logging.String("record_id", id), logging.Err(err))
			}
		}
		if len(importsRaw) > 0 {
			if err := json.Unmarshal(importsRaw, &rec.Importances); err != nil {
				r.logger.Warn("undecodable feature importances",
					logging.String("record_id", id), logging.Err(err))
				rec.Importances = nil
			}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "iterate analysis records")
	}
	return out, nil
}
