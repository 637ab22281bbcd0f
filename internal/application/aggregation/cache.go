package aggregation

import (
	"context"
	"encoding/json"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/areascope/areascope/internal/domain/record"
	"github.com/areascope/areascope/internal/domain/studyarea"
	"github.com/areascope/areascope/internal/infrastructure/monitoring/logging"
	apperrors "github.com/areascope/areascope/pkg/errors"
)

// ResultCache is the outbound cache port.  Get reports found=false on a clean
// miss; an error means the backend itself failed and the caller should degrade
// to an uncached computation rather than fail the request.
type ResultCache interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeleteByPrefix(ctx context.Context, prefix string) error
}

// CacheMetricsRecorder counts cache effectiveness.  Hits, misses, and backend
// errors are tracked separately so a degraded cache is visible in monitoring
// instead of masquerading as a low hit rate.
type CacheMetricsRecorder interface {
	IncCacheHit()
	IncCacheMiss()
	IncCacheError()
}

type noopCacheMetrics struct{}

func (noopCacheMetrics) IncCacheHit()   {}
func (noopCacheMetrics) IncCacheMiss()  {}
func (noopCacheMetrics) IncCacheError() {}

// ComputationNotifier receives a notification for each cache-miss computation.
// Implementations must not block or fail the request; the kafka producer
// adapter, for example, logs and swallows publish errors.
type ComputationNotifier interface {
	AggregationComputed(ctx context.Context, datasetID, geometryFingerprint string, sourceCount int, method string)
}

// DefaultResultTTL bounds result staleness between dataset-update
// invalidations.
const DefaultResultTTL = 5 * time.Minute

// CachedAggregator memoizes aggregation outcomes per dataset version, study
// area, and field set.  Concurrent requests for the same key are coalesced
// into one computation; cache backend failures degrade to direct computation.
type CachedAggregator struct {
	repo     record.Repository
	inner    *Orchestrator
	cache    ResultCache
	ttl      time.Duration
	group    singleflight.Group
	logger   logging.Logger
	metrics  CacheMetricsRecorder
	notifier ComputationNotifier
}

// CachedOption configures a CachedAggregator.
type CachedOption func(*CachedAggregator)

// WithResultTTL overrides the cache entry lifetime.
func WithResultTTL(ttl time.Duration) CachedOption {
	return func(c *CachedAggregator) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithCacheMetrics wires a cache metrics recorder.
func WithCacheMetrics(m CacheMetricsRecorder) CachedOption {
	return func(c *CachedAggregator) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithComputationNotifier wires a notifier fired on each cache-miss
// computation.
func WithComputationNotifier(n ComputationNotifier) CachedOption {
	return func(c *CachedAggregator) {
		c.notifier = n
	}
}

// NewCachedAggregator wraps an orchestrator with repository access and result
// memoization.  cache may be nil, in which case every request computes.
func NewCachedAggregator(repo record.Repository, inner *Orchestrator, cache ResultCache, logger logging.Logger, opts ...CachedOption) *CachedAggregator {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	c := &CachedAggregator{
		repo:    repo,
		inner:   inner,
		cache:   cache,
		ttl:     DefaultResultTTL,
		logger:  logger.Named("aggregation.cache"),
		metrics: noopCacheMetrics{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Aggregate resolves the dataset version, consults the cache, and on a miss
// loads the candidate records and computes.  The key binds the dataset version
// so a reloaded dataset never serves stale results, and in-flight requests for
// the same key share one computation.
func (c *CachedAggregator) Aggregate(ctx context.Context, datasetID string, area *studyarea.StudyArea, requestedFields []string) (*Outcome, error) {
	if err := area.Validate(); err != nil {
		return nil, err
	}

	version, err := c.repo.DatasetVersion(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	key := CacheKey(datasetID, version, area.Fingerprint(), requestedFields)

	if c.cache != nil {
		data, found, err := c.cache.Get(ctx, key)
		if err != nil {
			c.metrics.IncCacheError()
			c.logger.Warn("cache read failed, computing uncached",
				logging.String("key", key), logging.Err(err))
		} else if found {
			var out Outcome
			if err := json.Unmarshal(data, &out); err == nil {
				c.metrics.IncCacheHit()
				return &out, nil
			}
			c.metrics.IncCacheError()
			c.logger.Warn("cache entry undecodable, recomputing", logging.String("key", key))
		} else {
			c.metrics.IncCacheMiss()
		}
	}

	// Coalesce concurrent misses.  The flight returns the serialized outcome
	// and each caller decodes its own copy, so shared results are never
	// mutated across requests.
	data, err, _ := c.group.Do(key, func() (interface{}, error) {
		return c.computeAndStore(ctx, datasetID, area, requestedFields, key)
	})
	if err != nil {
		return nil, err
	}

	var out Outcome
	if err := json.Unmarshal(data.([]byte), &out); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeSerialization, "decode aggregation outcome")
	}
	return &out, nil
}

func (c *CachedAggregator) computeAndStore(ctx context.Context, datasetID string, area *studyarea.StudyArea, requestedFields []string, key string) ([]byte, error) {
	records, err := c.repo.ListByDatasetInBound(ctx, datasetID, area.Bound())
	if err != nil {
		return nil, err
	}

	outcome, err := c.inner.Aggregate(ctx, area, records, requestedFields)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(outcome)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeSerialization, "encode aggregation outcome")
	}

	// A cancelled request must not write a potentially partial entry.
	if c.cache != nil && ctx.Err() == nil {
		if err := c.cache.Set(ctx, key, data, c.ttl); err != nil {
			c.metrics.IncCacheError()
			c.logger.Warn("cache write failed", logging.String("key", key), logging.Err(err))
		}
	}

	if c.notifier != nil {
		sourceCount, method := 0, ""
		if outcome.Result != nil {
			sourceCount = outcome.Result.Info.SourceCount
			method = outcome.Result.Info.Method
		}
		c.notifier.AggregationComputed(ctx, datasetID, area.Fingerprint(), sourceCount, method)
	}
	return data, nil
}

// InvalidateDataset drops every cached result of a dataset.  Called when a
// dataset-updated event arrives; version-bound keys make this belt and braces
// rather than the sole staleness defense.
func (c *CachedAggregator) InvalidateDataset(ctx context.Context, datasetID string) error {
	if c.cache == nil {
		return nil
	}
	if err := c.cache.DeleteByPrefix(ctx, DatasetKeyPrefix(datasetID)); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeCacheError, "invalidate dataset cache")
	}
	c.logger.Info("dataset cache invalidated", logging.String("dataset_id", datasetID))
	return nil
}
