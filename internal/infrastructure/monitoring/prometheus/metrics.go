package prometheus

import (
	"strconv"
	"time"
)

// AppMetrics holds the engine's metric bundles.
type AppMetrics struct {
	// HTTP layer
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	// Aggregation pipeline
	AggregationsTotal       CounterVec
	AggregationDuration     HistogramVec
	AggregationSourceCounts HistogramVec

	// Result cache
	CacheHitsTotal   CounterVec
	CacheMissesTotal CounterVec
	CacheErrorsTotal CounterVec

	// Infrastructure
	DBPoolAcquired    GaugeVec
	DBPoolTotal       GaugeVec
	HealthCheckStatus GaugeVec
	ErrorsTotal       CounterVec
}

var (
	DefaultHTTPDurationBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultSourceCountBuckets  = []float64{1, 2, 5, 10, 25, 50, 100, 250, 500}
)

// NewAppMetrics registers every metric bundle on the collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "Active HTTP requests", "method", "path")

	m.AggregationsTotal = collector.RegisterCounter("aggregations_total", "Aggregation runs by outcome status", "status")
	m.AggregationDuration = collector.RegisterHistogram("aggregation_duration_seconds", "Aggregation pipeline duration", DefaultHTTPDurationBuckets, "status")
	m.AggregationSourceCounts = collector.RegisterHistogram("aggregation_source_count", "Records merged per aggregation", DefaultSourceCountBuckets, "status")

	m.CacheHitsTotal = collector.RegisterCounter("cache_hits_total", "Result cache hits", "cache")
	m.CacheMissesTotal = collector.RegisterCounter("cache_misses_total", "Result cache misses", "cache")
	m.CacheErrorsTotal = collector.RegisterCounter("cache_errors_total", "Result cache backend errors", "cache")

	m.DBPoolAcquired = collector.RegisterGauge("db_pool_acquired", "Acquired database connections", "db")
	m.DBPoolTotal = collector.RegisterGauge("db_pool_total", "Total database connections", "db")
	m.HealthCheckStatus = collector.RegisterGauge("health_check_status", "Health check status (1=up, 0=down)", "component")
	m.ErrorsTotal = collector.RegisterCounter("errors_total", "Total errors by component", "component", "code")

	return m
}

// ObserveHTTPRequest records one completed HTTP request.
func (m *AppMetrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// SetHealthStatus records a readiness probe result for one component.
func (m *AppMetrics) SetHealthStatus(component string, healthy bool) {
	v := 0.0
	if healthy {
		v = 1.0
	}
	m.HealthCheckStatus.WithLabelValues(component).Set(v)
}

// AggregationRecorder adapts AppMetrics to the orchestrator's metrics port.
type AggregationRecorder struct {
	metrics *AppMetrics
}

func NewAggregationRecorder(m *AppMetrics) *AggregationRecorder {
	return &AggregationRecorder{metrics: m}
}

func (r *AggregationRecorder) ObserveAggregation(status string, sourceCount int, duration time.Duration) {
	r.metrics.AggregationsTotal.WithLabelValues(status).Inc()
	r.metrics.AggregationDuration.WithLabelValues(status).Observe(duration.Seconds())
	r.metrics.AggregationSourceCounts.WithLabelValues(status).Observe(float64(sourceCount))
}

// CacheRecorder adapts AppMetrics to the cached aggregator's metrics port.
type CacheRecorder struct {
	metrics *AppMetrics
	cache   string
}

func NewCacheRecorder(m *AppMetrics, cache string) *CacheRecorder {
	return &CacheRecorder{metrics: m, cache: cache}
}

func (r *CacheRecorder) IncCacheHit()   { r.metrics.CacheHitsTotal.WithLabelValues(r.cache).Inc() }
func (r *CacheRecorder) IncCacheMiss() { r.metrics.CacheMissesTotal.WithLabelValues(r.cache).Inc() }
func (r *CacheRecorder) IncCacheError() {
	r.metrics.CacheErrorsTotal.WithLabelValues(r.cache).Inc()
}
