package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the paper finder service.
// Metrics are organized by subsystem: searches, sources, dedup, ranking,
// cache, and HTTP. All counters and histograms are registered via promauto
// for automatic registration with the default Prometheus registry.
type Metrics struct {
	// SearchesTotal counts pipeline searches, labeled by mode and status
	// (ok, degraded, failed).
	SearchesTotal *prometheus.CounterVec

	// SearchDuration observes end-to-end pipeline duration in seconds by mode.
	SearchDuration *prometheus.HistogramVec

	// SearchResults observes the distribution of result counts per search.
	SearchResults prometheus.Histogram

	// SearchCandidates observes the merged candidate pool size per search.
	SearchCandidates prometheus.Histogram

	// SourceRequestsTotal counts HTTP requests to provider APIs, labeled by source and endpoint.
	SourceRequestsTotal *prometheus.CounterVec

	// SourceRequestsFailed counts failed provider requests, labeled by source, endpoint, and error type.
	SourceRequestsFailed *prometheus.CounterVec

	// SourceRequestDuration observes provider request duration in seconds.
	SourceRequestDuration *prometheus.HistogramVec

	// SourceRateLimited counts rate limit responses from providers.
	SourceRateLimited *prometheus.CounterVec

	// SourceYield observes the number of records one provider contributed per search.
	SourceYield *prometheus.HistogramVec

	// RecordsNormalized counts records that survived normalization, by source.
	RecordsNormalized *prometheus.CounterVec

	// RecordsDropped counts records dropped during normalization, by source.
	RecordsDropped *prometheus.CounterVec

	// PapersMerged counts raw records folded into an existing cluster
	// during deduplication.
	PapersMerged prometheus.Counter

	// ClustersFormed observes the number of canonical papers produced per search.
	ClustersFormed prometheus.Histogram

	// StageDuration observes per-stage pipeline duration in seconds, labeled
	// by stage (aggregate, normalize, dedup, prefilter, rank, diversity).
	StageDuration *prometheus.HistogramVec

	// CacheHits counts cache hits, labeled by cache (search, paper).
	CacheHits *prometheus.CounterVec

	// CacheMisses counts cache misses, labeled by cache.
	CacheMisses *prometheus.CounterVec

	// CacheShared counts callers that joined an in-flight computation
	// instead of starting their own, labeled by cache.
	CacheShared *prometheus.CounterVec

	// CacheEvictions counts TTL evictions, labeled by cache.
	CacheEvictions *prometheus.CounterVec

	// HTTPRequestDuration observes inbound HTTP request duration in seconds,
	// labeled by method, route, and status code.
	HTTPRequestDuration *prometheus.HistogramVec

	// AnalyticsEventsTotal counts emitted analytics events by status (sent, dropped, failed).
	AnalyticsEventsTotal *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		// Searches
		SearchesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Total number of pipeline searches by mode and status",
		}, []string{"mode", "status"}),
		SearchDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "End-to-end search pipeline duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"mode"}),
		SearchResults: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_results",
			Help:      "Number of results returned per search",
			Buckets:   []float64{0, 1, 5, 10, 20, 50, 100},
		}),
		SearchCandidates: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_candidates",
			Help:      "Merged candidate pool size per search",
			Buckets:   []float64{0, 10, 25, 50, 100, 200, 500, 1000},
		}),

		// Sources
		SourceRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_requests_total",
			Help:      "Total number of requests to paper sources",
		}, []string{"source", "endpoint"}),
		SourceRequestsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_requests_failed_total",
			Help:      "Total number of failed requests to paper sources",
		}, []string{"source", "endpoint", "error_type"}),
		SourceRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_request_duration_seconds",
			Help:      "Duration of requests to paper sources in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"source", "endpoint"}),
		SourceRateLimited: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_rate_limited_total",
			Help:      "Total number of rate limit responses from paper sources",
		}, []string{"source"}),
		SourceYield: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_yield",
			Help:      "Number of records contributed per source per search",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 200},
		}, []string{"source"}),

		// Normalization and dedup
		RecordsNormalized: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_normalized_total",
			Help:      "Total number of raw records normalized by source",
		}, []string{"source"}),
		RecordsDropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_dropped_total",
			Help:      "Total number of raw records dropped during normalization by source",
		}, []string{"source"}),
		PapersMerged: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "papers_merged_total",
			Help:      "Total number of raw records merged into an existing cluster",
		}),
		ClustersFormed: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "clusters_formed",
			Help:      "Number of canonical papers produced per search",
			Buckets:   []float64{0, 10, 25, 50, 100, 200, 500},
		}),
		StageDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual pipeline stages in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		}, []string{"stage"}),

		// Cache
		CacheHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits by cache",
		}, []string{"cache"}),
		CacheMisses: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses by cache",
		}, []string{"cache"}),
		CacheShared: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_shared_total",
			Help:      "Total number of callers that shared an in-flight computation",
		}, []string{"cache"}),
		CacheEvictions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_evictions_total",
			Help:      "Total number of TTL evictions by cache",
		}, []string{"cache"}),

		// HTTP
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of inbound HTTP requests in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method", "route", "status"}),

		// Analytics
		AnalyticsEventsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analytics_events_total",
			Help:      "Total number of analytics events by status",
		}, []string{"status"}),
	}
}

// RecordSearch records one completed pipeline search.
func (m *Metrics) RecordSearch(mode, status string, resultCount, candidates int, durationSeconds float64) {
	m.SearchesTotal.WithLabelValues(mode, status).Inc()
	m.SearchDuration.WithLabelValues(mode).Observe(durationSeconds)
	m.SearchResults.Observe(float64(resultCount))
	m.SearchCandidates.Observe(float64(candidates))
}

// RecordSourceRequest records a request to a paper source.
func (m *Metrics) RecordSourceRequest(source, endpoint string, durationSeconds float64) {
	m.SourceRequestsTotal.WithLabelValues(source, endpoint).Inc()
	m.SourceRequestDuration.WithLabelValues(source, endpoint).Observe(durationSeconds)
}

// RecordSourceRequestFailed records a failed request to a paper source.
func (m *Metrics) RecordSourceRequestFailed(source, endpoint, errorType string) {
	m.SourceRequestsFailed.WithLabelValues(source, endpoint, errorType).Inc()
}

// RecordSourceRateLimited records a rate limit response from a source.
func (m *Metrics) RecordSourceRateLimited(source string) {
	m.SourceRateLimited.WithLabelValues(source).Inc()
}

// RecordSourceYield records how many records a source contributed to one search.
func (m *Metrics) RecordSourceYield(source string, count int) {
	m.SourceYield.WithLabelValues(source).Observe(float64(count))
}

// RecordNormalization records normalization results for one source.
func (m *Metrics) RecordNormalization(source string, kept, dropped int) {
	m.RecordsNormalized.WithLabelValues(source).Add(float64(kept))
	if dropped > 0 {
		m.RecordsDropped.WithLabelValues(source).Add(float64(dropped))
	}
}

// RecordDedup records deduplication results for one search.
func (m *Metrics) RecordDedup(inputRecords, clusters int) {
	if merged := inputRecords - clusters; merged > 0 {
		m.PapersMerged.Add(float64(merged))
	}
	m.ClustersFormed.Observe(float64(clusters))
}

// RecordStage records the duration of one pipeline stage.
func (m *Metrics) RecordStage(stage string, durationSeconds float64) {
	m.StageDuration.WithLabelValues(stage).Observe(durationSeconds)
}

// RecordCacheHit records a cache hit.
func (m *Metrics) RecordCacheHit(cache string) {
	m.CacheHits.WithLabelValues(cache).Inc()
}

// RecordCacheMiss records a cache miss.
func (m *Metrics) RecordCacheMiss(cache string) {
	m.CacheMisses.WithLabelValues(cache).Inc()
}

// RecordCacheShared records a caller that joined an in-flight computation.
func (m *Metrics) RecordCacheShared(cache string) {
	m.CacheShared.WithLabelValues(cache).Inc()
}

// RecordCacheEvictions records TTL evictions from a cache.
func (m *Metrics) RecordCacheEvictions(cache string, count int) {
	if count > 0 {
		m.CacheEvictions.WithLabelValues(cache).Add(float64(count))
	}
}

// RecordHTTPRequest records an inbound HTTP request.
func (m *Metrics) RecordHTTPRequest(method, route, status string, durationSeconds float64) {
	m.HTTPRequestDuration.WithLabelValues(method, route, status).Observe(durationSeconds)
}

// RecordAnalyticsEvent records the outcome of one analytics event emission.
func (m *Metrics) RecordAnalyticsEvent(status string) {
	m.AnalyticsEventsTotal.WithLabelValues(status).Inc()
}
