// Package metrics provides Prometheus metrics for the ranking service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Oracle latency buckets in milliseconds.
var oracleBuckets = []float64{100, 250, 500, 1000, 2500, 5000, 10000, 20000, 40000, 80000}

// Manager manages all Prometheus metrics for the ranking service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Comparison Metrics - What really matters for the ranking engine
	comparisons        *prometheus.CounterVec
	comparisonDuration prometheus.Histogram
	replyShapes        *prometheus.CounterVec
	batchDecisions     *prometheus.CounterVec
	estimatedTokens    prometheus.Histogram
	degradedReplies    prometheus.Counter

	// Oracle Metrics - External call health
	oracleRequests *prometheus.CounterVec
	oracleLatency  prometheus.Histogram

	// Cache Metrics - Single-flight result cache
	cacheLookups   *prometheus.CounterVec
	cacheEntries   prometheus.Gauge
	cacheEvictions prometheus.Counter

	// Dataset Metrics
	datasetTeams        prometheus.Gauge
	datasetLoadDuration prometheus.Histogram

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error Metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "draftrank",
		subsystem:        "ranker",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	// Initialize metrics
	m.initializeMetrics()

	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	// Ensure metrics are registered on the configured registry (custom by default)
	auto := promauto.With(m.registry)

	// Comparison Metrics
	m.comparisons = auto.NewCounterVec(
		m.counterOpts("comparisons_total", "Total number of comparison requests by outcome"),
		[]string{"outcome"},
	)
	m.comparisonDuration = auto.NewHistogram(
		m.histogramOpts("comparison_duration_milliseconds", "End-to-end comparison duration in milliseconds", oracleBuckets),
	)
	m.replyShapes = auto.NewCounterVec(
		m.counterOpts("oracle_reply_shapes_total", "Decoded oracle replies by shape"),
		[]string{"shape"},
	)
	m.batchDecisions = auto.NewCounterVec(
		m.counterOpts("batch_decisions_total", "Processing plan decisions by source and mode"),
		[]string{"source", "mode"},
	)
	m.estimatedTokens = auto.NewHistogram(
		m.histogramOpts("estimated_prompt_tokens", "Estimated prompt size in tokens", prometheus.ExponentialBuckets(250, 2, 10)),
	)
	m.degradedReplies = auto.NewCounter(
		m.counterOpts("degraded_replies_total", "Replies recovered by returning teams unranked"),
	)

	// Oracle Metrics
	m.oracleRequests = auto.NewCounterVec(
		m.counterOpts("oracle_requests_total", "Oracle calls by status"),
		[]string{"status"},
	)
	m.oracleLatency = auto.NewHistogram(
		m.histogramOpts("oracle_latency_milliseconds", "Oracle call latency in milliseconds", oracleBuckets),
	)

	// Cache Metrics
	m.cacheLookups = auto.NewCounterVec(
		m.counterOpts("cache_lookups_total", "Result cache lookups by result"),
		[]string{"result"},
	)
	m.cacheEntries = auto.NewGauge(
		m.gaugeOpts("cache_entries", "Current number of result cache entries"),
	)
	m.cacheEvictions = auto.NewCounter(
		m.counterOpts("cache_evictions_total", "Total number of evicted cache entries"),
	)

	// Dataset Metrics
	m.datasetTeams = auto.NewGauge(
		m.gaugeOpts("dataset_teams", "Number of team records in the loaded dataset"),
	)
	m.datasetLoadDuration = auto.NewHistogram(
		m.histogramOpts("dataset_load_duration_milliseconds", "Dataset load duration in milliseconds", m.histogramBuckets),
	)

	// HTTP Performance Metrics
	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)

	// Error Metrics
	m.errorRateByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Total number of errors by component"),
		[]string{"component", "error_type"},
	)
	m.errorRateByType = auto.NewCounterVec(
		m.counterOpts("errors_by_type_total", "Total number of errors by type"),
		[]string{"error_type", "severity"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Total number of errors by endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)

	// System Performance Metrics
	m.systemMemoryUsage = auto.NewGauge(
		m.gaugeOpts("system_memory_usage_bytes", "System memory usage in bytes"),
	)
	m.systemGoroutineCount = auto.NewGauge(
		m.gaugeOpts("system_goroutine_count", "Number of goroutines"),
	)
	m.systemGCPauseTime = auto.NewHistogram(
		m.histogramOpts("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
			[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}),
	)
}

// RecordComparison increments the comparison counter for an outcome.
func RecordComparison(outcome string) {
	globalManager.comparisons.WithLabelValues(outcome).Inc()
}

// RecordComparisonDuration records end-to-end comparison duration in milliseconds.
func RecordComparisonDuration(durationMs float64) {
	globalManager.comparisonDuration.Observe(durationMs)
}

// RecordReplyShape counts a decoded oracle reply.
func RecordReplyShape(shape string) {
	globalManager.replyShapes.WithLabelValues(shape).Inc()
}

// RecordBatchDecision counts a processing plan decision.
func RecordBatchDecision(source string, batched bool) {
	mode := "single"
	if batched {
		mode = "batched"
	}
	globalManager.batchDecisions.WithLabelValues(source, mode).Inc()
}

// RecordEstimatedTokens records an estimated prompt size.
func RecordEstimatedTokens(tokens int) {
	globalManager.estimatedTokens.Observe(float64(tokens))
}

// RecordDegradedReply counts a reply recovered by returning teams unranked.
func RecordDegradedReply() {
	globalManager.degradedReplies.Inc()
}

// RecordOracleRequest counts an oracle call by status.
func RecordOracleRequest(status string) {
	globalManager.oracleRequests.WithLabelValues(status).Inc()
}

// RecordOracleLatency records oracle call latency in milliseconds.
func RecordOracleLatency(latencyMs float64) {
	globalManager.oracleLatency.Observe(latencyMs)
}

// RecordCacheLookup counts a cache lookup by result (hit, miss, in_progress).
func RecordCacheLookup(result string) {
	globalManager.cacheLookups.WithLabelValues(result).Inc()
}

// UpdateCacheEntries sets the current number of cache entries.
func UpdateCacheEntries(count int) {
	globalManager.cacheEntries.Set(float64(count))
}

// RecordCacheEviction counts an evicted cache entry.
func RecordCacheEviction() {
	globalManager.cacheEvictions.Inc()
}

// UpdateDatasetTeams sets the number of loaded team records.
func UpdateDatasetTeams(count int) {
	globalManager.datasetTeams.Set(float64(count))
}

// RecordDatasetLoadDuration records a dataset load in milliseconds.
func RecordDatasetLoadDuration(durationMs float64) {
	globalManager.datasetLoadDuration.Observe(durationMs)
}

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent increments the error counter for a component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType increments the error counter for an error type.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint increments the error counter for an endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
