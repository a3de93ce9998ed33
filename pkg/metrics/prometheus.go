// Package metrics provides Prometheus metrics for the kpiboard service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const defaultRefreshInterval = 10 * time.Second

// Manager owns every Prometheus collector the service exports.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	refreshInterval  time.Duration
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec

	// Record source
	sourceFetches      *prometheus.CounterVec
	sourceFetchLatency *prometheus.HistogramVec
	sourceFallbacks    prometheus.Counter
	parseIssues        *prometheus.CounterVec

	// Cache
	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec

	// Snapshot
	snapshotRecords   prometheus.Gauge
	snapshotUpdatedAt prometheus.Gauge
	snapshotRefreshes *prometheus.CounterVec

	// Refresh queue
	refreshQueueSize     prometheus.Gauge
	refreshQueueCapacity prometheus.Gauge
	refreshRejected      prometheus.Counter

	// Settings
	settingsUpdates *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "kpiboard",
		subsystem:        "dashboard",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		refreshInterval:  defaultRefreshInterval,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

// RefreshInterval is how often gauge updaters should run.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets, ConstLabels: m.constLabels}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpErrors = auto.NewCounterVec(
		m.counterOpts("http_errors_total", "HTTP responses with an error code by endpoint"),
		[]string{"endpoint", "method", "error_code"},
	)

	m.sourceFetches = auto.NewCounterVec(
		m.counterOpts("source_fetches_total", "Record source fetches by source and outcome"),
		[]string{"source", "outcome"},
	)
	m.sourceFetchLatency = auto.NewHistogramVec(
		m.histogramOpts("source_fetch_duration_milliseconds", "Record source fetch latency in milliseconds", m.histogramBuckets),
		[]string{"source"},
	)
	m.sourceFallbacks = auto.NewCounter(
		m.counterOpts("source_fallbacks_total", "Refreshes that fell back to fixture data"),
	)
	m.parseIssues = auto.NewCounterVec(
		m.counterOpts("parse_issues_total", "Malformed or missing fields replaced by defaults, by field"),
		[]string{"field"},
	)

	m.cacheHits = auto.NewCounterVec(
		m.counterOpts("cache_hits_total", "Record cache hits by backend"),
		[]string{"backend"},
	)
	m.cacheMisses = auto.NewCounterVec(
		m.counterOpts("cache_misses_total", "Record cache misses by backend"),
		[]string{"backend"},
	)

	m.snapshotRecords = auto.NewGauge(
		m.gaugeOpts("snapshot_records", "Number of records in the current snapshot"),
	)
	m.snapshotUpdatedAt = auto.NewGauge(
		m.gaugeOpts("snapshot_updated_unixtime", "Unix time the current snapshot was taken"),
	)
	m.snapshotRefreshes = auto.NewCounterVec(
		m.counterOpts("snapshot_refreshes_total", "Snapshot refreshes by trigger"),
		[]string{"trigger"},
	)

	m.refreshQueueSize = auto.NewGauge(
		m.gaugeOpts("refresh_queue_size", "Pending refresh jobs"),
	)
	m.refreshQueueCapacity = auto.NewGauge(
		m.gaugeOpts("refresh_queue_capacity", "Refresh queue capacity"),
	)
	m.refreshRejected = auto.NewCounter(
		m.counterOpts("refresh_rejected_total", "Refresh requests rejected because the queue was full"),
	)

	m.settingsUpdates = auto.NewCounterVec(
		m.counterOpts("settings_updates_total", "Persisted settings changes by kind"),
		[]string{"kind"},
	)

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

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordHTTPError records an error response.
func RecordHTTPError(endpoint, method, errorCode string) {
	globalManager.httpErrors.WithLabelValues(endpoint, method, errorCode).Inc()
}

// RecordSourceFetch records one fetch attempt and its latency.
func RecordSourceFetch(source, outcome string, latencyMs float64) {
	globalManager.sourceFetches.WithLabelValues(source, outcome).Inc()
	globalManager.sourceFetchLatency.WithLabelValues(source).Observe(latencyMs)
}

// RecordSourceFallback counts a refresh served from fixture data.
func RecordSourceFallback() {
	globalManager.sourceFallbacks.Inc()
}

// RecordParseIssue counts a defaulted field.
func RecordParseIssue(field string) {
	globalManager.parseIssues.WithLabelValues(field).Inc()
}

// RecordCacheHit counts a cache hit.
func RecordCacheHit(backend string) {
	globalManager.cacheHits.WithLabelValues(backend).Inc()
}

// RecordCacheMiss counts a cache miss.
func RecordCacheMiss(backend string) {
	globalManager.cacheMisses.WithLabelValues(backend).Inc()
}

// UpdateSnapshot sets the snapshot size and timestamp.
func UpdateSnapshot(records int, at time.Time) {
	globalManager.snapshotRecords.Set(float64(records))
	globalManager.snapshotUpdatedAt.Set(float64(at.Unix()))
}

// RecordSnapshotRefresh counts a completed refresh by trigger.
func RecordSnapshotRefresh(trigger string) {
	globalManager.snapshotRefreshes.WithLabelValues(trigger).Inc()
}

// UpdateRefreshQueueSize sets the pending refresh job count.
func UpdateRefreshQueueSize(size int) {
	globalManager.refreshQueueSize.Set(float64(size))
}

// UpdateRefreshQueueCapacity sets the refresh queue capacity.
func UpdateRefreshQueueCapacity(capacity int) {
	globalManager.refreshQueueCapacity.Set(float64(capacity))
}

// RecordRefreshRejected counts a refresh rejected for backpressure.
func RecordRefreshRejected() {
	globalManager.refreshRejected.Inc()
}

// RecordSettingsUpdate counts a persisted settings change.
func RecordSettingsUpdate(kind string) {
	globalManager.settingsUpdates.WithLabelValues(kind).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
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
