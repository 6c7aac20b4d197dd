// Package metrics provides Prometheus metrics for the TRIBE insights service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the TRIBE service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Data Source Metrics - Which path is feeding the dashboard
	sourceState             prometheus.Gauge
	sessionFallbacks        prometheus.Counter
	recommendationFallbacks prometheus.Counter
	refreshes               *prometheus.CounterVec
	selections              prometheus.Counter
	populationSize          prometheus.Gauge

	// Remote Adapter Metrics - Probe, fetch, and breaker health
	probeResults *prometheus.CounterVec
	probeLatency prometheus.Histogram
	fetchLatency *prometheus.HistogramVec
	fetchErrors  *prometheus.CounterVec
	breakerState prometheus.Gauge

	// Approximation Metrics - Local compute volume
	recommendationsComputed *prometheus.CounterVec

	// Snapshot Metrics - Dataset publication
	snapshotPublishes       prometheus.Counter
	snapshotRebuildDuration prometheus.Histogram
	snapshotVersion         prometheus.Gauge
	snapshotLastUnix        prometheus.Gauge
	snapshotStale           prometheus.Counter

	// Job Queue Metrics - Serialized data operations
	queueDepth       prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueUtilization prometheus.Gauge
	jobsEnqueued     prometheus.Counter
	jobsDequeued     prometheus.Counter
	jobEnqueueErrors prometheus.Counter
	jobLatency       *prometheus.HistogramVec
	jobErrors        *prometheus.CounterVec

	// Subscription Metrics - WebSocket feed
	wsClients    prometheus.Gauge
	wsBroadcasts prometheus.Counter
	wsSendErrors prometheus.Counter

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Enhanced Error Metrics - Detailed error tracking
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

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
		namespace:        "tribe",
		subsystem:        "insights",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
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

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	// Ensure metrics are registered on the configured registry (custom by default)
	auto := promauto.With(m.registry)

	// Data Source Metrics - Which path is feeding the dashboard
	m.sourceState = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "source_state",
		Help:      "Active data source (1 = remote backend, 0 = local fallback)",
	})

	m.sessionFallbacks = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "session_fallbacks_total",
		Help:      "Total number of session-level downgrades from remote to local",
	})

	m.recommendationFallbacks = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "recommendation_fallbacks_total",
		Help:      "Total number of per-recommendation fallbacks while staying remote",
	})

	m.refreshes = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "refreshes_total",
			Help:      "Total number of completed refresh sequences by resulting source",
		},
		[]string{"source"},
	)

	m.selections = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "selections_total",
		Help:      "Total number of processed user selections",
	})

	m.populationSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "population_size",
		Help:      "Number of users in the current published snapshot",
	})

	// Remote Adapter Metrics - Probe, fetch, and breaker health
	m.probeResults = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "probe_results_total",
			Help:      "Total number of reachability probes by outcome",
		},
		[]string{"outcome"},
	)

	m.probeLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "probe_latency_milliseconds",
		Help:      "Reachability probe latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.fetchLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "fetch_latency_milliseconds",
			Help:      "Backend fetch latency in milliseconds by endpoint",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint"},
	)

	m.fetchErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "fetch_errors_total",
			Help:      "Total number of failed backend fetches by endpoint",
		},
		[]string{"endpoint"},
	)

	m.breakerState = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "breaker_state",
		Help:      "Circuit breaker state (0 = closed, 1 = half-open, 2 = open)",
	})

	// Approximation Metrics - Local compute volume
	m.recommendationsComputed = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "recommendations_computed_total",
			Help:      "Total number of recommendation lists computed by source",
		},
		[]string{"source"},
	)

	// Snapshot Metrics - Dataset publication
	m.snapshotPublishes = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_publishes_total",
		Help:      "Total number of published dataset snapshots",
	})

	m.snapshotRebuildDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_rebuild_duration_milliseconds",
		Help:      "Snapshot index rebuild duration in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.snapshotVersion = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_version",
		Help:      "Version of the last published snapshot",
	})

	m.snapshotLastUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_last_unix",
		Help:      "Unix timestamp of the last snapshot publish",
	})

	m.snapshotStale = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_stale_rejected_total",
		Help:      "Total number of snapshots rejected for carrying a stale version",
	})

	// Job Queue Metrics - Serialized data operations
	m.queueDepth = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "job_queue_depth",
		Help:      "Current number of queued data operations",
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "job_queue_capacity",
		Help:      "Maximum job queue capacity",
	})

	m.queueUtilization = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "job_queue_utilization_ratio",
		Help:      "Job queue utilization ratio (depth / capacity)",
	})

	m.jobsEnqueued = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "jobs_enqueued_total",
		Help:      "Total number of jobs accepted onto the queue",
	})

	m.jobsDequeued = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "jobs_dequeued_total",
		Help:      "Total number of jobs taken off the queue",
	})

	m.jobEnqueueErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "job_enqueue_errors_total",
		Help:      "Total number of rejected enqueues (backpressure or closed queue)",
	})

	m.jobLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "job_latency_milliseconds",
			Help:      "Job execution latency in milliseconds by kind",
			Buckets:   m.histogramBuckets,
		},
		[]string{"kind"},
	)

	m.jobErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "job_errors_total",
			Help:      "Total number of failed jobs by kind",
		},
		[]string{"kind"},
	)

	// Subscription Metrics - WebSocket feed
	m.wsClients = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ws_clients",
		Help:      "Number of connected WebSocket subscribers",
	})

	m.wsBroadcasts = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ws_broadcasts_total",
		Help:      "Total number of snapshot broadcasts to subscribers",
	})

	m.wsSendErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ws_send_errors_total",
		Help:      "Total number of failed WebSocket sends",
	})

	// HTTP Performance Metrics - User experience indicators
	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	// Enhanced Error Metrics - Detailed error tracking
	m.errorRateByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_component_total",
			Help:      "Total number of errors by component",
		},
		[]string{"component", "error_type"},
	)

	m.errorRateByType = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_type_total",
			Help:      "Total number of errors by type",
		},
		[]string{"error_type", "severity"},
	)

	m.errorRateByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_endpoint_total",
			Help:      "Total number of errors by endpoint",
		},
		[]string{"endpoint", "method", "error_type"},
	)

	m.errorLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "error_latency_milliseconds",
			Help:      "Latency of operations that resulted in errors",
			Buckets:   m.histogramBuckets,
		},
		[]string{"component", "error_type"},
	)

	// System Performance Metrics
	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
		Help:      "System memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutine_count",
		Help:      "Number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_time_milliseconds",
		Help:      "GC pause time in milliseconds",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
}

// Data Source Metrics Functions.

// UpdateSourceState sets the active data source gauge.
func UpdateSourceState(remote bool) {
	if remote {
		globalManager.sourceState.Set(1)
		return
	}
	globalManager.sourceState.Set(0)
}

// RecordSessionFallback increments the session downgrade counter.
func RecordSessionFallback() {
	globalManager.sessionFallbacks.Inc()
}

// RecordRecommendationFallback increments the scoped fallback counter.
func RecordRecommendationFallback() {
	globalManager.recommendationFallbacks.Inc()
}

// RecordRefresh increments the refresh counter for the resulting source.
func RecordRefresh(source string) {
	globalManager.refreshes.WithLabelValues(source).Inc()
}

// RecordSelection increments the processed selections counter.
func RecordSelection() {
	globalManager.selections.Inc()
}

// UpdatePopulationSize sets the snapshot population gauge.
func UpdatePopulationSize(n int) {
	globalManager.populationSize.Set(float64(n))
}

// Remote Adapter Metrics Functions.

// RecordProbeResult increments the probe counter for an outcome.
func RecordProbeResult(reachable bool) {
	outcome := "unreachable"
	if reachable {
		outcome = "reachable"
	}
	globalManager.probeResults.WithLabelValues(outcome).Inc()
}

// RecordProbeLatency records probe latency in milliseconds.
func RecordProbeLatency(latencyMs float64) {
	globalManager.probeLatency.Observe(latencyMs)
}

// RecordFetchLatency records backend fetch latency for an endpoint.
func RecordFetchLatency(endpoint string, latencyMs float64) {
	globalManager.fetchLatency.WithLabelValues(endpoint).Observe(latencyMs)
}

// RecordFetchError increments the fetch error counter for an endpoint.
func RecordFetchError(endpoint string) {
	globalManager.fetchErrors.WithLabelValues(endpoint).Inc()
}

// UpdateBreakerState sets the circuit breaker state gauge.
func UpdateBreakerState(state float64) {
	globalManager.breakerState.Set(state)
}

// Approximation Metrics Functions.

// RecordRecommendationsComputed increments the computed lists counter.
func RecordRecommendationsComputed(source string) {
	globalManager.recommendationsComputed.WithLabelValues(source).Inc()
}

// Snapshot Metrics Functions.

// RecordSnapshotPublish increments the publish counter and stamps the time.
func RecordSnapshotPublish() {
	globalManager.snapshotPublishes.Inc()
	globalManager.snapshotLastUnix.Set(float64(time.Now().Unix()))
}

// RecordSnapshotRebuildDuration records index rebuild duration.
func RecordSnapshotRebuildDuration(latencyMs float64) {
	globalManager.snapshotRebuildDuration.Observe(latencyMs)
}

// UpdateSnapshotVersion sets the last published version gauge.
func UpdateSnapshotVersion(version uint64) {
	globalManager.snapshotVersion.Set(float64(version))
}

// RecordSnapshotStale increments the stale-rejection counter.
func RecordSnapshotStale() {
	globalManager.snapshotStale.Inc()
}

// Job Queue Metrics Functions.

// UpdateQueueDepth sets the current queue depth.
func UpdateQueueDepth(depth int) {
	globalManager.queueDepth.Set(float64(depth))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordJobEnqueued increments the enqueue counter.
func RecordJobEnqueued() {
	globalManager.jobsEnqueued.Inc()
}

// RecordJobDequeued increments the dequeue counter.
func RecordJobDequeued() {
	globalManager.jobsDequeued.Inc()
}

// RecordJobEnqueueError increments the rejected-enqueue counter.
func RecordJobEnqueueError() {
	globalManager.jobEnqueueErrors.Inc()
}

// RecordJobLatency records job execution latency by kind.
func RecordJobLatency(kind string, latencyMs float64) {
	globalManager.jobLatency.WithLabelValues(kind).Observe(latencyMs)
}

// RecordJobError increments the failed-job counter by kind.
func RecordJobError(kind string) {
	globalManager.jobErrors.WithLabelValues(kind).Inc()
}

// Subscription Metrics Functions.

// UpdateWSClients sets the connected subscriber gauge.
func UpdateWSClients(count int) {
	globalManager.wsClients.Set(float64(count))
}

// RecordWSBroadcast increments the snapshot broadcast counter.
func RecordWSBroadcast() {
	globalManager.wsBroadcasts.Inc()
}

// RecordWSSendError increments the failed-send counter.
func RecordWSSendError() {
	globalManager.wsSendErrors.Inc()
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Enhanced Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// System Performance Metrics Functions.

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
