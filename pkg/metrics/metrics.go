// Package metrics provides Prometheus metrics for the pickwire service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	// Reconciliation metrics
	mergeRuns     prometheus.Counter
	mergedRecords prometheus.Counter
	mergeDuration prometheus.Histogram
	feedReloads   prometheus.Counter
	feedSkipped   prometheus.Counter

	// Grading metrics
	gradeResults   *prometheus.CounterVec
	gradingLatency prometheus.Histogram

	// Store gauges
	gamesTracked prometheus.Gauge
	gamesFinal   prometheus.Gauge

	// Queue metrics
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueues      prometheus.Counter
	queueDequeues      prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Worker metrics
	workerCount   prometheus.Gauge
	workerLatency prometheus.Histogram
	workerErrors  prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// WebSocket metrics
	wsClients    prometheus.Gauge
	wsBroadcasts prometheus.Counter

	// Archive metrics
	archiveWrites prometheus.Counter
	archiveErrors prometheus.Counter

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager backed by a custom registry so default Go metrics
// stay out of the scrape.
var (
	customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // singleton registry
	globalManager  *Manager                   //nolint:gochecknoglobals // singleton manager
)

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "pickwire",
		subsystem:        "site",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	factory := promauto.With(m.registry)
	opts := func(name, help string) prometheus.CounterOpts {
		return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help}
	}
	gaugeOpts := func(name, help string) prometheus.GaugeOpts {
		return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help}
	}
	histOpts := func(name, help string) prometheus.HistogramOpts {
		return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: m.histogramBuckets}
	}

	m.mergeRuns = factory.NewCounter(opts("merge_runs_total", "Reconciliation passes executed"))
	m.mergedRecords = factory.NewCounter(opts("merged_records_total", "Records accepted into the canonical store"))
	m.mergeDuration = factory.NewHistogram(histOpts("merge_duration_ms", "Reconciliation pass duration in milliseconds"))
	m.feedReloads = factory.NewCounter(opts("feed_reloads_total", "Feed file reloads observed"))
	m.feedSkipped = factory.NewCounter(opts("feed_skipped_records_total", "Feed records dropped by validation"))

	m.gradeResults = factory.NewCounterVec(opts("grade_results_total", "Pick grades by result"), []string{"result"})
	m.gradingLatency = factory.NewHistogram(histOpts("grading_latency_ms", "Grading latency in milliseconds"))

	m.gamesTracked = factory.NewGauge(gaugeOpts("games_tracked", "Records in the canonical store"))
	m.gamesFinal = factory.NewGauge(gaugeOpts("games_final", "Finalized records in the canonical store"))

	m.queueSize = factory.NewGauge(gaugeOpts("queue_size", "Grade jobs currently queued"))
	m.queueCapacity = factory.NewGauge(gaugeOpts("queue_capacity", "Grade queue capacity"))
	m.queueUtilization = factory.NewGauge(gaugeOpts("queue_utilization", "Grade queue fill ratio"))
	m.queueEnqueues = factory.NewCounter(opts("queue_enqueues_total", "Grade jobs enqueued"))
	m.queueDequeues = factory.NewCounter(opts("queue_dequeues_total", "Grade jobs dequeued"))
	m.queueEnqueueErrors = factory.NewCounter(opts("queue_enqueue_errors_total", "Failed enqueue attempts"))

	m.workerCount = factory.NewGauge(gaugeOpts("worker_count", "Grading workers running"))
	m.workerLatency = factory.NewHistogram(histOpts("worker_latency_ms", "Grade job processing latency in milliseconds"))
	m.workerErrors = factory.NewCounter(opts("worker_errors_total", "Grade job failures"))

	m.httpRequests = factory.NewCounterVec(opts("http_requests_total", "HTTP requests"), []string{"endpoint", "method", "status"})
	m.httpRequestDuration = factory.NewHistogramVec(histOpts("http_request_duration_ms", "HTTP request duration in milliseconds"), []string{"endpoint", "method"})

	m.wsClients = factory.NewGauge(gaugeOpts("ws_clients", "Connected WebSocket clients"))
	m.wsBroadcasts = factory.NewCounter(opts("ws_broadcasts_total", "WebSocket broadcasts sent"))

	m.archiveWrites = factory.NewCounter(opts("archive_writes_total", "Archive upsert batches"))
	m.archiveErrors = factory.NewCounter(opts("archive_errors_total", "Archive upsert failures"))

	m.systemMemoryUsage = factory.NewGauge(gaugeOpts("system_memory_bytes", "Allocated heap bytes"))
	m.systemGoroutineCount = factory.NewGauge(gaugeOpts("system_goroutines", "Live goroutines"))
	m.systemGCPauseTime = factory.NewHistogram(histOpts("system_gc_pause_ms", "Average GC pause in milliseconds"))
}

// GetRegistry returns the registry backing the global manager, for the
// metrics HTTP handler.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Package-level helpers over the global manager.

func RecordMergeRun()                  { globalManager.mergeRuns.Inc() }
func AddMergedRecords(n int)           { globalManager.mergedRecords.Add(float64(n)) }
func RecordMergeDuration(ms float64)   { globalManager.mergeDuration.Observe(ms) }
func RecordFeedReload()                { globalManager.feedReloads.Inc() }
func AddFeedSkipped(n int)             { globalManager.feedSkipped.Add(float64(n)) }
func RecordGradeResult(result string)  { globalManager.gradeResults.WithLabelValues(result).Inc() }
func RecordGradingLatency(ms float64)  { globalManager.gradingLatency.Observe(ms) }
func UpdateGamesTracked(n int)         { globalManager.gamesTracked.Set(float64(n)) }
func UpdateGamesFinal(n int)           { globalManager.gamesFinal.Set(float64(n)) }
func UpdateQueueSize(n int)            { globalManager.queueSize.Set(float64(n)) }
func UpdateQueueCapacity(n int)        { globalManager.queueCapacity.Set(float64(n)) }
func UpdateQueueUtilization(r float64) { globalManager.queueUtilization.Set(r) }
func RecordQueueEnqueue()              { globalManager.queueEnqueues.Inc() }
func RecordQueueDequeue()              { globalManager.queueDequeues.Inc() }
func RecordQueueEnqueueError()         { globalManager.queueEnqueueErrors.Inc() }
func UpdateWorkerCount(n int)          { globalManager.workerCount.Set(float64(n)) }
func RecordWorkerLatency(ms float64)   { globalManager.workerLatency.Observe(ms) }
func RecordWorkerError()               { globalManager.workerErrors.Inc() }
func UpdateWSClients(n int)            { globalManager.wsClients.Set(float64(n)) }
func RecordWSBroadcast()               { globalManager.wsBroadcasts.Inc() }
func RecordArchiveWrite()              { globalManager.archiveWrites.Inc() }
func RecordArchiveError()              { globalManager.archiveErrors.Inc() }
func UpdateSystemMemoryUsage(b uint64) { globalManager.systemMemoryUsage.Set(float64(b)) }
func UpdateSystemGoroutineCount(n int) { globalManager.systemGoroutineCount.Set(float64(n)) }
func RecordSystemGCPauseTime(ms float64) {
	globalManager.systemGCPauseTime.Observe(ms)
}

// RecordHTTPRequest counts one request by endpoint, method and status code.
func RecordHTTPRequest(endpoint, method, status string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
}

// RecordHTTPRequestDuration observes one request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method).Observe(ms)
}
