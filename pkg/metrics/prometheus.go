// Package metrics provides Prometheus metrics for the CourtSight analysis
// service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the CourtSight service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Fusion Metrics - Timeline quality by signal source
	eventsFused       *prometheus.CounterVec
	fallbackTimelines prometheus.Counter
	fallbackEvents    prometheus.Counter

	// Identity Metrics - Jersey OCR and re-identification quality
	ocrAccepted         prometheus.Counter
	ocrRejected         prometheus.Counter
	reidMatches         prometheus.Counter
	syntheticIdentities prometheus.Counter
	tracksPruned        prometheus.Counter
	activeTracks        prometheus.Gauge

	// Highlight Metrics
	clipsProduced prometheus.Counter
	clipsDropped  prometheus.Counter
	clipsMerged   prometheus.Counter

	// Analysis Lifecycle Metrics
	analysesSubmitted     prometheus.Counter
	analysesDuplicate     prometheus.Counter
	analysesCompleted     prometheus.Counter
	pipelineStageTimeouts *prometheus.CounterVec

	// Repository Metrics
	repositoryPutLatency    prometheus.Histogram
	repositoryQueryLatency  prometheus.Histogram
	repositoryEventsTotal   prometheus.Gauge
	repositoryAnalysesTotal prometheus.Gauge

	// Queue Metrics
	queueCapacity      prometheus.Gauge
	queueSize          prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueueRate   prometheus.Counter
	queueDequeueRate   prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Worker Metrics
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrorRate         prometheus.Counter

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error Metrics
	errorRateByComponent *prometheus.CounterVec

	// System Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "courtsight",
		subsystem:        "analysis",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // metric registration is inherently long
	auto := promauto.With(m.registry)

	// Fusion Metrics
	m.eventsFused = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "events_fused_total",
			Help:      "Total number of fused game events by signal source",
		},
		[]string{"source"},
	)

	m.fallbackTimelines = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fallback_timelines_total",
		Help:      "Total number of analyses that produced no real events and fell back to a synthetic timeline",
	})

	m.fallbackEvents = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fallback_events_total",
		Help:      "Total number of synthetic fallback events emitted",
	})

	// Identity Metrics
	m.ocrAccepted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "jersey_ocr_accepted_total",
		Help:      "Total number of jersey number reads accepted",
	})

	m.ocrRejected = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "jersey_ocr_rejected_total",
		Help:      "Total number of jersey number reads rejected (low confidence or malformed)",
	})

	m.reidMatches = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reid_matches_total",
		Help:      "Total number of detections resolved by visual re-identification",
	})

	m.syntheticIdentities = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "synthetic_identities_total",
		Help:      "Total number of synthetic unknown-player identities created",
	})

	m.tracksPruned = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "tracks_pruned_total",
		Help:      "Total number of player tracks removed by the age sweep",
	})

	m.activeTracks = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "active_tracks",
		Help:      "Current number of live player tracks",
	})

	// Highlight Metrics
	m.clipsProduced = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "clips_produced_total",
		Help:      "Total number of highlight clips produced",
	})

	m.clipsDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "clips_dropped_total",
		Help:      "Total number of clips dropped for falling below the minimum duration",
	})

	m.clipsMerged = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "clips_merged_total",
		Help:      "Total number of clip merge operations",
	})

	// Analysis Lifecycle Metrics
	m.analysesSubmitted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "analyses_submitted_total",
		Help:      "Total number of accepted analysis submissions",
	})

	m.analysesDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "analyses_duplicate_total",
		Help:      "Total number of duplicate analysis submissions",
	})

	m.analysesCompleted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "analyses_completed_total",
		Help:      "Total number of analyses processed to completion",
	})

	m.pipelineStageTimeouts = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "pipeline_stage_timeouts_total",
			Help:      "Total number of pipeline stages abandoned at their deadline",
		},
		[]string{"stage"},
	)

	// Repository Metrics
	m.repositoryPutLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "repository_put_latency_milliseconds",
		Help:      "Repository result store latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.repositoryQueryLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "repository_query_latency_milliseconds",
		Help:      "Repository query latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.repositoryEventsTotal = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "repository_events_total",
		Help:      "Total number of stored game events across all analyses",
	})

	m.repositoryAnalysesTotal = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "repository_analyses_total",
		Help:      "Total number of stored analysis results",
	})

	// Queue Metrics
	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_capacity",
		Help:      "Maximum queue capacity",
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_size",
		Help:      "Current size of the analysis job queue",
	})

	m.queueUtilization = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_utilization_ratio",
		Help:      "Queue utilization ratio (current size / capacity)",
	})

	m.queueEnqueueRate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_enqueue_total",
		Help:      "Total number of jobs enqueued",
	})

	m.queueDequeueRate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_dequeue_total",
		Help:      "Total number of jobs dequeued",
	})

	m.queueEnqueueErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_enqueue_errors_total",
		Help:      "Total number of enqueue errors",
	})

	// Worker Metrics
	m.workerActiveCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_active_count",
		Help:      "Number of active analysis workers",
	})

	m.workerProcessingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_processing_latency_milliseconds",
		Help:      "End-to-end analysis processing latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.workerErrorRate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_errors_total",
		Help:      "Total number of worker errors",
	})

	// HTTP Performance Metrics
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

	// Error Metrics
	m.errorRateByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_component_total",
			Help:      "Total number of errors by component",
		},
		[]string{"component", "error_type"},
	)

	// System Metrics
	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
		Help:      "Current heap memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutine_count",
		Help:      "Current number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_milliseconds",
		Help:      "Garbage collection pause time in milliseconds",
		Buckets:   m.histogramBuckets,
	})
}

// Fusion Metrics Functions.

// RecordEventFused increments the fused event counter for a signal source.
func RecordEventFused(source string) {
	globalManager.eventsFused.WithLabelValues(source).Inc()
}

// RecordFallbackSynthesis records one fallback timeline and its event count.
func RecordFallbackSynthesis(eventCount int) {
	globalManager.fallbackTimelines.Inc()
	globalManager.fallbackEvents.Add(float64(eventCount))
}

// Identity Metrics Functions.

// RecordOCRAccepted increments the accepted jersey read counter.
func RecordOCRAccepted() {
	globalManager.ocrAccepted.Inc()
}

// RecordOCRRejected increments the rejected jersey read counter.
func RecordOCRRejected() {
	globalManager.ocrRejected.Inc()
}

// RecordReidMatch increments the re-identification match counter.
func RecordReidMatch() {
	globalManager.reidMatches.Inc()
}

// RecordSyntheticIdentity increments the synthetic identity counter.
func RecordSyntheticIdentity() {
	globalManager.syntheticIdentities.Inc()
}

// RecordTracksPruned adds to the pruned track counter.
func RecordTracksPruned(count int) {
	globalManager.tracksPruned.Add(float64(count))
}

// UpdateActiveTracks sets the current live track count.
func UpdateActiveTracks(count int) {
	globalManager.activeTracks.Set(float64(count))
}

// Highlight Metrics Functions.

// RecordClipProduced increments the produced clip counter.
func RecordClipProduced() {
	globalManager.clipsProduced.Inc()
}

// RecordClipDropped increments the dropped clip counter.
func RecordClipDropped() {
	globalManager.clipsDropped.Inc()
}

// RecordClipMerged increments the clip merge counter.
func RecordClipMerged() {
	globalManager.clipsMerged.Inc()
}

// Analysis Lifecycle Metrics Functions.

// RecordAnalysisSubmitted increments the accepted submission counter.
func RecordAnalysisSubmitted() {
	globalManager.analysesSubmitted.Inc()
}

// RecordAnalysisDuplicate increments the duplicate submission counter.
func RecordAnalysisDuplicate() {
	globalManager.analysesDuplicate.Inc()
}

// RecordAnalysisCompleted increments the completed analysis counter.
func RecordAnalysisCompleted() {
	globalManager.analysesCompleted.Inc()
}

// RecordStageTimeout increments the stage timeout counter for a stage.
func RecordStageTimeout(stage string) {
	globalManager.pipelineStageTimeouts.WithLabelValues(stage).Inc()
}

// Repository Metrics Functions.

// RecordRepositoryPutLatency records result store latency in milliseconds.
func RecordRepositoryPutLatency(latencyMs float64) {
	globalManager.repositoryPutLatency.Observe(latencyMs)
}

// RecordRepositoryQueryLatency records query latency in milliseconds.
func RecordRepositoryQueryLatency(latencyMs float64) {
	globalManager.repositoryQueryLatency.Observe(latencyMs)
}

// UpdateRepositoryEventsTotal sets the stored event count.
func UpdateRepositoryEventsTotal(count int) {
	globalManager.repositoryEventsTotal.Set(float64(count))
}

// UpdateRepositoryAnalysesTotal sets the stored analysis count.
func UpdateRepositoryAnalysesTotal(count int) {
	globalManager.repositoryAnalysesTotal.Set(float64(count))
}

// Queue Metrics Functions.

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeueRate.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// Worker Metrics Functions.

// UpdateWorkerActiveCount sets the number of active workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrorRate.Inc()
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// System Metrics Functions.

// UpdateSystemMemoryUsage sets the current heap memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the current goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records a GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
