// Package metrics provides Prometheus metrics for the kpisync service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the kpisync service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Sync Metrics - Delta mirroring health
	rowsWritten     *prometheus.CounterVec
	rowsFailed      *prometheus.CounterVec
	cyclesRun       *prometheus.CounterVec
	cyclesSkipped   *prometheus.CounterVec
	batchErrors     *prometheus.CounterVec
	pipelineLatency prometheus.Histogram
	cursorPosition  *prometheus.GaugeVec

	// Aggregation Metrics - Reporting path performance
	aggregationLatency prometheus.Histogram
	reportRequests     prometheus.Counter

	// Source Metrics - Upstream grid health
	sourceErrors *prometheus.CounterVec

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
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
		namespace:        "kpisync",
		subsystem:        "service",
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
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	// Sync Metrics - per-target delta mirroring
	m.rowsWritten = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "rows_written_total",
			Help:      "Total number of rows successfully written to the remote store",
		},
		[]string{"target"},
	)

	m.rowsFailed = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "rows_failed_total",
			Help:      "Total number of rows that failed to write",
		},
		[]string{"target"},
	)

	m.cyclesRun = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "sync_cycles_total",
			Help:      "Total number of sync cycles executed per target",
		},
		[]string{"target"},
	)

	m.cyclesSkipped = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "sync_cycles_skipped_total",
			Help:      "Total number of sync cycles skipped, by reason",
		},
		[]string{"target", "reason"},
	)

	m.batchErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "batch_errors_total",
			Help:      "Total number of batch requests that failed at the transport level",
		},
		[]string{"target"},
	)

	m.pipelineLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pipeline_request_duration_milliseconds",
		Help:      "Latency of remote store pipeline requests in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.cursorPosition = auto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "cursor_position",
			Help:      "Current high-water row of each offset-mode sync cursor",
		},
		[]string{"target"},
	)

	// Aggregation Metrics - reporting path
	m.aggregationLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "aggregation_duration_milliseconds",
		Help:      "Latency of report aggregation in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.reportRequests = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "report_requests_total",
		Help:      "Total number of report documents computed",
	})

	// Source Metrics - upstream grid health
	m.sourceErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "source_errors_total",
			Help:      "Total number of source read failures, by source",
		},
		[]string{"source"},
	)

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
}

// RecordRowsWritten adds successfully written rows for a target.
func RecordRowsWritten(target string, n int) {
	globalManager.rowsWritten.WithLabelValues(target).Add(float64(n))
}

// RecordRowsFailed adds failed rows for a target.
func RecordRowsFailed(target string, n int) {
	globalManager.rowsFailed.WithLabelValues(target).Add(float64(n))
}

// RecordCycleRun increments the cycle counter for a target.
func RecordCycleRun(target string) {
	globalManager.cyclesRun.WithLabelValues(target).Inc()
}

// RecordCycleSkipped increments the skipped-cycle counter with a reason label.
func RecordCycleSkipped(target, reason string) {
	globalManager.cyclesSkipped.WithLabelValues(target, reason).Inc()
}

// RecordBatchError increments the transport-level batch failure counter.
func RecordBatchError(target string) {
	globalManager.batchErrors.WithLabelValues(target).Inc()
}

// RecordPipelineLatency records one pipeline request duration in milliseconds.
func RecordPipelineLatency(latencyMs float64) {
	globalManager.pipelineLatency.Observe(latencyMs)
}

// UpdateCursorPosition sets the stored cursor row for a target.
func UpdateCursorPosition(target string, row int64) {
	globalManager.cursorPosition.WithLabelValues(target).Set(float64(row))
}

// RecordAggregationLatency records one report aggregation duration in milliseconds.
func RecordAggregationLatency(latencyMs float64) {
	globalManager.aggregationLatency.Observe(latencyMs)
}

// RecordReportRequest increments the computed report counter.
func RecordReportRequest() {
	globalManager.reportRequests.Inc()
}

// RecordSourceError increments the source read failure counter.
func RecordSourceError(source string) {
	globalManager.sourceErrors.WithLabelValues(source).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
