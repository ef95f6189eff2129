// Package metrics exposes the demo's Prometheus metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the application's collectors on a private registry.
//
// All methods are safe on a nil *Metrics, so callers that run without a
// metrics endpoint need no checks.
//
// Metrics:
//   - app_requests_total{method,endpoint,status} - HTTP requests served
//   - app_items_processed_total - iterations completed without failure
//   - app_active_operations - iterations in flight
//   - app_processing_duration_seconds - histogram of iteration durations
//   - app_request_latency_seconds - summary of iteration durations
//   - app_cpu_usage_percent - simulated CPU usage
//   - app_memory_usage_bytes - simulated memory usage
//   - app_errors_total{error_type} - simulated and export errors
//   - app_spans_exported_total - spans accepted by the collector
//   - app_span_export_failures_total - spans dropped after a failed export
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal      *prometheus.CounterVec
	ItemsProcessed     prometheus.Counter
	ActiveOperations   prometheus.Gauge
	ProcessingDuration prometheus.Histogram
	RequestLatency     prometheus.Summary
	CPUUsage           prometheus.Gauge
	MemoryUsage        prometheus.Gauge
	Errors             *prometheus.CounterVec
	SpansExported      prometheus.Counter
	SpanExportFailures prometheus.Counter
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "app_requests_total",
				Help: "Total number of requests processed",
			},
			[]string{"method", "endpoint", "status"},
		),
		ItemsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "app_items_processed_total",
			Help: "Total number of items processed",
		}),
		ActiveOperations: factory.NewGauge(prometheus.GaugeOpts{
			Name: "app_active_operations",
			Help: "Number of currently active operations",
		}),
		ProcessingDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "app_processing_duration_seconds",
			Help:    "Time spent processing items",
			Buckets: []float64{0.1, 0.25, 0.5, 0.75, 1.0, 2.5, 5.0, 7.5, 10.0},
		}),
		RequestLatency: factory.NewSummary(prometheus.SummaryOpts{
			Name: "app_request_latency_seconds",
			Help: "Request latency in seconds",
		}),
		CPUUsage: factory.NewGauge(prometheus.GaugeOpts{
			Name: "app_cpu_usage_percent",
			Help: "Simulated CPU usage percentage",
		}),
		MemoryUsage: factory.NewGauge(prometheus.GaugeOpts{
			Name: "app_memory_usage_bytes",
			Help: "Simulated memory usage in bytes",
		}),
		Errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "app_errors_total",
				Help: "Total number of errors",
			},
			[]string{"error_type"},
		),
		SpansExported: factory.NewCounter(prometheus.CounterOpts{
			Name: "app_spans_exported_total",
			Help: "Spans accepted by the collector",
		}),
		SpanExportFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "app_span_export_failures_total",
			Help: "Spans dropped after a failed export",
		}),
	}
}

// Registry returns the registry backing /metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// OperationStarted marks one iteration in flight.
func (m *Metrics) OperationStarted() {
	if m == nil {
		return
	}
	m.ActiveOperations.Inc()
}

// OperationFinished records the end of an iteration. An empty errorType
// counts as a processed item.
func (m *Metrics) OperationFinished(elapsed time.Duration, errorType string) {
	if m == nil {
		return
	}
	m.ActiveOperations.Dec()
	m.ProcessingDuration.Observe(elapsed.Seconds())
	m.RequestLatency.Observe(elapsed.Seconds())
	if errorType != "" {
		m.Errors.WithLabelValues(errorType).Inc()
		return
	}
	m.ItemsProcessed.Inc()
}

// ObserveExport implements telemetry.ExportObserver.
func (m *Metrics) ObserveExport(spans int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.SpanExportFailures.Add(float64(spans))
		m.Errors.WithLabelValues("export_failure").Inc()
		return
	}
	m.SpansExported.Add(float64(spans))
}

// ObserveRequest counts one HTTP request.
func (m *Metrics) ObserveRequest(method, endpoint string, status int) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
}

// SetSystem updates the simulated system gauges.
func (m *Metrics) SetSystem(cpuPercent float64, memoryBytes int64) {
	if m == nil {
		return
	}
	m.CPUUsage.Set(cpuPercent)
	m.MemoryUsage.Set(float64(memoryBytes))
}
