package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce        sync.Once
	marksRequestsTotal  *prometheus.CounterVec
	marksLatencySeconds *prometheus.HistogramVec
	marksErrorsTotal    *prometheus.CounterVec

	marksSavedTotal        *prometheus.CounterVec
	resultsPublishedTotal  *prometheus.CounterVec
	publishLatencySeconds  prometheus.Histogram
	notificationsPublished *prometheus.CounterVec
	sseClientsActive       prometheus.Gauge
)

// RegisterMetrics initialises the Prometheus collectors used by the marks API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		marksRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marks_requests_total",
			Help: "Total number of marks API requests served.",
		}, []string{"method", "route", "status"})

		marksLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "marks_latency_seconds",
			Help:    "Latency distribution for marks API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		marksErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marks_errors_total",
			Help: "Total number of error responses returned by marks endpoints.",
		}, []string{"method", "route", "status"})

		marksSavedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marks_saved_total",
			Help: "Total number of mark records upserted.",
		}, []string{"mode"})

		resultsPublishedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "results_published_total",
			Help: "Total number of mark records transitioned to published.",
		}, []string{"exam_type"})

		publishLatencySeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "results_publish_latency_seconds",
			Help:    "Latency distribution for cohort publish operations.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		})

		notificationsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_published_total",
			Help: "Total number of notifications published, by type.",
		}, []string{"type"})

		sseClientsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "notification_sse_clients_active",
			Help: "Number of currently connected notification stream clients.",
		})

		prometheus.MustRegister(
			marksRequestsTotal,
			marksLatencySeconds,
			marksErrorsTotal,
			marksSavedTotal,
			resultsPublishedTotal,
			publishLatencySeconds,
			notificationsPublished,
			sseClientsActive,
		)
	})
}

// MarksRequests exposes the counter for marks API requests.
func MarksRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return marksRequestsTotal
}

// MarksLatency exposes the latency histogram for marks API requests.
func MarksLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return marksLatencySeconds
}

// MarksErrors exposes the counter for marks API error responses.
func MarksErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return marksErrorsTotal
}

// MarksSaved exposes the counter for mark upserts.
func MarksSaved() *prometheus.CounterVec {
	RegisterMetrics()
	return marksSavedTotal
}

// ResultsPublished exposes the counter for published records.
func ResultsPublished() *prometheus.CounterVec {
	RegisterMetrics()
	return resultsPublishedTotal
}

// PublishLatency exposes the cohort publish latency histogram.
func PublishLatency() prometheus.Histogram {
	RegisterMetrics()
	return publishLatencySeconds
}

// NotificationsPublishedTotal exposes the notification publish counter.
func NotificationsPublishedTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsPublished
}

// SSEClientsActive exposes the connected stream clients gauge.
func SSEClientsActive() prometheus.Gauge {
	RegisterMetrics()
	return sseClientsActive
}
