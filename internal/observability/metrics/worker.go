package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kirillkom/docuscan/internal/core/domain"
)

// Worker outcomes. A retry outcome means the message will be redelivered.
const (
	OutcomeProcessed = "processed"
	OutcomeRejected  = "rejected"
	OutcomeMissing   = "missing"
	OutcomeRetry     = "retry"
	OutcomeFailed    = "failed"
)

// WorkerMetrics owns the worker's registry; bootstrap registers the
// classification and breaker collectors on it as well.
type WorkerMetrics struct {
	service  string
	registry *prometheus.Registry

	outcomes *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight prometheus.Gauge
	queueLag prometheus.Histogram
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	constLabels := prometheus.Labels{"service": service}
	m := &WorkerMetrics{
		service:  service,
		registry: prometheus.NewRegistry(),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "worker",
			Name:        "documents_total",
			Help:        "Documents taken off the intake queue by outcome.",
			ConstLabels: constLabels,
		}, []string{"outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "worker",
			Name:        "document_duration_seconds",
			Help:        "Extraction, classification and index publish time by outcome.",
			ConstLabels: constLabels,
			Buckets:     []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"outcome"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "worker",
			Name:        "documents_in_flight",
			Help:        "Documents currently being processed.",
			ConstLabels: constLabels,
		}),
		queueLag: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "worker",
			Name:        "queue_lag_seconds",
			Help:        "Time between upload and the start of processing.",
			ConstLabels: constLabels,
			Buckets:     []float64{0.1, 0.5, 1, 5, 15, 30, 60, 300, 900},
		}),
	}
	m.registry.MustRegister(m.outcomes, m.duration, m.inFlight, m.queueLag)
	return m
}

func (m *WorkerMetrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Track marks a document in flight and returns the function that records
// its outcome.
func (m *WorkerMetrics) Track() func(err error) string {
	start := time.Now()
	m.inFlight.Inc()
	return func(err error) string {
		m.inFlight.Dec()
		outcome := ProcessOutcome(err)
		m.outcomes.WithLabelValues(outcome).Inc()
		m.duration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
		return outcome
	}
}

func (m *WorkerMetrics) ObserveQueueLag(uploadedAt time.Time) {
	if uploadedAt.IsZero() {
		return
	}
	if lag := time.Since(uploadedAt); lag >= 0 {
		m.queueLag.Observe(lag.Seconds())
	}
}

// ProcessOutcome maps a processing error onto a worker outcome label.
func ProcessOutcome(err error) string {
	switch {
	case err == nil:
		return OutcomeProcessed
	case domain.IsKind(err, domain.ErrUnsupportedFormat), domain.IsKind(err, domain.ErrInvalidInput):
		return OutcomeRejected
	case domain.IsKind(err, domain.ErrDocumentNotFound):
		return OutcomeMissing
	case domain.IsKind(err, domain.ErrTemporary):
		return OutcomeRetry
	default:
		return OutcomeFailed
	}
}
