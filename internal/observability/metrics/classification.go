package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/docuscan/internal/core/domain"
)

const namespace = "docuscan"

// ClassificationMetrics counts pipeline outcomes. It is registered on the
// registry of the process that runs the pipeline.
type ClassificationMetrics struct {
	service string

	total      *prometheus.CounterVec
	caseTypes  *prometheus.CounterVec
	urgency    *prometheus.CounterVec
	degraded   *prometheus.CounterVec
	hints      *prometheus.CounterVec
	duration   prometheus.Histogram
	confidence *prometheus.HistogramVec
}

func NewClassificationMetrics(service string, registerer prometheus.Registerer) *ClassificationMetrics {
	m := &ClassificationMetrics{
		service: service,
		total: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "classification",
			Name:      "total",
			Help:      "Total classifications by outcome.",
		}, []string{"service", "outcome"}),
		caseTypes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "classification",
			Name:      "case_type_total",
			Help:      "Classifications by resulting case type.",
		}, []string{"service", "case_type"}),
		urgency: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "classification",
			Name:      "urgency_total",
			Help:      "Classifications by resulting urgency level.",
		}, []string{"service", "urgency"}),
		degraded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "classification",
			Name:      "degraded_components_total",
			Help:      "Sub-component failures that fell back to defaults.",
		}, []string{"service", "component"}),
		hints: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "classification",
			Name:      "hints_applied_total",
			Help:      "Uploader hints used because heuristics found nothing.",
		}, []string{"service", "hint"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "classification",
			Name:        "duration_seconds",
			Help:        "Pipeline duration in seconds.",
			Buckets:     []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			ConstLabels: prometheus.Labels{"service": service},
		}),
		confidence: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "classification",
			Name:      "confidence",
			Help:      "Distribution of case-type and urgency confidence.",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		}, []string{"service", "dimension"}),
	}
	registerer.MustRegister(m.total, m.caseTypes, m.urgency, m.degraded, m.hints, m.duration, m.confidence)
	return m
}

func (m *ClassificationMetrics) ObserveClassification(result domain.ClassificationResult, duration time.Duration) {
	outcome := "ok"
	if len(result.Degraded) > 0 {
		outcome = "degraded"
	}
	m.total.WithLabelValues(m.service, outcome).Inc()
	m.caseTypes.WithLabelValues(m.service, string(result.CaseType)).Inc()
	m.urgency.WithLabelValues(m.service, string(result.Urgency)).Inc()
	for _, component := range result.Degraded {
		m.degraded.WithLabelValues(m.service, component).Inc()
	}
	for _, hint := range result.HintsApplied {
		m.hints.WithLabelValues(m.service, hint).Inc()
	}
	m.duration.Observe(duration.Seconds())
	m.confidence.WithLabelValues(m.service, "case_type").Observe(result.CaseTypeConfidence)
	m.confidence.WithLabelValues(m.service, "urgency").Observe(result.UrgencyConfidence)
}
