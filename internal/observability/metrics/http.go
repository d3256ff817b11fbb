package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// knownRoutes bounds the path label; anything else is reported as "other".
var knownRoutes = map[string]bool{
	"/healthz":        true,
	"/metrics":        true,
	"/v1/documents":   true,
	"/v1/statistics":  true,
	"/v1/export":      true,
	"/v1/classify":    true,
	documentItemRoute: true,
}

const documentItemRoute = "/v1/documents/{id}"

// HTTPServerMetrics owns the API registry. Request metrics come from the
// middleware; the Record methods cover upload, search and export outcomes.
type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	inFlight prometheus.Gauge

	uploads       *prometheus.CounterVec
	uploadBytes   *prometheus.HistogramVec
	exports       *prometheus.CounterVec
	searchResults prometheus.Histogram
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	constLabels := prometheus.Labels{"service": service}
	m := &HTTPServerMetrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "http",
			Name:        "requests_total",
			Help:        "HTTP requests by route and status code.",
			ConstLabels: constLabels,
		}, []string{"method", "path", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "http",
			Name:        "request_duration_seconds",
			Help:        "HTTP request latency by route.",
			ConstLabels: constLabels,
			Buckets:     []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method", "path"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "http",
			Name:        "in_flight_requests",
			Help:        "Requests currently being served.",
			ConstLabels: constLabels,
		}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "ingest",
			Name:        "uploads_total",
			Help:        "Uploads by file extension and outcome.",
			ConstLabels: constLabels,
		}, []string{"extension", "outcome"}),
		uploadBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "ingest",
			Name:        "upload_bytes",
			Help:        "Size of accepted uploads.",
			ConstLabels: constLabels,
			Buckets:     prometheus.ExponentialBuckets(1024, 4, 9),
		}, []string{"extension"}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "export",
			Name:        "requests_total",
			Help:        "Exports by format.",
			ConstLabels: constLabels,
		}, []string{"format"}),
		searchResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "search",
			Name:        "results",
			Help:        "Total hits per search request.",
			ConstLabels: constLabels,
			Buckets:     []float64{0, 1, 5, 10, 20, 50, 100, 500, 1000},
		}),
	}
	m.registry.MustRegister(m.requests, m.latency, m.inFlight, m.uploads, m.uploadBytes, m.exports, m.searchResults)
	return m
}

// Registry lets other collectors share the /metrics endpoint.
func (m *HTTPServerMetrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(next http.Handler) http.Handler {
	counted := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		route := routeLabel(r.URL.Path)
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(sw.status)).Inc()
		m.latency.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
	return promhttp.InstrumentHandlerInFlight(m.inFlight, counted)
}

func routeLabel(path string) string {
	if rest, ok := strings.CutPrefix(path, "/v1/documents/"); ok && rest != "" {
		return documentItemRoute
	}
	if knownRoutes[path] {
		return path
	}
	return "other"
}

func (m *HTTPServerMetrics) RecordUpload(extension string, size int64, err error) {
	if extension == "" {
		extension = "none"
	}
	if err != nil {
		m.uploads.WithLabelValues(extension, "rejected").Inc()
		return
	}
	m.uploads.WithLabelValues(extension, "accepted").Inc()
	if size >= 0 {
		m.uploadBytes.WithLabelValues(extension).Observe(float64(size))
	}
}

func (m *HTTPServerMetrics) RecordExport(format string) {
	m.exports.WithLabelValues(format).Inc()
}

func (m *HTTPServerMetrics) RecordSearch(total uint64) {
	m.searchResults.Observe(float64(total))
}

type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
