package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the relay's collectors on a private registry
type Metrics struct {
	registry    *prometheus.Registry
	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	uploadBytes *prometheus.HistogramVec
	swept       prometheus.Counter
}

// New creates the relay collectors on a private registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "genrelay_requests_total",
			Help: "HTTP requests by endpoint and status code",
		}, []string{"endpoint", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "genrelay_request_duration_seconds",
			Help:    "End-to-end request latency, model call included",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"endpoint"}),
		uploadBytes: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "genrelay_upload_bytes",
			Help:    "Size of accepted uploads",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
		}, []string{"endpoint"}),
		swept: factory.NewCounter(prometheus.CounterOpts{
			Name: "genrelay_uploads_swept_total",
			Help: "Stale uploads removed by the janitor",
		}),
	}
}

// ObserveRequest counts a finished request and records its latency
func (m *Metrics) ObserveRequest(endpoint string, status int, d time.Duration) {
	m.requests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// ObserveUpload records the size of an accepted upload
func (m *Metrics) ObserveUpload(endpoint string, size int64) {
	m.uploadBytes.WithLabelValues(endpoint).Observe(float64(size))
}

// AddSwept counts uploads removed by the janitor
func (m *Metrics) AddSwept(n int) {
	m.swept.Add(float64(n))
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
