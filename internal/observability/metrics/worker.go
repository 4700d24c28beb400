package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry
	standing *StandingMetrics
	service  string

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "standing",
			Subsystem: "worker",
			Name:      "batch_requests_total",
			Help:      "Total batch requests handled by status.",
		},
		[]string{"service", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "standing",
			Subsystem: "worker",
			Name:      "batch_request_duration_seconds",
			Help:      "Batch request handling duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "standing",
			Subsystem: "worker",
			Name:      "batch_requests_in_flight",
			Help:      "Number of in-flight batch requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(requestTotal, requestDuration, requestInFlight)

	return &WorkerMetrics{
		registry:        registry,
		standing:        NewStandingMetrics(service, registry),
		service:         service,
		requestTotal:    requestTotal,
		requestDuration: requestDuration,
		requestInFlight: requestInFlight,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) Standing() *StandingMetrics {
	return m.standing
}

func (m *WorkerMetrics) StartBatch() {
	m.requestInFlight.Inc()
}

func (m *WorkerMetrics) FinishBatch(duration time.Duration, err error) {
	m.requestInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}
	m.requestTotal.WithLabelValues(m.service, status).Inc()
	m.requestDuration.WithLabelValues(m.service, status).Observe(duration.Seconds())
}
