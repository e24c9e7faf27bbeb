package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors exported on /metrics. Each instance owns its
// registry so tests can build several servers side by side.
type Metrics struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	tasks           *prometheus.GaugeVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tasklist",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, action and status code.",
		}, []string{"route", "action", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tasklist",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		tasks: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "tasklist",
			Name:      "tasks",
			Help:      "Stored tasks by status as of the last scrape.",
		}, []string{"status"}),
	}
	m.registry.MustRegister(
		m.requests,
		m.requestDuration,
		m.tasks,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ObserveRequest(route, action string, code int, latency time.Duration) {
	m.requests.WithLabelValues(route, action, strconv.Itoa(code)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(latency.Seconds())
}

func (m *Metrics) SetTaskCount(status string, n int) {
	m.tasks.WithLabelValues(status).Set(float64(n))
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
