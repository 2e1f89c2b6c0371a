package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes the automation service counters on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	runsTotal    *prometheus.CounterVec
	nodeDuration *prometheus.HistogramVec
	nodeFaults   *prometheus.CounterVec
	httpRequests *prometheus.CounterVec
}

// NewMetrics initializes and registers the collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	m := &Metrics{
		registry: registry,
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "automation_runs_total",
			Help: "Automation runs by terminal outcome.",
		}, []string{"outcome"}),
		nodeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "automation_node_duration_seconds",
			Help:    "Wall time spent in each pipeline node.",
			Buckets: prometheus.DefBuckets,
		}, []string{"node"}),
		nodeFaults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "automation_node_faults_total",
			Help: "Engine faults by failing node.",
		}, []string{"node"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route, method, and status.",
		}, []string{"path", "method", "status"}),
	}
	registry.MustRegister(m.runsTotal, m.nodeDuration, m.nodeFaults, m.httpRequests)
	return m
}

// RecordRun counts one finished run under its terminal outcome.
func (m *Metrics) RecordRun(outcome string) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(outcome).Inc()
}

// RecordNode observes one node execution.
func (m *Metrics) RecordNode(node string, duration time.Duration, faulted bool) {
	if m == nil {
		return
	}
	m.nodeDuration.WithLabelValues(node).Observe(duration.Seconds())
	if faulted {
		m.nodeFaults.WithLabelValues(node).Inc()
	}
}

// RecordRequest counts one HTTP request.
func (m *Metrics) RecordRequest(path, method string, status int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
