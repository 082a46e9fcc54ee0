// Package metrics exposes Prometheus counters for token outcomes and gRPC
// calls on a private registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gophauth"

type Metrics struct {
	registry *prometheus.Registry

	tokensIssued    *prometheus.CounterVec
	tokensRejected  *prometheus.CounterVec
	requestCount    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		tokensIssued: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "tokens",
				Name:      "issued_total",
				Help:      "Access/refresh token pairs issued, by flow.",
			},
			[]string{"flow"},
		),
		tokensRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "tokens",
				Name:      "rejected_total",
				Help:      "Token requests rejected, by flow and reason.",
			},
			[]string{"flow", "reason"},
		),
		requestCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "grpc",
				Name:      "requests_total",
				Help:      "gRPC requests handled, by method and status code.",
			},
			[]string{"method", "code"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "grpc",
				Name:      "request_duration_seconds",
				Help:      "gRPC request latency in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
	}

	m.registry.MustRegister(
		m.tokensIssued,
		m.tokensRejected,
		m.requestCount,
		m.requestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) TokenIssued(flow string) {
	m.tokensIssued.WithLabelValues(flow).Inc()
}

func (m *Metrics) TokenRejected(flow, reason string) {
	m.tokensRejected.WithLabelValues(flow, reason).Inc()
}

// ObserveRequest records one handled gRPC call.
func (m *Metrics) ObserveRequest(method, code string, took time.Duration) {
	m.requestCount.WithLabelValues(method, code).Inc()
	m.requestDuration.WithLabelValues(method).Observe(took.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
