package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the prometheus metrics of the signal server.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration prometheus.Histogram
}

// NewMetrics initializes and registers the server metrics on the provided
// registry.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "papersig_requests_total",
			Help: "Total HTTP requests served, by route and status code.",
		}, []string{"route", "code"}),
		RequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "papersig_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	registry.MustRegister(m.RequestsTotal, m.RequestDuration)

	return m
}
