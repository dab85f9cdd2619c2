package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds the collectors exported on /metrics. Each server registers its
// own set so tests can build several servers in one process.
type Metrics struct {
	Registry *prometheus.Registry

	// RequestTotal counts HTTP requests by method, route and status.
	RequestTotal *prometheus.CounterVec
	// RequestDuration is the latency of HTTP requests.
	RequestDuration *prometheus.HistogramVec
	// SearchesTotal counts searches by topic and outcome.
	SearchesTotal *prometheus.CounterVec
	// SearchRows counts records returned per topic.
	SearchRows *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		RequestTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moneta_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "moneta_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		SearchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moneta_searches_total",
				Help: "Total number of topic searches",
			},
			[]string{"topic", "status"},
		),
		SearchRows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moneta_search_rows_total",
				Help: "Total number of records returned by topic searches",
			},
			[]string{"topic"},
		),
	}
	m.Registry.MustRegister(
		m.RequestTotal,
		m.RequestDuration,
		m.SearchesTotal,
		m.SearchRows,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}
