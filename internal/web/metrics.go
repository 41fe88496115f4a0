package web

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metrics tracks preview server activity:
//   - docsplice_page_requests_total: rendered page requests by status
//   - docsplice_snippets_expanded_total: snippet inclusions performed
//   - docsplice_expand_problems_total: expansion diagnostics by severity
//   - docsplice_render_seconds: parse+expand+render latency
type metrics struct {
	registry *prometheus.Registry

	requests *prometheus.CounterVec
	expanded prometheus.Counter
	problems *prometheus.CounterVec
	duration prometheus.Histogram
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "docsplice",
				Name:      "page_requests_total",
				Help:      "Rendered page requests by HTTP status",
			},
			[]string{"status"},
		),
		expanded: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "docsplice",
				Name:      "snippets_expanded_total",
				Help:      "Total snippet inclusions performed",
			},
		),
		problems: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "docsplice",
				Name:      "expand_problems_total",
				Help:      "Expansion diagnostics by severity",
			},
			[]string{"severity"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "docsplice",
				Name:      "render_seconds",
				Help:      "Time spent parsing, expanding, and rendering a page",
				Buckets:   prometheus.DefBuckets,
			},
		),
	}

	m.registry.MustRegister(
		m.requests,
		m.expanded,
		m.problems,
		m.duration,
	)
	return m
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
