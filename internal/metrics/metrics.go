// Package metrics provides Prometheus metrics for the portfolio backend.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Chat outcomes used as the "outcome" label.
const (
	OutcomeOK                  = "ok"
	OutcomeQuotaExceeded       = "quota_exceeded"
	OutcomeValidationError     = "validation_error"
	OutcomeUpstreamUnavailable = "upstream_unavailable"
	OutcomeUpstreamRejected    = "upstream_rejected"
	OutcomeError               = "error"
)

type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	ChatRequestsTotal    *prometheus.CounterVec
	ChatUpstreamDuration *prometheus.HistogramVec
	ChatFallbackReplies  prometheus.Counter

	ContactSubmissionsTotal prometheus.Counter
	JobsProcessedTotal      *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers all metrics on reg. Pass prometheus.NewRegistry() in tests.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portfolio_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "portfolio_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		ChatRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portfolio_chat_requests_total",
				Help: "Chat requests by outcome",
			},
			[]string{"outcome"},
		),
		ChatUpstreamDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "portfolio_chat_upstream_duration_seconds",
				Help:    "Latency of completion service calls",
				Buckets: []float64{.1, .25, .5, 1, 2, 4, 8, 16, 32},
			},
			[]string{"provider"},
		),
		ChatFallbackReplies: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "portfolio_chat_fallback_replies_total",
				Help: "Completions that returned no usable choice",
			},
		),
		ContactSubmissionsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "portfolio_contact_submissions_total",
				Help: "Contact form submissions persisted",
			},
		),
		JobsProcessedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portfolio_jobs_processed_total",
				Help: "Background jobs processed by type and status",
			},
			[]string{"type", "status"},
		),
		gatherer: reg,
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
