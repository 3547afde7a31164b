// Package metrics exposes Prometheus counters for the console.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tendant/simple-idm-console/pkg/revocation"
)

// Metrics holds the console's collectors.
type Metrics struct {
	registry *prometheus.Registry

	Revocations       *prometheus.CounterVec
	RevocationLatency prometheus.Histogram
	CacheFetches      *prometheus.CounterVec
	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
}

// New registers the console collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Revocations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "idm_console_revocations_total",
				Help: "Total number of session revocations by outcome",
			},
			[]string{"outcome"}, // succeeded, failed
		),
		RevocationLatency: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "idm_console_revocation_duration_seconds",
				Help:    "Duration of revoke commands against the management API",
				Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
		),
		CacheFetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "idm_console_cache_fetches_total",
				Help: "Total number of cache reads by result",
			},
			[]string{"result"}, // hit, miss, error
		),
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "idm_console_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "idm_console_http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method"},
		),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveCacheFetch counts a cache read. It matches cache.Config.Observe.
func (m *Metrics) ObserveCacheFetch(result string) {
	m.CacheFetches.WithLabelValues(result).Inc()
}

// ObserveTransition counts terminal revocation states. It matches
// revocation.Config.OnTransition.
func (m *Metrics) ObserveTransition(from, to revocation.State) {
	switch to {
	case revocation.StateSucceeded, revocation.StateFailed:
		m.Revocations.WithLabelValues(to.String()).Inc()
	}
}

// RecordRevocation observes the latency of a completed revoke command.
func (m *Metrics) RecordRevocation(_ context.Context, outcome revocation.Outcome) {
	m.RevocationLatency.Observe(outcome.Duration.Seconds())
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(method string, status int, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}
