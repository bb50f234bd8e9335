// Package metrics holds the Prometheus collectors served at /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestsTotal counts HTTP requests by method, route template and status.
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geolookup_http_requests_total",
		Help: "HTTP requests by method, route and status code",
	}, []string{"method", "route", "status"})

	// RequestDuration observes HTTP latency per route template.
	RequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "geolookup_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
	}, []string{"route"})

	// LookupsTotal counts lookups by outcome: ok or the failure kind.
	LookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geolookup_lookups_total",
		Help: "Lookup pipeline invocations by outcome",
	}, []string{"outcome"})

	// ResolveDuration observes forward DNS resolution time.
	ResolveDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "geolookup_dns_resolve_duration_seconds",
		Help:    "Forward DNS resolution time in seconds",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	})

	// DatabaseReloadsTotal counts reload attempts by edition and result.
	DatabaseReloadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geolookup_database_reloads_total",
		Help: "Database reload attempts by edition and result",
	}, []string{"edition", "result"})

	// RateLimitedTotal counts requests rejected with 429.
	RateLimitedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geolookup_rate_limited_total",
		Help: "Requests rejected by the per-client rate limiter",
	})
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		LookupsTotal,
		ResolveDuration,
		DatabaseReloadsTotal,
		RateLimitedTotal,
	)
}

// Handler exposes the registered collectors for scraping.
func Handler() http.Handler { return promhttp.Handler() }
