// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the metrics surface used by services and middleware.
type Recorder interface {
	RecordOutcome(gameType, result string)
	RecordHTTPRequest(method, route string, status int, duration time.Duration)
	RecordAuthFailure(reason string)
}

// Collector is the Prometheus implementation of Recorder.
type Collector struct {
	outcomes     *prometheus.CounterVec
	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
	authFailures *prometheus.CounterVec
}

var _ Recorder = (*Collector)(nil)

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "minigames_outcomes_recorded_total",
			Help: "Game outcomes recorded, by game type and result.",
		}, []string{"game_type", "result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "minigames_http_requests_total",
			Help: "HTTP responses by method, route and status code.",
		}, []string{"method", "route", "status_code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "minigames_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		authFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "minigames_auth_failures_total",
			Help: "Rejected authentication attempts by reason.",
		}, []string{"reason"}),
	}

	reg.MustRegister(
		c.outcomes,
		c.httpRequests,
		c.httpLatency,
		c.authFailures,
	)

	return c
}

// RecordOutcome counts a recorded outcome.
func (c *Collector) RecordOutcome(gameType, result string) {
	c.outcomes.WithLabelValues(gameType, result).Inc()
}

// RecordHTTPRequest counts a finished request and observes its latency.
func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpLatency.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordAuthFailure counts a rejected login, signup or token.
func (c *Collector) RecordAuthFailure(reason string) {
	c.authFailures.WithLabelValues(reason).Inc()
}

// Handler returns the HTTP handler for Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordOutcome(string, string)                         {}
func (Nop) RecordHTTPRequest(string, string, int, time.Duration) {}
func (Nop) RecordAuthFailure(string)                             {}
