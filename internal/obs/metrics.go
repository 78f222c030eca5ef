// Package obs exposes Prometheus metrics for the search controller and the
// simulated backend, and an HTTP server that serves them.
package obs

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zjrosen/tourscout/internal/backend"
	"github.com/zjrosen/tourscout/internal/search"
)

// Metrics holds every collector. It implements search.Metrics and
// backend.Observer.
type Metrics struct {
	SearchesLaunched prometheus.Counter
	SearchesFinished *prometheus.CounterVec
	SearchDuration   *prometheus.HistogramVec
	Polls            *prometheus.CounterVec
	Cancels          *prometheus.CounterVec
	StaleResponses   prometheus.Counter
	PendingTimers    prometheus.Gauge

	BackendCalls   *prometheus.CounterVec
	BackendLatency *prometheus.HistogramVec

	HTTPRequestDuration *prometheus.HistogramVec
	HTTPRequestsTotal   *prometheus.CounterVec

	Registry *prometheus.Registry
}

var (
	_ search.Metrics   = (*Metrics)(nil)
	_ backend.Observer = (*Metrics)(nil)
)

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		SearchesLaunched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tourscout_searches_launched_total",
			Help: "Searches sent to the backend",
		}),
		SearchesFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tourscout_searches_finished_total",
			Help: "Searches that reached an end state, by outcome",
		}, []string{"outcome"}),
		SearchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tourscout_search_duration_seconds",
			Help:    "Time from launch to end state",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 8),
		}, []string{"outcome"}),
		Polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tourscout_polls_total",
			Help: "Poll outcomes for the active token",
		}, []string{"result"}),
		Cancels: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tourscout_cancels_total",
			Help: "Backend cancel calls, by success",
		}, []string{"ok"}),
		StaleResponses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tourscout_stale_responses_total",
			Help: "Responses dropped because their token was no longer active",
		}),
		PendingTimers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tourscout_poll_timers_pending",
			Help: "Poll timers currently scheduled",
		}),
		BackendCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tourscout_backend_calls_total",
			Help: "Calls served by the simulated backend",
		}, []string{"op", "outcome"}),
		BackendLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tourscout_backend_latency_ms",
			Help:    "Latency of simulated backend calls",
			Buckets: prometheus.LinearBuckets(5, 50, 12),
		}, []string{"op"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		}, []string{"method", "path", "status"}),
		Registry: reg,
	}

	reg.MustRegister(
		m.SearchesLaunched,
		m.SearchesFinished,
		m.SearchDuration,
		m.Polls,
		m.Cancels,
		m.StaleResponses,
		m.PendingTimers,
		m.BackendCalls,
		m.BackendLatency,
		m.HTTPRequestDuration,
		m.HTTPRequestsTotal,
	)
	return m
}

func (m *Metrics) SearchLaunched() { m.SearchesLaunched.Inc() }

func (m *Metrics) SearchFinished(outcome string, elapsed time.Duration) {
	m.SearchesFinished.WithLabelValues(outcome).Inc()
	m.SearchDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

func (m *Metrics) PollCompleted(result string) { m.Polls.WithLabelValues(result).Inc() }

func (m *Metrics) CancelCompleted(ok bool) {
	m.Cancels.WithLabelValues(strconv.FormatBool(ok)).Inc()
}

func (m *Metrics) StaleDropped() { m.StaleResponses.Inc() }

func (m *Metrics) TimersPending(n int) { m.PendingTimers.Set(float64(n)) }

func (m *Metrics) ObserveBackendCall(op, outcome string, elapsed time.Duration) {
	m.BackendCalls.WithLabelValues(op, outcome).Inc()
	m.BackendLatency.WithLabelValues(op).Observe(float64(elapsed.Milliseconds()))
}

// WatchCache exports the hit and miss counts of a read-through cache under
// the cache=name label. stats is read at scrape time.
func (m *Metrics) WatchCache(name string, stats func() (hits, misses int64)) {
	labels := prometheus.Labels{"cache": name}
	m.Registry.MustRegister(
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name:        "tourscout_cache_hits_total",
			Help:        "Read-through cache lookups served from the cache",
			ConstLabels: labels,
		}, func() float64 {
			hits, _ := stats()
			return float64(hits)
		}),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name:        "tourscout_cache_misses_total",
			Help:        "Read-through cache lookups that went to the loader",
			ConstLabels: labels,
		}, func() float64 {
			_, misses := stats()
			return float64(misses)
		}),
	)
}

// WatchJobs exports the number of jobs the backend holds.
func (m *Metrics) WatchJobs(count func() int) {
	m.Registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "tourscout_backend_jobs",
		Help: "Search jobs held by the simulated backend, cancelled ones included",
	}, func() float64 { return float64(count()) }))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
