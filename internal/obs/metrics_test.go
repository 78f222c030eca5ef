package obs

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/tourscout/internal/backend"
	"github.com/zjrosen/tourscout/internal/search"
)

func TestMetrics_SearchCounters(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.SearchLaunched()
	m.SearchLaunched()
	m.SearchFinished(search.OutcomeSuccess, 3*time.Second)
	m.SearchFinished(search.OutcomeSuperseded, time.Second)
	m.PollCompleted(search.PollNotReady)
	m.PollCompleted(search.PollNotReady)
	m.PollCompleted(search.PollResults)
	m.CancelCompleted(true)
	m.CancelCompleted(false)
	m.StaleDropped()
	m.TimersPending(1)

	require.Equal(t, 2.0, testutil.ToFloat64(m.SearchesLaunched))
	require.Equal(t, 1.0, testutil.ToFloat64(m.SearchesFinished.WithLabelValues(search.OutcomeSuccess)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.SearchesFinished.WithLabelValues(search.OutcomeSuperseded)))
	require.Equal(t, 2.0, testutil.ToFloat64(m.Polls.WithLabelValues(search.PollNotReady)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Polls.WithLabelValues(search.PollResults)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Cancels.WithLabelValues("true")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Cancels.WithLabelValues("false")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.StaleResponses))
	require.Equal(t, 1.0, testutil.ToFloat64(m.PendingTimers))
	require.Equal(t, 2, testutil.CollectAndCount(m.SearchDuration))
}

func TestMetrics_BackendCalls(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveBackendCall("poll", backend.CallNotReady, 20*time.Millisecond)
	m.ObserveBackendCall("poll", backend.CallOK, 20*time.Millisecond)
	m.ObserveBackendCall("start", backend.CallOK, 5*time.Millisecond)

	require.Equal(t, 1.0, testutil.ToFloat64(m.BackendCalls.WithLabelValues("poll", backend.CallNotReady)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.BackendCalls.WithLabelValues("start", backend.CallOK)))
	require.Equal(t, 2, testutil.CollectAndCount(m.BackendLatency))
}

func TestMetrics_DrivenByController(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	sim := backend.New(backend.Config{JobTTL: time.Minute, Seed: 1})

	c := search.New(sim,
		search.WithMetrics(m),
		search.WithPolicy(search.Policy{PollInterval: 10 * time.Millisecond, MaxRetries: 2}),
	)
	defer c.Close()

	require.NoError(t, c.StartSearch(search.Criteria{CountryID: "PL"}))
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(m.SearchesFinished.WithLabelValues(search.OutcomeSuccess)) == 1
	}, 5*time.Second, 5*time.Millisecond)
	require.Equal(t, 1.0, testutil.ToFloat64(m.SearchesLaunched))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Polls.WithLabelValues(search.PollResults)))
}

func TestMetrics_WatchCache(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	dir := backend.NewDirectory()
	m.WatchCache("hotels", dir.CacheStats)

	for i := 0; i < 3; i++ {
		_, err := dir.HotelsByCountry(context.Background(), "UA")
		require.NoError(t, err)
	}

	expected := `
# HELP tourscout_cache_hits_total Read-through cache lookups served from the cache
# TYPE tourscout_cache_hits_total counter
tourscout_cache_hits_total{cache="hotels"} 2
# HELP tourscout_cache_misses_total Read-through cache lookups that went to the loader
# TYPE tourscout_cache_misses_total counter
tourscout_cache_misses_total{cache="hotels"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"tourscout_cache_hits_total", "tourscout_cache_misses_total"))
}

func TestMetrics_WatchJobs(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	sim := backend.New(backend.Config{JobTTL: time.Minute, Seed: 1})
	m.WatchJobs(sim.Jobs)

	_, err := sim.StartSearch(context.Background(), search.Criteria{CountryID: "UA"})
	require.NoError(t, err)
	_, err = sim.StartSearch(context.Background(), search.Criteria{CountryID: "PL"})
	require.NoError(t, err)

	expected := `
# HELP tourscout_backend_jobs Search jobs held by the simulated backend, cancelled ones included
# TYPE tourscout_backend_jobs gauge
tourscout_backend_jobs 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "tourscout_backend_jobs"))
}
