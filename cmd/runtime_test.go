package cmd

import (
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/tourscout/internal/config"
	"github.com/zjrosen/tourscout/internal/flags"
	"github.com/zjrosen/tourscout/internal/search"
)

// quickConfig returns defaults with a backend that answers at once and
// never fails.
func quickConfig() config.Config {
	c := config.Defaults()
	c.Search.PollInterval = 10 * time.Millisecond
	c.Backend.MinReadyDelay = 0
	c.Backend.MaxReadyDelay = 0
	c.Backend.Latency = 0
	c.Backend.NotReadyRate = 0
	c.Backend.FailRate = 0
	c.Backend.CancelFailRate = 0
	c.Backend.Seed = 1
	return c
}

func awaitSettled(t *testing.T, rt *runtime, target search.Criteria) search.Snapshot {
	t.Helper()
	snap, err := rt.ctrl.Await(t.Context(), func(s search.Snapshot) bool {
		return s.Settled() && s.Criteria == target
	})
	require.NoError(t, err)
	return snap
}

func TestRuntime_SearchSucceeds(t *testing.T) {
	rt, err := newRuntime(t.Context(), quickConfig())
	require.NoError(t, err)
	t.Cleanup(rt.Close)

	target := search.Criteria{CountryID: "UA", CityID: "101"}
	require.NoError(t, rt.ctrl.StartSearch(target))

	snap := awaitSettled(t, rt, target)
	require.Equal(t, search.PhaseSuccess, snap.Phase)
	require.NotEmpty(t, snap.Results)
	for _, tour := range snap.Results {
		require.Contains(t, []string{"1001", "1002"}, tour.HotelID)
	}
}

func TestRuntime_UnknownCountryErrors(t *testing.T) {
	rt, err := newRuntime(t.Context(), quickConfig())
	require.NoError(t, err)
	t.Cleanup(rt.Close)

	target := search.Criteria{CountryID: "XX"}
	require.NoError(t, rt.ctrl.StartSearch(target))

	snap := awaitSettled(t, rt, target)
	require.Equal(t, search.PhaseError, snap.Phase)
	require.NotEmpty(t, snap.Error)
}

func TestRuntime_ApplyConfig(t *testing.T) {
	rt, err := newRuntime(t.Context(), quickConfig())
	require.NoError(t, err)
	t.Cleanup(rt.Close)

	next := quickConfig()
	next.Search.MaxRetries = 5
	rt.applyConfig(next)

	// The controller keeps running with the new policy.
	target := search.Criteria{CountryID: "TR"}
	require.NoError(t, rt.ctrl.StartSearch(target))
	require.Equal(t, search.PhaseSuccess, awaitSettled(t, rt, target).Phase)
}

func TestRuntime_MetricsServer(t *testing.T) {
	c := quickConfig()
	c.Metrics.Addr = "127.0.0.1:0"

	rt, err := newRuntime(t.Context(), c)
	require.NoError(t, err)
	t.Cleanup(rt.Close)
	require.NotNil(t, rt.server)

	resp, err := http.Get("http://" + rt.server.Addr() + "/healthz")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ok", string(body))
}

func TestRuntime_ApplyConfigUpdatesFlags(t *testing.T) {
	rt, err := newRuntime(t.Context(), quickConfig())
	require.NoError(t, err)
	t.Cleanup(rt.Close)
	require.True(t, rt.flags.Enabled(flags.FlagKeepPreviousResults))

	next := quickConfig()
	next.Flags = map[string]bool{flags.FlagKeepPreviousResults: false}
	rt.applyConfig(next)

	require.False(t, rt.flags.Enabled(flags.FlagKeepPreviousResults))
}

func TestRuntime_ExportsCacheAndJobMetrics(t *testing.T) {
	rt, err := newRuntime(t.Context(), quickConfig())
	require.NoError(t, err)
	t.Cleanup(rt.Close)

	for i := 0; i < 3; i++ {
		_, err := rt.dir.HotelsByCountry(t.Context(), "UA")
		require.NoError(t, err)
	}
	target := search.Criteria{CountryID: "UA"}
	require.NoError(t, rt.ctrl.StartSearch(target))
	awaitSettled(t, rt, target)

	expected := `
# HELP tourscout_backend_jobs Search jobs held by the simulated backend, cancelled ones included
# TYPE tourscout_backend_jobs gauge
tourscout_backend_jobs 1
# HELP tourscout_cache_hits_total Read-through cache lookups served from the cache
# TYPE tourscout_cache_hits_total counter
tourscout_cache_hits_total{cache="hotels"} 2
# HELP tourscout_cache_misses_total Read-through cache lookups that went to the loader
# TYPE tourscout_cache_misses_total counter
tourscout_cache_misses_total{cache="hotels"} 1
`
	require.NoError(t, testutil.GatherAndCompare(rt.metrics.Registry, strings.NewReader(expected),
		"tourscout_backend_jobs", "tourscout_cache_hits_total", "tourscout_cache_misses_total"))
}
