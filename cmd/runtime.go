package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/zjrosen/tourscout/internal/backend"
	"github.com/zjrosen/tourscout/internal/config"
	"github.com/zjrosen/tourscout/internal/flags"
	"github.com/zjrosen/tourscout/internal/log"
	"github.com/zjrosen/tourscout/internal/obs"
	"github.com/zjrosen/tourscout/internal/search"
	"github.com/zjrosen/tourscout/internal/tracing"
)

// runtime is everything a command needs to run searches: the backend,
// the controller and their observability.
type runtime struct {
	tracing *tracing.Provider
	metrics *obs.Metrics
	server  *obs.Server // nil unless metrics.addr is set
	sim     *backend.Simulator
	dir     *backend.Directory
	flags   *flags.Registry
	ctrl    *search.Controller
}

func newRuntime(ctx context.Context, c config.Config) (*runtime, error) {
	tp, err := tracing.NewProvider(c.Tracing)
	if err != nil {
		return nil, fmt.Errorf("starting tracing: %w", err)
	}

	metrics := obs.NewMetrics(prometheus.NewRegistry())
	sim := backend.New(c.Backend,
		backend.WithTracer(tp.Tracer()),
		backend.WithObserver(metrics),
	)
	fl := flags.New(c.Flags)

	ctrl := search.New(sim,
		search.WithPolicy(c.Search.Policy()),
		search.WithCallTimeout(c.Search.CallTimeout),
		search.WithTracer(tp.Tracer()),
		search.WithMetrics(metrics),
		search.WithResetCancels(fl.Enabled(flags.FlagResetCancels)),
	)

	rt := &runtime{
		tracing: tp,
		metrics: metrics,
		sim:     sim,
		dir:     backend.NewDirectory(),
		flags:   fl,
		ctrl:    ctrl,
	}
	metrics.WatchCache("hotels", rt.dir.CacheStats)
	metrics.WatchJobs(sim.Jobs)

	if c.Metrics.Addr != "" {
		srv, err := obs.Listen(c.Metrics.Addr, obs.Routes(metrics, ctrl))
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("metrics server: %w", err)
		}
		rt.server = srv
		go func() {
			if err := srv.Serve(ctx); err != nil {
				log.WarnErr(log.CatMetrics, "metrics server stopped", err)
			}
		}()
	}
	return rt, nil
}

// applyConfig pushes a reloaded config into the running controller.
func (r *runtime) applyConfig(c config.Config) {
	if err := r.ctrl.UpdatePolicy(c.Search.Policy()); err != nil {
		log.WarnErr(log.CatConfig, "Policy update rejected", err)
	}
	r.flags.Update(c.Flags)
}

func (r *runtime) Close() {
	r.ctrl.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.tracing.Shutdown(ctx); err != nil {
		log.WarnErr(log.CatTrace, "tracing shutdown failed", err)
	}
}
