// Package backend is an in-process search backend. It behaves like the
// remote price search service: start returns a token and an estimated
// ready time, polls before that time answer not-ready, and calls fail at
// configurable rates so the controller's retry path is exercised.
package backend

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/tourscout/internal/cachemanager"
	"github.com/zjrosen/tourscout/internal/log"
	"github.com/zjrosen/tourscout/internal/search"
	"github.com/zjrosen/tourscout/internal/tracing"
)

// Config tunes the simulated service.
type Config struct {
	MinReadyDelay time.Duration `mapstructure:"min_ready_delay" yaml:"min_ready_delay"`
	MaxReadyDelay time.Duration `mapstructure:"max_ready_delay" yaml:"max_ready_delay"`
	// NotReadyRate is the chance a poll after the ready time still finds
	// the job computing.
	NotReadyRate float64 `mapstructure:"not_ready_rate" yaml:"not_ready_rate"`
	// FailRate is the chance a poll fails outright.
	FailRate       float64       `mapstructure:"fail_rate" yaml:"fail_rate"`
	CancelFailRate float64       `mapstructure:"cancel_fail_rate" yaml:"cancel_fail_rate"`
	Latency        time.Duration `mapstructure:"latency" yaml:"latency"`
	JobTTL         time.Duration `mapstructure:"job_ttl" yaml:"job_ttl"`
	// Seed fixes the random source. Zero seeds from the clock.
	Seed uint64 `mapstructure:"seed" yaml:"seed"`
}

// DefaultConfig returns the defaults used when no config file is present.
func DefaultConfig() Config {
	return Config{
		MinReadyDelay:  1 * time.Second,
		MaxReadyDelay:  4 * time.Second,
		NotReadyRate:   0.2,
		FailRate:       0.1,
		CancelFailRate: 0.05,
		Latency:        150 * time.Millisecond,
		JobTTL:         10 * time.Minute,
	}
}

// Observer receives per-call outcomes. obs.Metrics implements it.
type Observer interface {
	ObserveBackendCall(op, outcome string, elapsed time.Duration)
}

// Backend call outcomes passed to Observer.
const (
	CallOK       = "ok"
	CallNotReady = "not_ready"
	CallFailed   = "failed"
)

type job struct {
	token     search.Token
	criteria  search.Criteria
	created   time.Time
	readyAt   time.Time
	cancelled bool
}

// Simulator implements search.API in memory.
type Simulator struct {
	cfg      Config
	now      func() time.Time
	tracer   trace.Tracer
	observer Observer

	mu  sync.Mutex
	rng *rand.Rand

	jobs *cachemanager.InMemoryCacheManager[search.Token, *job]
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithNow replaces the time source.
func WithNow(now func() time.Time) Option {
	return func(s *Simulator) { s.now = now }
}

// WithTracer records a span per backend call.
func WithTracer(t trace.Tracer) Option {
	return func(s *Simulator) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithObserver reports call outcomes.
func WithObserver(o Observer) Option {
	return func(s *Simulator) { s.observer = o }
}

// New creates a simulator.
func New(cfg Config, opts ...Option) *Simulator {
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = DefaultConfig().JobTTL
	}
	if cfg.MaxReadyDelay < cfg.MinReadyDelay {
		cfg.MaxReadyDelay = cfg.MinReadyDelay
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano()) //nolint:gosec // non-negative
	}

	s := &Simulator{
		cfg:    cfg,
		now:    time.Now,
		tracer: noop.NewTracerProvider().Tracer("backend"),
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
	s.jobs = cachemanager.NewInMemoryCacheManager[search.Token, *job]("jobs", cfg.JobTTL, time.Minute,
		cachemanager.WithOnEvicted(func(token search.Token, _ *job) {
			log.Debug(log.CatBackend, "job evicted", "token", token)
		}),
	)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Jobs returns the number of jobs held, including cancelled ones.
func (s *Simulator) Jobs() int {
	return s.jobs.Count()
}

// StartSearch registers a job and returns its token.
func (s *Simulator) StartSearch(ctx context.Context, criteria search.Criteria) (resp search.StartResponse, err error) {
	ctx, done := s.call(ctx, "start")
	defer func() { done(err) }()

	if err := s.sleep(ctx); err != nil {
		return search.StartResponse{}, err
	}
	if err := validate(criteria); err != nil {
		return search.StartResponse{}, err
	}

	now := s.now()
	j := &job{
		token:    search.Token(uuid.NewString()),
		criteria: criteria,
		created:  now,
		readyAt:  now.Add(s.readyDelay()),
	}
	s.jobs.Set(ctx, j.token, j, s.cfg.JobTTL)

	trace.SpanFromContext(ctx).SetAttributes(attribute.String(tracing.AttrSearchToken, string(j.token)))
	log.Debug(log.CatBackend, "job created", "token", j.token, "criteria", criteria, "ready_at", j.readyAt.Format(time.RFC3339))
	return search.StartResponse{Token: j.token, ReadyAt: j.readyAt}, nil
}

// PollSearch returns the job's results once it is ready.
func (s *Simulator) PollSearch(ctx context.Context, token search.Token) (rs search.ResultSet, err error) {
	ctx, done := s.call(ctx, "poll")
	defer func() { done(err) }()

	if err := s.sleep(ctx); err != nil {
		return nil, err
	}

	j, ok := s.jobs.Get(ctx, token)
	if !ok {
		return nil, fmt.Errorf("poll %s: %w", token, ErrJobNotFound)
	}

	s.mu.Lock()
	cancelled := j.cancelled
	readyAt := j.readyAt
	s.mu.Unlock()

	if cancelled {
		return nil, fmt.Errorf("poll %s: %w", token, ErrCancelled)
	}
	if s.now().Before(readyAt) {
		return nil, fmt.Errorf("poll %s before %s: %w", token, readyAt.Format(time.RFC3339), search.ErrNotReady)
	}
	if s.roll(s.cfg.FailRate) {
		return nil, fmt.Errorf("poll %s: %w", token, ErrSimulatedFailure)
	}
	if s.roll(s.cfg.NotReadyRate) {
		return nil, fmt.Errorf("poll %s: still computing: %w", token, search.ErrNotReady)
	}

	return generateTours(j.token, j.criteria, j.created), nil
}

// CancelSearch marks the job cancelled. Later polls answer ErrCancelled
// until the job expires.
func (s *Simulator) CancelSearch(ctx context.Context, token search.Token) (err error) {
	ctx, done := s.call(ctx, "cancel")
	defer func() { done(err) }()

	if err := s.sleep(ctx); err != nil {
		return err
	}

	j, ok := s.jobs.Get(ctx, token)
	if !ok {
		return fmt.Errorf("cancel %s: %w", token, ErrJobNotFound)
	}
	if s.roll(s.cfg.CancelFailRate) {
		return fmt.Errorf("cancel %s: %w", token, ErrSimulatedFailure)
	}

	s.mu.Lock()
	j.cancelled = true
	s.mu.Unlock()

	log.Debug(log.CatBackend, "job cancelled", "token", token)
	return nil
}

// call opens a span for op and returns a func that closes it and reports
// the outcome.
func (s *Simulator) call(ctx context.Context, op string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, tracing.SpanPrefixBackend+op, trace.WithSpanKind(trace.SpanKindServer))

	return ctx, func(err error) {
		outcome := CallOK
		switch {
		case err == nil:
		case search.IsNotReady(err):
			outcome = CallNotReady
		default:
			outcome = CallFailed
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		elapsed := time.Since(start)
		span.SetAttributes(attribute.Int64(tracing.AttrBackendLatency, elapsed.Milliseconds()))
		span.End()
		if s.observer != nil {
			s.observer.ObserveBackendCall(op, outcome, elapsed)
		}
	}
}

func (s *Simulator) sleep(ctx context.Context) error {
	if s.cfg.Latency <= 0 {
		return ctx.Err()
	}
	s.mu.Lock()
	// Jitter between half and one and a half times the configured latency.
	d := s.cfg.Latency/2 + time.Duration(s.rng.Int64N(int64(s.cfg.Latency)+1))
	s.mu.Unlock()

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (s *Simulator) readyDelay() time.Duration {
	span := s.cfg.MaxReadyDelay - s.cfg.MinReadyDelay
	if span <= 0 {
		return s.cfg.MinReadyDelay
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.MinReadyDelay + time.Duration(s.rng.Int64N(int64(span)+1))
}

func (s *Simulator) roll(rate float64) bool {
	if rate <= 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64() < rate
}

func validate(c search.Criteria) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if _, ok := LookupCountry(c.CountryID); !ok {
		return fmt.Errorf("start %q: %w", c.CountryID, ErrUnknownCountry)
	}
	if c.CityID != "" {
		city, ok := cityByID[c.CityID]
		if !ok || city.CountryID != c.CountryID {
			return fmt.Errorf("start %q city %q: %w", c.CountryID, c.CityID, ErrUnknownCity)
		}
	}
	return nil
}

// generateTours builds the offers of a job. The same token always yields
// the same tours.
func generateTours(token search.Token, c search.Criteria, created time.Time) search.ResultSet {
	h := fnv.New64a()
	_, _ = h.Write([]byte(token))
	r := rand.New(rand.NewPCG(h.Sum64(), 0x70757273))

	day := created.UTC().Truncate(24 * time.Hour)
	rs := search.ResultSet{}
	for _, hotel := range hotelsOf(c.CountryID) {
		if c.CityID != "" && hotel.CityID != c.CityID {
			continue
		}
		if c.HotelID != "" && hotel.ID != c.HotelID {
			continue
		}
		offers := 1 + r.IntN(3)
		for i := 0; i < offers; i++ {
			start := day.AddDate(0, 0, 7+r.IntN(60))
			nights := 5 + r.IntN(10)
			amount := float64(hotel.Stars*3500 + nights*1200 + r.IntN(15000))
			id := fmt.Sprintf("%s-%s-%d", shortToken(token), hotel.ID, i)
			rs[id] = search.TourRecord{
				ID:        id,
				HotelID:   hotel.ID,
				StartDate: start,
				EndDate:   start.AddDate(0, 0, nights),
				Amount:    amount,
				Currency:  "uah",
			}
		}
	}
	return rs
}

func shortToken(t search.Token) string {
	if len(t) > 8 {
		return string(t[:8])
	}
	return string(t)
}
