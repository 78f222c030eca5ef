package search

import (
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const defaultQueueSize = 256

// Option configures a Controller.
type Option func(*options)

type options struct {
	clock        Clock
	policy       Policy
	tracer       trace.Tracer
	metrics      Metrics
	resetCancels bool
	callTimeout  time.Duration
	queueSize    int
}

func defaultOptions() options {
	return options{
		clock:        RealClock{},
		policy:       DefaultPolicy(),
		tracer:       noop.NewTracerProvider().Tracer("search"),
		metrics:      nopMetrics{},
		resetCancels: true,
		callTimeout:  DefaultCallTimeout,
		queueSize:    defaultQueueSize,
	}
}

// WithClock sets the clock used for ready times and poll timers.
func WithClock(c Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithPolicy sets the initial polling policy.
func WithPolicy(p Policy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithTracer sets the tracer used for search lifecycle spans.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) {
		if t != nil {
			o.tracer = t
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithResetCancels controls whether Reset fires a best-effort cancel for
// the active token. Enabled by default.
func WithResetCancels(enabled bool) Option {
	return func(o *options) {
		o.resetCancels = enabled
	}
}

// WithCallTimeout bounds every API call. Non-positive values keep the
// default.
func WithCallTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.callTimeout = d
		}
	}
}

// WithQueueSize sets the event queue capacity.
func WithQueueSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.queueSize = n
		}
	}
}
