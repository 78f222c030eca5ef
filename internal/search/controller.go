package search

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/tourscout/internal/log"
	"github.com/zjrosen/tourscout/internal/pubsub"
	"github.com/zjrosen/tourscout/internal/tracing"
)

// Controller runs the search lifecycle. Commands enqueue an event and
// return immediately; a single goroutine applies events to the state
// machine, executes the resulting effects and publishes snapshots.
type Controller struct {
	api         API
	clock       Clock
	tracer      trace.Tracer
	metrics     Metrics
	callTimeout time.Duration

	ctx       context.Context
	cancel    context.CancelFunc
	events    chan event
	done      chan struct{}
	exited    chan struct{}
	closeOnce sync.Once

	broker *pubsub.Broker[Snapshot]

	// Owned by the loop goroutine.
	m         *machine
	timers    map[Token]pendingTimer
	searches  map[uint64]*lifecycle
	published uint64
}

type pendingTimer struct {
	id    uint64
	timer Timer
}

// lifecycle tracks the span and start time of one launched search.
type lifecycle struct {
	span    trace.Span
	started time.Time
}

// New creates a controller for api and starts its event loop. Call Close
// to stop it.
func New(api API, opts ...Option) *Controller {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		api:         api,
		clock:       o.clock,
		tracer:      o.tracer,
		metrics:     o.metrics,
		callTimeout: o.callTimeout,
		ctx:         ctx,
		cancel:      cancel,
		events:      make(chan event, o.queueSize),
		done:        make(chan struct{}),
		exited:      make(chan struct{}),
		broker:      pubsub.NewBroker[Snapshot](pubsub.WithBufferSize(1), pubsub.WithReplayLast(), pubsub.WithConflate()),
		m:           newMachine(o.clock.Now, o.policy, o.resetCancels),
		timers:      make(map[Token]pendingTimer),
		searches:    make(map[uint64]*lifecycle),
	}
	c.publish()

	go c.loop()
	return c
}

// StartSearch starts a search for criteria. If a search is in flight it
// is cancelled and criteria runs once the cancellation settles.
func (c *Controller) StartSearch(criteria Criteria) error {
	return c.submit(startCmd{criteria: criteria})
}

// Cancel cancels the in-flight search, if any, and drops queued criteria.
func (c *Controller) Cancel() error {
	return c.submit(cancelCmd{})
}

// Reset stops everything and returns to idle with no results.
func (c *Controller) Reset() error {
	return c.submit(resetCmd{})
}

// UpdatePolicy replaces the policy used by searches launched afterwards.
func (c *Controller) UpdatePolicy(p Policy) error {
	return c.submit(policyCmd{policy: p})
}

// Snapshot returns the latest published state.
func (c *Controller) Snapshot() Snapshot {
	ev, _ := c.broker.Last()
	return ev.Payload
}

// Subscribe delivers the current snapshot followed by every change. Slow
// subscribers only ever miss intermediate snapshots, never the newest.
// The channel closes when ctx is done or the controller is closed.
func (c *Controller) Subscribe(ctx context.Context) <-chan pubsub.Event[Snapshot] {
	return c.broker.Subscribe(ctx)
}

// Await blocks until a snapshot satisfies match and returns it.
func (c *Controller) Await(ctx context.Context, match func(Snapshot) bool) (Snapshot, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch := c.broker.Subscribe(ctx)
	for {
		select {
		case <-ctx.Done():
			return c.Snapshot(), ctx.Err()
		case ev, ok := <-ch:
			if !ok {
				if err := ctx.Err(); err != nil {
					return c.Snapshot(), err
				}
				return c.Snapshot(), ErrClosed
			}
			if match(ev.Payload) {
				return ev.Payload, nil
			}
		}
	}
}

// Close stops every timer, abandons in-flight API calls and stops the
// loop. It blocks until the loop has exited and is safe to call twice.
func (c *Controller) Close() {
	c.closeOnce.Do(func() { close(c.done) })
	<-c.exited
}

func (c *Controller) submit(ev event) error {
	if !c.post(ev) {
		return ErrClosed
	}
	return nil
}

// post enqueues ev unless the controller is closed. Timer callbacks and
// API goroutines use it too, so nothing reaches the machine after Close.
func (c *Controller) post(ev event) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.events <- ev:
		return true
	case <-c.done:
		return false
	}
}

func (c *Controller) loop() {
	defer close(c.exited)
	for {
		select {
		case <-c.done:
			c.teardown()
			return
		case ev := <-c.events:
			c.handle(ev)
		}
	}
}

func (c *Controller) handle(ev event) {
	select {
	case <-c.done:
		return
	default:
	}

	if due, ok := ev.(pollDue); ok {
		if pt, ok := c.timers[due.token]; ok && pt.id == due.timer {
			delete(c.timers, due.token)
		}
	}

	for _, eff := range c.m.apply(ev) {
		c.execute(eff)
	}
	c.metrics.TimersPending(len(c.timers))

	if c.m.version != c.published {
		c.publish()
	}
}

func (c *Controller) publish() {
	s := c.m.snapshot()
	c.published = s.Version
	c.broker.Publish(pubsub.UpdatedEvent, s)
}

func (c *Controller) execute(eff effect) {
	switch e := eff.(type) {
	case callStart:
		c.callAPI(e.req, "start", func(ctx context.Context) error {
			resp, err := c.api.StartSearch(ctx, e.criteria)
			c.post(startDone{req: e.req, resp: resp, err: err})
			return err
		})

	case callPoll:
		c.callAPI(e.req, "poll", func(ctx context.Context) error {
			rs, err := c.api.PollSearch(ctx, e.token)
			c.post(pollDone{token: e.token, results: rs, err: err})
			return err
		})

	case callCancel:
		c.callAPI(e.req, "cancel", func(ctx context.Context) error {
			err := c.api.CancelSearch(ctx, e.token)
			if e.detached {
				if err != nil {
					log.Debug(log.CatAPI, "best-effort cancel failed", "token", e.token, "error", err)
				}
				return err
			}
			c.post(cancelDone{token: e.token, err: err})
			return err
		})

	case schedulePoll:
		if old, ok := c.timers[e.token]; ok {
			old.timer.Stop()
		}
		token, id := e.token, e.timer
		t := c.clock.AfterFunc(e.delay, func() {
			c.post(pollDue{token: token, timer: id})
		})
		c.timers[e.token] = pendingTimer{id: id, timer: t}
		log.Debug(log.CatSearch, "poll scheduled", "token", token, "delay", e.delay)

	case stopTimers:
		if pt, ok := c.timers[e.token]; ok {
			pt.timer.Stop()
			delete(c.timers, e.token)
		}

	case stopAllTimers:
		c.stopAllTimers()

	case note:
		c.observe(e)
	}
}

// callAPI runs fn in its own goroutine under the controller context, a
// per-call timeout and a client span parented to the search's span.
func (c *Controller) callAPI(req uint64, name string, fn func(ctx context.Context) error) {
	parent := c.ctx
	if lc, ok := c.searches[req]; ok {
		parent = trace.ContextWithSpan(parent, lc.span)
	}
	timeout := c.callTimeout

	go func() {
		ctx, cancel := context.WithTimeout(parent, timeout)
		defer cancel()

		ctx, span := c.tracer.Start(ctx, tracing.SpanPrefixAPI+name, trace.WithSpanKind(trace.SpanKindClient))
		defer span.End()

		if err := fn(ctx); err != nil && !IsNotReady(err) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()
}

func (c *Controller) stopAllTimers() {
	for token, pt := range c.timers {
		pt.timer.Stop()
		delete(c.timers, token)
	}
}

func (c *Controller) teardown() {
	c.stopAllTimers()
	c.cancel()
	for req := range c.searches {
		c.finish(req, OutcomeClosed, nil, 0)
	}
	c.broker.Close()
	log.Debug(log.CatSearch, "controller closed")
}

// observe turns lifecycle notes into logs, metrics and span events.
func (c *Controller) observe(n note) {
	switch n.kind {
	case noteLaunched:
		spanCtx, span := c.tracer.Start(c.ctx, tracing.SpanSearch,
			trace.WithAttributes(
				attribute.Int64(tracing.AttrSearchRequest, int64(n.req)), //nolint:gosec // request ids are small
				attribute.String(tracing.AttrSearchCountry, n.criteria.CountryID),
				attribute.String(tracing.AttrSearchCity, n.criteria.CityID),
				attribute.String(tracing.AttrSearchHotel, n.criteria.HotelID),
			),
		)
		c.searches[n.req] = &lifecycle{span: span, started: c.clock.Now()}
		c.metrics.SearchLaunched()
		log.Info(log.CatSearch, "search launched", "req", n.req, "criteria", n.criteria,
			"trace_id", tracing.TraceIDFromContext(spanCtx))

	case noteStarted:
		if lc, ok := c.searches[n.req]; ok {
			lc.span.SetAttributes(attribute.String(tracing.AttrSearchToken, string(n.token)))
			lc.span.AddEvent(tracing.EventStarted)
		}
		log.Debug(log.CatSearch, "search started", "req", n.req, "token", n.token)

	case noteStartFailed:
		log.ErrorErr(log.CatAPI, "start search failed", n.err, "req", n.req, "criteria", n.criteria)
		c.finish(n.req, OutcomeError, n.err, 0)

	case noteQueued:
		c.addEvent(n.req, tracing.EventQueued, attribute.String(tracing.AttrSupersededBy, n.criteria.String()))
		log.Info(log.CatSearch, "search queued behind active search", "criteria", n.criteria, "active", n.token)

	case notePollNotReady:
		c.metrics.PollCompleted(PollNotReady)
		c.addEvent(n.req, tracing.EventNotReady)
		log.Debug(log.CatSearch, "results not ready", "token", n.token)

	case notePollRetry:
		c.metrics.PollCompleted(PollFailed)
		c.addEvent(n.req, tracing.EventRetry, attribute.Int(tracing.AttrPollAttempt, n.attempt))
		log.WarnErr(log.CatAPI, "poll failed, retrying", n.err, "token", n.token, "attempt", n.attempt)

	case noteSucceeded:
		c.metrics.PollCompleted(PollResults)
		log.Info(log.CatSearch, "search succeeded", "token", n.token, "results", n.count)
		c.finish(n.req, OutcomeSuccess, nil, n.count)

	case notePollFailed:
		c.metrics.PollCompleted(PollFailed)
		log.ErrorErr(log.CatAPI, "poll retries exhausted", n.err, "token", n.token, "retries", n.attempt)
		c.finish(n.req, OutcomeError, n.err, 0)

	case noteCancelRequested:
		c.addEvent(n.req, tracing.EventCancelRequested)
		log.Info(log.CatSearch, "cancelling search", "token", n.token)

	case noteCancelled, noteCancelFailed:
		c.metrics.CancelCompleted(n.err == nil)
		if n.err != nil {
			c.addEvent(n.req, tracing.EventCancelFailed, attribute.String(tracing.AttrErrorMessage, n.err.Error()))
			log.WarnErr(log.CatAPI, "cancel failed", n.err, "token", n.token)
		} else {
			log.Info(log.CatSearch, "search cancelled", "token", n.token)
		}
		outcome := OutcomeCancelled
		if n.superseded {
			outcome = OutcomeSuperseded
		}
		c.finish(n.req, outcome, nil, 0)

	case noteAbandoned:
		log.Info(log.CatSearch, "start abandoned", "req", n.req, "criteria", n.criteria)
		c.finish(n.req, OutcomeCancelled, nil, 0)

	case noteLateStart:
		log.Debug(log.CatSearch, "discarding start of abandoned request", "req", n.req, "token", n.token)

	case noteStaleDropped:
		c.metrics.StaleDropped()
		log.Debug(log.CatSearch, "dropped stale poll response", "token", n.token)

	case noteReset:
		log.Info(log.CatSearch, "search state reset", "token", n.token)
		c.finish(n.req, OutcomeReset, nil, 0)
	}
}

func (c *Controller) addEvent(req uint64, name string, attrs ...attribute.KeyValue) {
	if lc, ok := c.searches[req]; ok {
		lc.span.AddEvent(name, trace.WithAttributes(attrs...))
	}
}

// finish ends the span of search req. Searches that already finished are
// ignored.
func (c *Controller) finish(req uint64, outcome string, err error, results int) {
	lc, ok := c.searches[req]
	if !ok {
		return
	}
	delete(c.searches, req)

	lc.span.SetAttributes(attribute.String(tracing.AttrSearchOutcome, outcome))
	switch {
	case err != nil:
		lc.span.RecordError(err)
		lc.span.SetStatus(codes.Error, err.Error())
	case outcome == OutcomeSuccess:
		lc.span.SetAttributes(attribute.Int(tracing.AttrSearchResults, results))
		lc.span.SetStatus(codes.Ok, "")
	}
	lc.span.End()

	c.metrics.SearchFinished(outcome, c.clock.Now().Sub(lc.started))
}
