package pubsub

import (
	"context"
	"sync"
	"time"
)

const defaultBufferSize = 64

// Option configures a Broker.
type Option func(*options)

type options struct {
	bufferSize int
	replayLast bool
	conflate   bool
}

// WithBufferSize sets the per-subscriber channel capacity.
func WithBufferSize(size int) Option {
	return func(o *options) {
		if size > 0 {
			o.bufferSize = size
		}
	}
}

// WithReplayLast delivers the most recently published event to every new
// subscriber as soon as it subscribes.
func WithReplayLast() Option {
	return func(o *options) { o.replayLast = true }
}

// WithConflate makes a full subscriber drop its oldest buffered event in
// favour of the newest one instead of dropping the newest. Suited to
// state snapshots where only the latest value matters.
func WithConflate() Option {
	return func(o *options) { o.conflate = true }
}

// Broker is a generic pub/sub event broker.
type Broker[T any] struct {
	mu      sync.RWMutex
	subs    map[chan Event[T]]struct{}
	done    chan struct{}
	opts    options
	last    Event[T]
	hasLast bool
	now     func() time.Time
}

// NewBroker creates a new broker. Without options each subscriber gets a
// 64 slot buffer and events are dropped for subscribers that fall behind.
func NewBroker[T any](opts ...Option) *Broker[T] {
	o := options{bufferSize: defaultBufferSize}
	for _, opt := range opts {
		opt(&o)
	}
	return &Broker[T]{
		subs: make(map[chan Event[T]]struct{}),
		done: make(chan struct{}),
		opts: o,
		now:  time.Now,
	}
}

// Subscribe creates a new subscription channel.
// The channel is closed when ctx is cancelled or the broker is closed.
func (b *Broker[T]) Subscribe(ctx context.Context) <-chan Event[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case <-b.done:
		ch := make(chan Event[T])
		close(ch)
		return ch
	default:
	}

	sub := make(chan Event[T], b.opts.bufferSize)
	if b.opts.replayLast && b.hasLast {
		sub <- b.last
	}
	b.subs[sub] = struct{}{}

	go func() {
		select {
		case <-ctx.Done():
		case <-b.done:
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[sub]; !ok {
			return
		}
		delete(b.subs, sub)
		close(sub)
	}()

	return sub
}

// Publish sends an event to all subscribers. It never blocks.
func (b *Broker[T]) Publish(eventType EventType, payload T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case <-b.done:
		return
	default:
	}

	event := Event[T]{
		Type:      eventType,
		Payload:   payload,
		Timestamp: b.now(),
	}
	b.last = event
	b.hasLast = true

	for sub := range b.subs {
		b.deliver(sub, event)
	}
}

func (b *Broker[T]) deliver(sub chan Event[T], event Event[T]) {
	select {
	case sub <- event:
		return
	default:
	}
	if !b.opts.conflate {
		return
	}
	select {
	case <-sub:
	default:
	}
	select {
	case sub <- event:
	default:
	}
}

// Last returns the most recently published event.
func (b *Broker[T]) Last() (Event[T], bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.last, b.hasLast
}

// Close shuts down the broker and all subscriber channels.
func (b *Broker[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case <-b.done:
		return
	default:
	}

	close(b.done)
	for sub := range b.subs {
		close(sub)
	}
	b.subs = make(map[chan Event[T]]struct{})
}

// SubscriberCount returns the number of active subscribers.
func (b *Broker[T]) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
