package pubsub

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// ListenCmd waits for one event on ch and returns it as the message. The
// command yields nil when ctx ends or ch closes, so a model that only
// re-listens after an event stops listening on its own.
func ListenCmd[T any](ctx context.Context, ch <-chan Event[T]) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-ch:
			if !ok {
				return nil
			}
			return event
		}
	}
}

// ContinuousListener owns one subscription for a Bubble Tea model. The
// model calls Listen from Init and again after every event it handles.
type ContinuousListener[T any] struct {
	ctx    context.Context
	cancel context.CancelFunc
	ch     <-chan Event[T]
}

// NewContinuousListener subscribes to sub until parent ends or Stop is
// called.
func NewContinuousListener[T any](parent context.Context, sub Subscriber[T]) *ContinuousListener[T] {
	ctx, cancel := context.WithCancel(parent)
	return &ContinuousListener[T]{
		ctx:    ctx,
		cancel: cancel,
		ch:     sub.Subscribe(ctx),
	}
}

// Listen returns a command delivering the next event.
func (l *ContinuousListener[T]) Listen() tea.Cmd {
	return ListenCmd(l.ctx, l.ch)
}

// Stop ends the subscription. A pending Listen command returns nil.
func (l *ContinuousListener[T]) Stop() {
	l.cancel()
}
