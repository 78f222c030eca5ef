// Package pubsub provides a generic publish/subscribe event system used to
// fan out controller snapshots and log entries.
package pubsub

import (
	"context"
	"time"
)

// EventType says what happened to the payload.
type EventType string

const (
	// CreatedEvent carries a new item, e.g. a log entry.
	CreatedEvent EventType = "created"
	// UpdatedEvent carries the new value of something that already
	// existed, e.g. a controller snapshot.
	UpdatedEvent EventType = "updated"
)

// Event is one published value.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Subscriber is anything that hands out event channels. Broker implements
// it, and so does search.Controller by delegating to its broker.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}
