package search

import "time"

const (
	// DefaultPollInterval is the delay between a not-ready or failed poll
	// and the next attempt.
	DefaultPollInterval = 1 * time.Second
	// DefaultMaxRetries is how many failed polls are retried before the
	// search ends in error.
	DefaultMaxRetries = 2
	// DefaultCallTimeout bounds a single API call.
	DefaultCallTimeout = 30 * time.Second
)

// Policy controls polling cadence and the retry budget.
type Policy struct {
	PollInterval time.Duration
	MaxRetries   int
}

// DefaultPolicy returns the standard 1s / 2 retries policy.
func DefaultPolicy() Policy {
	return Policy{PollInterval: DefaultPollInterval, MaxRetries: DefaultMaxRetries}
}

func (p Policy) normalized() Policy {
	if p.PollInterval <= 0 {
		p.PollInterval = DefaultPollInterval
	}
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	return p
}
