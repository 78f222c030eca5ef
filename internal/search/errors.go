package search

import "errors"

var (
	// ErrNotReady is the not-ready poll signal. APIs return it (or wrap it
	// with %w) while a job is still computing. It is retried forever at the
	// poll interval and never counts against the retry budget.
	ErrNotReady = errors.New("search results not ready")

	// ErrMissingCountry is returned by Criteria.Validate.
	ErrMissingCountry = errors.New("country is required")

	// ErrClosed is returned by commands issued after Close.
	ErrClosed = errors.New("search controller closed")
)

// User facing messages for terminal failures.
const (
	MsgStartFailed = "Failed to start the search. Please try again."
	MsgPollFailed  = "Failed to fetch search results. Please try again."
)

// IsNotReady reports whether err is the not-ready poll signal.
func IsNotReady(err error) bool {
	return errors.Is(err, ErrNotReady)
}
