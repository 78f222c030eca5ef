package search

import "context"

// API is the asynchronous search backend the controller drives.
//
// PollSearch returns a non-nil ResultSet when the job finished (possibly
// empty), an error matching ErrNotReady while it is still computing, or
// any other error for a failed attempt.
type API interface {
	StartSearch(ctx context.Context, criteria Criteria) (StartResponse, error)
	PollSearch(ctx context.Context, token Token) (ResultSet, error)
	CancelSearch(ctx context.Context, token Token) error
}
