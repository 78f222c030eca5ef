package searchtest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/zjrosen/tourscout/internal/search"
)

// ErrTransient is a generic failed poll attempt.
var ErrTransient = errors.New("transient failure")

// StartResult scripts one StartSearch call.
type StartResult struct {
	Response search.StartResponse
	Err      error
	// Hold, when set, blocks the call until it is closed.
	Hold chan struct{}
}

// PollResult scripts one PollSearch call.
type PollResult struct {
	Results search.ResultSet
	Err     error
	// Hold, when set, blocks the call until it is closed.
	Hold chan struct{}
}

// Call is a recorded API invocation.
type Call struct {
	Method   string
	Token    search.Token
	Criteria search.Criteria
}

// ScriptedAPI is a search.API whose answers are queued by the test.
// Unscripted starts get sequential tokens ready immediately; unscripted
// polls answer not-ready; cancels succeed unless CancelErr is set.
type ScriptedAPI struct {
	mu        sync.Mutex
	starts    []StartResult
	polls     map[search.Token][]PollResult
	cancelErr error
	hold      chan struct{}
	calls     []Call
	seq       int
}

// NewScriptedAPI returns an empty script.
func NewScriptedAPI() *ScriptedAPI {
	return &ScriptedAPI{polls: make(map[search.Token][]PollResult)}
}

// QueueStart appends a scripted StartSearch answer.
func (a *ScriptedAPI) QueueStart(r StartResult) *ScriptedAPI {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.starts = append(a.starts, r)
	return a
}

// QueuePolls appends scripted PollSearch answers for token.
func (a *ScriptedAPI) QueuePolls(token search.Token, rs ...PollResult) *ScriptedAPI {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.polls[token] = append(a.polls[token], rs...)
	return a
}

// SetCancelErr makes every CancelSearch fail with err.
func (a *ScriptedAPI) SetCancelErr(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cancelErr = err
}

// HoldCancels blocks CancelSearch calls until the returned release func
// is called.
func (a *ScriptedAPI) HoldCancels() (release func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	ch := make(chan struct{})
	a.hold = ch
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

// StartSearch implements search.API.
func (a *ScriptedAPI) StartSearch(ctx context.Context, criteria search.Criteria) (search.StartResponse, error) {
	a.mu.Lock()
	a.calls = append(a.calls, Call{Method: "start", Criteria: criteria})
	var r StartResult
	if len(a.starts) > 0 {
		r = a.starts[0]
		a.starts = a.starts[1:]
	} else {
		a.seq++
		r = StartResult{Response: search.StartResponse{Token: search.Token(fmt.Sprintf("auto-%d", a.seq))}}
	}
	a.mu.Unlock()

	if r.Hold != nil {
		select {
		case <-r.Hold:
		case <-ctx.Done():
			return search.StartResponse{}, ctx.Err()
		}
	}
	return r.Response, r.Err
}

// PollSearch implements search.API.
func (a *ScriptedAPI) PollSearch(ctx context.Context, token search.Token) (search.ResultSet, error) {
	a.mu.Lock()
	a.calls = append(a.calls, Call{Method: "poll", Token: token})
	r := PollResult{Err: search.ErrNotReady}
	if queue := a.polls[token]; len(queue) > 0 {
		r = queue[0]
		a.polls[token] = queue[1:]
	}
	a.mu.Unlock()

	if r.Hold != nil {
		select {
		case <-r.Hold:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return r.Results, r.Err
}

// CancelSearch implements search.API.
func (a *ScriptedAPI) CancelSearch(ctx context.Context, token search.Token) error {
	a.mu.Lock()
	a.calls = append(a.calls, Call{Method: "cancel", Token: token})
	hold, err := a.hold, a.cancelErr
	a.mu.Unlock()

	if hold != nil {
		select {
		case <-hold:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

// Calls returns every recorded call in order.
func (a *ScriptedAPI) Calls() []Call {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Call(nil), a.calls...)
}

// Count returns how many calls of method were made, optionally filtered
// by token.
func (a *ScriptedAPI) Count(method string, token search.Token) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, c := range a.calls {
		if c.Method == method && (token == "" || c.Token == token) {
			n++
		}
	}
	return n
}
