package search

import (
	"fmt"
	"time"
)

// event is anything the controller loop processes: user commands, API
// completions and timer firings.
type event interface{ isEvent() }

type startCmd struct{ criteria Criteria }
type cancelCmd struct{}
type resetCmd struct{}
type policyCmd struct{ policy Policy }

// startDone carries the start request id so a completion for an abandoned
// request can be told apart from the current one.
type startDone struct {
	req  uint64
	resp StartResponse
	err  error
}

// pollDue fires when a scheduled poll timer elapses.
type pollDue struct {
	token Token
	timer uint64
}

type pollDone struct {
	token   Token
	results ResultSet
	err     error
}

type cancelDone struct {
	token Token
	err   error
}

func (startCmd) isEvent()   {}
func (cancelCmd) isEvent()  {}
func (resetCmd) isEvent()   {}
func (policyCmd) isEvent()  {}
func (startDone) isEvent()  {}
func (pollDue) isEvent()    {}
func (pollDone) isEvent()   {}
func (cancelDone) isEvent() {}

// effect is a side effect requested by the machine. The controller
// executes effects in order after each transition.
type effect interface{ isEffect() }

type callStart struct {
	req      uint64
	criteria Criteria
}

type callPoll struct {
	req   uint64
	token Token
}

// callCancel asks the API to cancel token. Detached cancels are best
// effort and their completion is never routed back into the machine.
type callCancel struct {
	req      uint64
	token    Token
	detached bool
}

type schedulePoll struct {
	token Token
	timer uint64
	delay time.Duration
}

type stopTimers struct{ token Token }
type stopAllTimers struct{}

// note reports a lifecycle outcome for logging, metrics and tracing.
type note struct {
	kind     noteKind
	req      uint64
	token    Token
	criteria Criteria
	attempt  int
	count    int
	err      error
	// superseded marks a cancellation that hands over to queued criteria.
	superseded bool
}

func (callStart) isEffect()     {}
func (callPoll) isEffect()      {}
func (callCancel) isEffect()    {}
func (schedulePoll) isEffect()  {}
func (stopTimers) isEffect()    {}
func (stopAllTimers) isEffect() {}
func (note) isEffect()          {}

type noteKind int

const (
	noteLaunched noteKind = iota
	noteStarted
	noteStartFailed
	noteQueued
	notePollNotReady
	notePollRetry
	noteSucceeded
	notePollFailed
	noteCancelRequested
	noteCancelled
	noteCancelFailed
	noteAbandoned
	noteLateStart
	noteStaleDropped
	noteReset
)

var noteNames = map[noteKind]string{
	noteLaunched:        "launched",
	noteStarted:         "started",
	noteStartFailed:     "start_failed",
	noteQueued:          "queued",
	notePollNotReady:    "not_ready",
	notePollRetry:       "retry",
	noteSucceeded:       "succeeded",
	notePollFailed:      "poll_failed",
	noteCancelRequested: "cancel_requested",
	noteCancelled:       "cancelled",
	noteCancelFailed:    "cancel_failed",
	noteAbandoned:       "abandoned",
	noteLateStart:       "late_start",
	noteStaleDropped:    "stale_dropped",
	noteReset:           "reset",
}

func (k noteKind) String() string {
	if s, ok := noteNames[k]; ok {
		return s
	}
	return fmt.Sprintf("note(%d)", int(k))
}

// machine is the controller's state and transition function. It performs
// no I/O and never reads the wall clock except through now, so every
// transition can be driven directly from tests.
type machine struct {
	now          func() time.Time
	policy       Policy
	resetCancels bool

	version  uint64
	phase    Phase
	criteria Criteria
	results  ResultSet
	errMsg   string

	// req is the id of the search the active fields belong to.
	req          uint64
	pendingStart uint64
	active       Token
	waitUntil    time.Time
	retryCount   int
	searchPolicy Policy
	cancelling   bool
	superseding  *Criteria

	// pollTimer is the id of the pending timer for active, zero if none.
	pollTimer uint64
	polling   bool

	nextReq   uint64
	nextTimer uint64
}

func newMachine(now func() time.Time, policy Policy, resetCancels bool) *machine {
	return &machine{
		now:          now,
		policy:       policy.normalized(),
		resetCancels: resetCancels,
		phase:        PhaseIdle,
	}
}

func (m *machine) touch() { m.version++ }

func (m *machine) busy() bool { return m.phase.Busy() }

func (m *machine) snapshot() Snapshot {
	return Snapshot{
		Version:      m.version,
		Phase:        m.phase,
		Criteria:     m.criteria,
		WaitUntil:    m.waitUntil,
		Results:      m.results,
		Error:        m.errMsg,
		IsCancelling: m.cancelling,
	}
}

// apply runs one transition and returns the effects to execute.
func (m *machine) apply(ev event) []effect {
	switch e := ev.(type) {
	case startCmd:
		return m.onStart(e)
	case cancelCmd:
		return m.onCancel()
	case resetCmd:
		return m.onReset()
	case policyCmd:
		m.policy = e.policy.normalized()
		return nil
	case startDone:
		return m.onStartDone(e)
	case pollDue:
		return m.onPollDue(e)
	case pollDone:
		return m.onPollDone(e)
	case cancelDone:
		return m.onCancelDone(e)
	default:
		return nil
	}
}

func (m *machine) onStart(e startCmd) []effect {
	if !m.busy() {
		return m.launch(e.criteria)
	}

	c := e.criteria
	m.superseding = &c
	effs := []effect{note{kind: noteQueued, req: m.req, token: m.active, criteria: c}}
	if m.active != "" && !m.cancelling {
		effs = append(effs, m.beginCancel()...)
	}
	return effs
}

// launch begins a fresh search. Results of the previous search stay
// visible until the new one succeeds or Reset clears them.
func (m *machine) launch(c Criteria) []effect {
	m.nextReq++
	m.req = m.nextReq
	m.pendingStart = m.req
	m.criteria = c
	m.searchPolicy = m.policy
	m.phase = PhaseLoading
	m.errMsg = ""
	m.retryCount = 0
	m.waitUntil = time.Time{}
	m.touch()
	return []effect{
		note{kind: noteLaunched, req: m.req, criteria: c},
		callStart{req: m.req, criteria: c},
	}
}

func (m *machine) beginCancel() []effect {
	m.phase = PhaseCancelling
	m.cancelling = true
	m.pollTimer = 0
	m.polling = false
	m.touch()
	return []effect{
		note{kind: noteCancelRequested, req: m.req, token: m.active, criteria: m.criteria},
		stopTimers{token: m.active},
		callCancel{req: m.req, token: m.active},
	}
}

// schedule arms the single poll timer for the active token.
func (m *machine) schedule(delay time.Duration) effect {
	m.nextTimer++
	m.pollTimer = m.nextTimer
	return schedulePoll{token: m.active, timer: m.pollTimer, delay: delay}
}

func (m *machine) onStartDone(e startDone) []effect {
	if m.pendingStart == 0 || e.req != m.pendingStart {
		if e.err != nil {
			return []effect{note{kind: noteLateStart, req: e.req, err: e.err}}
		}
		return []effect{
			note{kind: noteLateStart, req: e.req, token: e.resp.Token},
			callCancel{req: e.req, token: e.resp.Token, detached: true},
		}
	}
	m.pendingStart = 0

	if e.err != nil {
		effs := []effect{note{kind: noteStartFailed, req: m.req, criteria: m.criteria, err: e.err}}
		if m.superseding != nil {
			c := *m.superseding
			m.superseding = nil
			return append(effs, m.launch(c)...)
		}
		m.phase = PhaseError
		m.errMsg = MsgStartFailed
		m.touch()
		return effs
	}

	m.active = e.resp.Token
	m.retryCount = 0
	effs := []effect{note{kind: noteStarted, req: m.req, token: m.active, criteria: m.criteria}}

	// Someone asked for different criteria while the start was in flight:
	// this token is cancelled without ever being polled.
	if m.superseding != nil {
		return append(effs, m.beginCancel()...)
	}

	now := m.now()
	var delay time.Duration
	if e.resp.ReadyAt.After(now) {
		m.waitUntil = e.resp.ReadyAt
		delay = e.resp.ReadyAt.Sub(now)
	} else {
		m.waitUntil = time.Time{}
	}
	m.touch()
	return append(effs, m.schedule(delay))
}

func (m *machine) onPollDue(e pollDue) []effect {
	if e.token == "" || e.token != m.active || m.cancelling || e.timer != m.pollTimer {
		return nil
	}
	m.pollTimer = 0
	m.polling = true
	return []effect{callPoll{req: m.req, token: m.active}}
}

func (m *machine) onPollDone(e pollDone) []effect {
	if e.token == "" || e.token != m.active || m.cancelling || !m.polling {
		return []effect{note{kind: noteStaleDropped, token: e.token}}
	}
	m.polling = false

	switch {
	case e.err == nil:
		rs := e.results
		if rs == nil {
			rs = ResultSet{}
		}
		token := m.active
		m.results = rs
		m.phase = PhaseSuccess
		m.waitUntil = time.Time{}
		m.active = ""
		m.touch()
		return []effect{
			stopTimers{token: token},
			note{kind: noteSucceeded, req: m.req, token: token, criteria: m.criteria, count: len(rs)},
		}

	case IsNotReady(e.err):
		return []effect{
			note{kind: notePollNotReady, req: m.req, token: m.active},
			m.schedule(m.searchPolicy.PollInterval),
		}

	case m.retryCount < m.searchPolicy.MaxRetries:
		m.retryCount++
		return []effect{
			note{kind: notePollRetry, req: m.req, token: m.active, attempt: m.retryCount, err: e.err},
			m.schedule(m.searchPolicy.PollInterval),
		}

	default:
		token := m.active
		m.phase = PhaseError
		m.errMsg = MsgPollFailed
		m.waitUntil = time.Time{}
		m.active = ""
		m.touch()
		return []effect{
			stopTimers{token: token},
			note{kind: notePollFailed, req: m.req, token: token, criteria: m.criteria, attempt: m.retryCount, err: e.err},
		}
	}
}

func (m *machine) onCancel() []effect {
	if m.pendingStart != 0 {
		req := m.req
		m.pendingStart = 0
		m.superseding = nil
		m.phase = PhaseIdle
		m.waitUntil = time.Time{}
		m.retryCount = 0
		m.touch()
		return []effect{note{kind: noteAbandoned, req: req, criteria: m.criteria}}
	}
	if m.active == "" {
		return nil
	}
	m.superseding = nil
	if m.cancelling {
		return nil
	}
	return m.beginCancel()
}

func (m *machine) onCancelDone(e cancelDone) []effect {
	if e.token == "" || e.token != m.active || !m.cancelling {
		return nil
	}

	kind := noteCancelled
	if e.err != nil {
		kind = noteCancelFailed
	}
	effs := []effect{
		stopTimers{token: e.token},
		note{kind: kind, req: m.req, token: e.token, criteria: m.criteria, err: e.err, superseded: m.superseding != nil},
	}

	m.active = ""
	m.cancelling = false
	m.waitUntil = time.Time{}
	m.retryCount = 0
	m.pollTimer = 0
	m.polling = false

	if m.superseding != nil {
		c := *m.superseding
		m.superseding = nil
		return append(effs, m.launch(c)...)
	}
	m.phase = PhaseIdle
	m.touch()
	return effs
}

func (m *machine) onReset() []effect {
	var effs []effect
	if m.active != "" && !m.cancelling && m.resetCancels {
		effs = append(effs, callCancel{req: m.req, token: m.active, detached: true})
	}
	effs = append(effs, stopAllTimers{}, note{kind: noteReset, req: m.req, token: m.active})

	m.phase = PhaseIdle
	m.criteria = Criteria{}
	m.results = nil
	m.errMsg = ""
	m.pendingStart = 0
	m.active = ""
	m.waitUntil = time.Time{}
	m.retryCount = 0
	m.cancelling = false
	m.superseding = nil
	m.pollTimer = 0
	m.polling = false
	m.touch()
	return effs
}

// check verifies the state invariants. Used by tests after every step.
func (m *machine) check() error {
	inFlight := m.active != "" || m.pendingStart != 0
	if inFlight != m.busy() {
		return fmt.Errorf("phase %s with token %q and pending start %d", m.phase, m.active, m.pendingStart)
	}
	if m.active != "" && m.pendingStart != 0 {
		return fmt.Errorf("token %q active while start %d pending", m.active, m.pendingStart)
	}
	if m.cancelling != (m.phase == PhaseCancelling) {
		return fmt.Errorf("cancelling=%v in phase %s", m.cancelling, m.phase)
	}
	if m.pollTimer != 0 && m.polling {
		return fmt.Errorf("timer %d armed while a poll is in flight", m.pollTimer)
	}
	if (m.pollTimer != 0 || m.polling) && (m.active == "" || m.cancelling) {
		return fmt.Errorf("poll work pending without a pollable token")
	}
	if m.retryCount > m.searchPolicy.MaxRetries {
		return fmt.Errorf("retry count %d exceeds budget %d", m.retryCount, m.searchPolicy.MaxRetries)
	}
	if m.phase == PhaseSuccess && m.results == nil {
		return fmt.Errorf("success without results")
	}
	return nil
}
