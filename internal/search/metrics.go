package search

import "time"

// Search outcomes reported to Metrics.SearchFinished.
const (
	OutcomeSuccess    = "success"
	OutcomeError      = "error"
	OutcomeCancelled  = "cancelled"
	OutcomeSuperseded = "superseded"
	OutcomeReset      = "reset"
	OutcomeClosed     = "closed"
)

// Poll results reported to Metrics.PollCompleted.
const (
	PollResults  = "results"
	PollNotReady = "not_ready"
	PollFailed   = "failed"
)

// Metrics receives controller counters. The obs package provides a
// Prometheus implementation.
type Metrics interface {
	SearchLaunched()
	SearchFinished(outcome string, elapsed time.Duration)
	PollCompleted(result string)
	CancelCompleted(ok bool)
	StaleDropped()
	TimersPending(n int)
}

type nopMetrics struct{}

func (nopMetrics) SearchLaunched()                      {}
func (nopMetrics) SearchFinished(string, time.Duration) {}
func (nopMetrics) PollCompleted(string)                 {}
func (nopMetrics) CancelCompleted(bool)                 {}
func (nopMetrics) StaleDropped()                        {}
func (nopMetrics) TimersPending(int)                    {}
