package agent

import "time"

// Observer receives loop events. Implementations must be safe for concurrent
// use since runs may proceed in parallel.
type Observer interface {
	OnCompletion(runID string, turn int, elapsed time.Duration, err error)
	OnToolCall(runID, tool string, elapsed time.Duration, err error)
	OnRunComplete(runID string, result *Result, err error)
}

type nopObserver struct{}

func (nopObserver) OnCompletion(string, int, time.Duration, error) {}
func (nopObserver) OnToolCall(string, string, time.Duration, error) {}
func (nopObserver) OnRunComplete(string, *Result, error)            {}

// MultiObserver fans events out to each observer in order.
type MultiObserver []Observer

func (m MultiObserver) OnCompletion(runID string, turn int, elapsed time.Duration, err error) {
	for _, o := range m {
		o.OnCompletion(runID, turn, elapsed, err)
	}
}

func (m MultiObserver) OnToolCall(runID, tool string, elapsed time.Duration, err error) {
	for _, o := range m {
		o.OnToolCall(runID, tool, elapsed, err)
	}
}

func (m MultiObserver) OnRunComplete(runID string, result *Result, err error) {
	for _, o := range m {
		o.OnRunComplete(runID, result, err)
	}
}
