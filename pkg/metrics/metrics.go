// Package metrics records dispatch-loop activity as Prometheus metrics.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/Protocol-Lattice/agentcoffee/pkg/agent"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "agentcoffee"

// Recorder implements agent.Observer on a private registry.
type Recorder struct {
	registry    *prom.Registry
	completions *prom.CounterVec
	completionD prom.Histogram
	toolCalls   *prom.CounterVec
	toolD       *prom.HistogramVec
	runs        *prom.CounterVec
	runTurns    prom.Histogram
}

var _ agent.Observer = (*Recorder)(nil)

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prom.NewRegistry(),
		completions: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "completions_total",
			Help:      "Completion requests sent to the language model.",
		}, []string{"outcome"}),
		completionD: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "completion_duration_seconds",
			Help:      "Latency of completion requests.",
			Buckets:   prom.DefBuckets,
		}),
		toolCalls: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Dispatched tool invocations.",
		}, []string{"tool", "outcome"}),
		toolD: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_call_duration_seconds",
			Help:      "Latency of tool invocations.",
			Buckets:   prom.DefBuckets,
		}, []string{"tool"}),
		runs: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Completed runs by stop reason.",
		}, []string{"stop_reason"}),
		runTurns: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "run_turns",
			Help:      "Completions used per run.",
			Buckets:   prom.LinearBuckets(1, 1, 10),
		}),
	}
	r.registry.MustRegister(r.completions, r.completionD, r.toolCalls, r.toolD, r.runs, r.runTurns)
	return r
}

func (r *Recorder) Registry() *prom.Registry { return r.registry }

func (r *Recorder) OnCompletion(_ string, _ int, elapsed time.Duration, err error) {
	r.completions.WithLabelValues(outcome(err)).Inc()
	r.completionD.Observe(elapsed.Seconds())
}

func (r *Recorder) OnToolCall(_ string, tool string, elapsed time.Duration, err error) {
	r.toolCalls.WithLabelValues(tool, outcome(err)).Inc()
	r.toolD.WithLabelValues(tool).Observe(elapsed.Seconds())
}

func (r *Recorder) OnRunComplete(_ string, result *agent.Result, err error) {
	r.runs.WithLabelValues(stopReason(result, err)).Inc()
	if result != nil {
		r.runTurns.Observe(float64(result.Turns))
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func stopReason(result *agent.Result, err error) string {
	var unknown *agent.UnknownActionError
	switch {
	case errors.As(err, &unknown):
		return "unknown_action"
	case result != nil && result.StopReason != "":
		return result.StopReason
	case err != nil:
		return "error"
	default:
		return "unknown"
	}
}
