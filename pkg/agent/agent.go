package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Protocol-Lattice/agentcoffee/pkg/logger"
	"github.com/Protocol-Lattice/agentcoffee/pkg/models"
	"github.com/google/uuid"
)

const (
	DefaultMaxTurns = 10

	StopReasonAnswer   = "answer"
	StopReasonMaxTurns = "max_turns"
)

// Agent drives the completion/action loop. It holds no per-run state and is
// safe for concurrent use.
type Agent struct {
	model           models.LLM
	catalog         ToolCatalog
	systemPrompt    string
	maxTurns        int
	strictTurnLimit bool
	observer        Observer
}

// Options configure a new Agent.
type Options struct {
	Model models.LLM
	Tools []Tool
	// Catalog takes precedence over Tools when both are set; Tools are then
	// registered into it.
	Catalog ToolCatalog
	// SystemPrompt overrides the prompt rendered from the tool specs.
	SystemPrompt string
	MaxTurns     int
	// StrictTurnLimit makes an exhausted turn budget an error.
	StrictTurnLimit bool
	Observer        Observer
}

// ToolCall records one dispatched action.
type ToolCall struct {
	Name        string        `json:"name"`
	Input       string        `json:"input"`
	Observation string        `json:"observation"`
	Duration    time.Duration `json:"duration"`
}

// Result is the outcome of one Run.
type Result struct {
	RunID      string           `json:"run_id"`
	Answer     string           `json:"answer"`
	Turns      int              `json:"turns"`
	StopReason string           `json:"stop_reason"`
	ToolCalls  []ToolCall       `json:"tool_calls"`
	Messages   []models.Message `json:"-"`
}

// New creates an Agent with the provided options.
func New(opts Options) (*Agent, error) {
	if opts.Model == nil {
		return nil, errors.New("agent requires a language model")
	}

	catalog := opts.Catalog
	if catalog == nil {
		var err error
		catalog, err = NewStaticToolCatalog()
		if err != nil {
			return nil, err
		}
	}
	for _, tool := range opts.Tools {
		if err := catalog.Register(tool); err != nil {
			return nil, err
		}
	}

	maxTurns := opts.MaxTurns
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}

	systemPrompt := opts.SystemPrompt
	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = RenderSystemPrompt(catalog.Specs())
	}

	observer := opts.Observer
	if observer == nil {
		observer = nopObserver{}
	}

	return &Agent{
		model:           opts.Model,
		catalog:         catalog,
		systemPrompt:    systemPrompt,
		maxTurns:        maxTurns,
		strictTurnLimit: opts.StrictTurnLimit,
		observer:        observer,
	}, nil
}

func (a *Agent) SystemPrompt() string { return a.systemPrompt }

func (a *Agent) MaxTurns() int { return a.maxTurns }

// ToolSpecs returns the registered tool specs in registration order.
func (a *Agent) ToolSpecs() []ToolSpec { return a.catalog.Specs() }

// Tools returns the registered tools in registration order.
func (a *Agent) Tools() []Tool { return a.catalog.Tools() }

// Run answers one utterance. maxTurns <= 0 uses the agent default.
//
// A directive in the final completion is still executed before the run stops
// with StopReasonMaxTurns. On an unknown action the partial Result, whose
// history ends with the offending reply, is returned alongside the error.
func (a *Agent) Run(ctx context.Context, utterance string, maxTurns int) (*Result, error) {
	if strings.TrimSpace(utterance) == "" {
		return nil, ErrEmptyInput
	}
	if maxTurns <= 0 {
		maxTurns = a.maxTurns
	}

	runID := uuid.NewString()
	log := logger.FromContext(ctx).With("run_id", runID)
	conv := NewConversation(a.systemPrompt)
	res := &Result{RunID: runID, ToolCalls: []ToolCall{}}

	res, err := a.loop(ctx, log, conv, res, utterance, maxTurns)
	if res != nil {
		res.Messages = conv.Messages()
	}
	a.observer.OnRunComplete(runID, res, err)
	return res, err
}

func (a *Agent) loop(ctx context.Context, log logger.Logger, conv *Conversation, res *Result, prompt string, maxTurns int) (*Result, error) {
	for turn := 1; turn <= maxTurns; turn++ {
		conv.Append(models.RoleUser, prompt)

		start := time.Now()
		reply, err := a.model.Generate(ctx, conv.Messages())
		a.observer.OnCompletion(res.RunID, turn, time.Since(start), err)
		if err != nil {
			log.Error("completion failed", "turn", turn, "error", err)
			return nil, fmt.Errorf("generate completion: %w", err)
		}
		conv.Append(models.RoleAssistant, reply)
		res.Turns = turn
		res.Answer = reply
		log.Debug("completion", "turn", turn, "chars", len(reply))

		directive, ok := ParseDirective(reply)
		if !ok {
			res.StopReason = StopReasonAnswer
			log.Info("answer", "turns", turn, "tool_calls", len(res.ToolCalls))
			return res, nil
		}

		tool, _, found := a.catalog.Lookup(directive.Name)
		if !found {
			log.Warn("unknown action", "action", directive.Name)
			return res, &UnknownActionError{Name: directive.Name, Argument: directive.Argument}
		}

		log.Info("running action", "action", directive.Name, "input", directive.Argument)
		start = time.Now()
		resp, err := tool.Invoke(ctx, ToolRequest{SessionID: res.RunID, Input: directive.Argument})
		elapsed := time.Since(start)
		a.observer.OnToolCall(res.RunID, directive.Name, elapsed, err)
		if err != nil {
			log.Error("action failed", "action", directive.Name, "error", err)
			return nil, err
		}
		rendered, err := RenderObservation(resp.Result)
		if err != nil {
			return nil, err
		}
		res.ToolCalls = append(res.ToolCalls, ToolCall{
			Name:        directive.Name,
			Input:       directive.Argument,
			Observation: rendered,
			Duration:    elapsed,
		})
		prompt = observationMessage(rendered)
	}

	res.StopReason = StopReasonMaxTurns
	log.Warn("turn limit reached", "turns", res.Turns)
	if a.strictTurnLimit {
		return res, fmt.Errorf("%w after %d turns", ErrTurnLimitExceeded, res.Turns)
	}
	return res, nil
}
