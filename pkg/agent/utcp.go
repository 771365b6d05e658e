package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	utcp "github.com/universal-tool-calling-protocol/go-utcp"
	"github.com/universal-tool-calling-protocol/go-utcp/src/providers/base"
	"github.com/universal-tool-calling-protocol/go-utcp/src/providers/cli"
	"github.com/universal-tool-calling-protocol/go-utcp/src/repository"
	"github.com/universal-tool-calling-protocol/go-utcp/src/tools"
	"github.com/universal-tool-calling-protocol/go-utcp/src/transports"
)

type utcpCall func(ctx context.Context, inputs map[string]any) (map[string]any, error)

type utcpRoute struct {
	tool tools.Tool
	call utcpCall
}

// agentTransport answers CLI-provider calls for agents registered in this
// process. Providers it does not own go to the transport it replaced.
type agentTransport struct {
	mu       sync.RWMutex
	fallback repository.ClientTransport
	routes   map[string]utcpRoute
}

// installAgentTransport puts an agentTransport in front of the client's CLI
// transport, reusing one that is already installed.
func installAgentTransport(client utcp.UtcpClientInterface) (*agentTransport, error) {
	registry := client.GetTransports()
	if registry == nil {
		return nil, errors.New("utcp client has no transports")
	}
	key := string(base.ProviderCLI)
	if t, ok := registry[key].(*agentTransport); ok {
		return t, nil
	}
	t := &agentTransport{fallback: registry[key], routes: make(map[string]utcpRoute)}
	registry[key] = t
	return t, nil
}

func (t *agentTransport) add(provider string, route utcpRoute) {
	t.mu.Lock()
	t.routes[provider] = route
	t.mu.Unlock()
}

func (t *agentTransport) lookup(prov base.Provider) (utcpRoute, bool) {
	p, ok := prov.(*cli.CliProvider)
	if !ok {
		return utcpRoute{}, false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	route, ok := t.routes[p.Name]
	return route, ok
}

func (t *agentTransport) RegisterToolProvider(ctx context.Context, prov base.Provider) ([]tools.Tool, error) {
	if route, ok := t.lookup(prov); ok {
		// The client rewrites names on the returned slice.
		return []tools.Tool{route.tool}, nil
	}
	if t.fallback == nil {
		return nil, fmt.Errorf("no transport for provider %T", prov)
	}
	return t.fallback.RegisterToolProvider(ctx, prov)
}

func (t *agentTransport) DeregisterToolProvider(ctx context.Context, prov base.Provider) error {
	if p, ok := prov.(*cli.CliProvider); ok {
		t.mu.Lock()
		_, owned := t.routes[p.Name]
		delete(t.routes, p.Name)
		t.mu.Unlock()
		if owned {
			return nil
		}
	}
	if t.fallback == nil {
		return nil
	}
	return t.fallback.DeregisterToolProvider(ctx, prov)
}

func (t *agentTransport) CallTool(ctx context.Context, toolName string, args map[string]any, prov base.Provider, l *string) (any, error) {
	if route, ok := t.lookup(prov); ok {
		out, err := route.call(ctx, args)
		if err != nil {
			return nil, err
		}
		return out, nil
	}
	if t.fallback == nil {
		return nil, fmt.Errorf("tool %s: no transport for provider %T", toolName, prov)
	}
	return t.fallback.CallTool(ctx, toolName, args, prov, l)
}

// CallToolStream runs an agent tool to completion and streams its single result.
func (t *agentTransport) CallToolStream(ctx context.Context, toolName string, args map[string]any, prov base.Provider) (transports.StreamResult, error) {
	if route, ok := t.lookup(prov); ok {
		out, err := route.call(ctx, args)
		if err != nil {
			return nil, err
		}
		return transports.NewSliceStreamResult([]any{out}, nil), nil
	}
	if t.fallback == nil {
		return nil, fmt.Errorf("tool %s: no transport for provider %T", toolName, prov)
	}
	return t.fallback.CallToolStream(ctx, toolName, args, prov)
}

// providerNameFor takes the provider part of a dotted tool name.
func providerNameFor(name string) string {
	name = strings.TrimSpace(name)
	provider, _, _ := strings.Cut(name, ".")
	return provider
}

// answerUTCP runs the agent for a UTCP call. Inputs: question (required) and
// max_turns (optional).
func (a *Agent) answerUTCP(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	question, _ := inputs["question"].(string)
	if strings.TrimSpace(question) == "" {
		return nil, errors.New("missing or invalid 'question'")
	}
	res, err := a.Run(ctx, question, intInput(inputs["max_turns"]))
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"answer":      res.Answer,
		"turns":       res.Turns,
		"stop_reason": res.StopReason,
	}, nil
}

// AsUTCPTool describes the whole agent as a UTCP tool. Its Handler runs
// without a caller context; calls routed through a client registered with
// RegisterAsUTCPProvider carry the caller's context instead.
func (a *Agent) AsUTCPTool(name, description string) tools.Tool {
	return tools.Tool{
		Name:        strings.TrimSpace(name),
		Description: description,
		Tags:        []string{"coffee", "agent"},
		Provider: &base.BaseProvider{
			Name:         providerNameFor(name),
			ProviderType: base.ProviderCLI,
		},
		Inputs: tools.ToolInputOutputSchema{
			Type: "object",
			Properties: map[string]any{
				"question": map[string]any{
					"type":        "string",
					"description": "A coffee taste preference or a request for nearby coffee shops.",
				},
				"max_turns": map[string]any{
					"type":        "integer",
					"description": "Optional turn budget; defaults to the agent setting.",
				},
			},
			Required: []string{"question"},
		},
		Outputs: tools.ToolInputOutputSchema{
			Type: "object",
			Properties: map[string]any{
				"answer":      map[string]any{"type": "string"},
				"turns":       map[string]any{"type": "integer"},
				"stop_reason": map[string]any{"type": "string"},
			},
		},
		Handler: func(_ map[string]any, inputs map[string]any) (map[string]any, error) {
			return a.answerUTCP(context.Background(), inputs)
		},
	}
}

func intInput(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

// RegisterAsUTCPProvider makes the agent callable through client under name
// (e.g. "agentcoffee.ask") and returns the qualified tool name the client
// assigned.
func (a *Agent) RegisterAsUTCPProvider(ctx context.Context, client utcp.UtcpClientInterface, name, description string) (string, error) {
	if client == nil {
		return "", errors.New("utcp client is nil")
	}
	provider := providerNameFor(name)
	if provider == "" {
		return "", fmt.Errorf("invalid utcp tool name %q", name)
	}

	transport, err := installAgentTransport(client)
	if err != nil {
		return "", err
	}
	transport.add(provider, utcpRoute{tool: a.AsUTCPTool(name, description), call: a.answerUTCP})

	registered, err := client.RegisterToolProvider(ctx, &cli.CliProvider{
		BaseProvider: base.BaseProvider{Name: provider, ProviderType: base.ProviderCLI},
	})
	if err != nil {
		return "", fmt.Errorf("register utcp provider %s: %w", provider, err)
	}
	if len(registered) == 0 {
		return "", fmt.Errorf("utcp provider %s registered no tools", provider)
	}
	return registered[0].Name, nil
}
