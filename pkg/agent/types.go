package agent

import "context"

// ToolSpec describes how the agent should present a tool to the model.
type ToolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Example     string         `json:"example,omitempty"`
	InputSchema map[string]any `json:"input_schema,omitempty"`
}

// ToolRequest captures an invocation request for a tool. Input is the raw
// directive argument, passed through untouched.
type ToolRequest struct {
	SessionID string
	Input     string
}

// ToolResponse represents the structured response returned by a tool.
type ToolResponse struct {
	Result   any
	Metadata map[string]string
}

// Tool exposes structured metadata and an invocation handler.
type Tool interface {
	Spec() ToolSpec
	Invoke(ctx context.Context, req ToolRequest) (ToolResponse, error)
}

// ToolCatalog maintains an addressable set of tools.
type ToolCatalog interface {
	Register(tool Tool) error
	Lookup(name string) (Tool, ToolSpec, bool)
	Specs() []ToolSpec
	Tools() []Tool
}

// ToolFunc adapts a plain function into a Tool.
type ToolFunc struct {
	ToolSpec ToolSpec
	Fn       func(ctx context.Context, input string) (any, error)
}

func (t ToolFunc) Spec() ToolSpec { return t.ToolSpec }

func (t ToolFunc) Invoke(ctx context.Context, req ToolRequest) (ToolResponse, error) {
	out, err := t.Fn(ctx, req.Input)
	if err != nil {
		return ToolResponse{}, err
	}
	return ToolResponse{Result: out}, nil
}
