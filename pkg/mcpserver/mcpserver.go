// Package mcpserver publishes the agent's tools, and optionally the agent
// itself, over the Model Context Protocol.
package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/Protocol-Lattice/agentcoffee/pkg/agent"
	"github.com/Protocol-Lattice/agentcoffee/pkg/logger"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	inputArg    = "input"
	questionArg = "question"

	// AskToolName is the MCP tool that runs a whole agent query.
	AskToolName = "ask_agentcoffee"
)

// Runner answers one utterance. *agent.Agent satisfies it.
type Runner interface {
	Run(ctx context.Context, utterance string, maxTurns int) (*agent.Result, error)
}

// New builds an MCP server exposing each tool with a single string input. A
// non-nil runner is additionally exposed as AskToolName.
func New(name, version string, tools []agent.Tool, runner Runner) *server.MCPServer {
	s := server.NewMCPServer(name, version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	for _, t := range tools {
		spec := t.Spec()
		s.AddTool(mcp.NewTool(spec.Name,
			mcp.WithDescription(describe(spec)),
			mcp.WithString(inputArg, mcp.Required(), mcp.Description(inputDescription(spec))),
		), ToolHandler(t))
	}
	if runner != nil {
		s.AddTool(mcp.NewTool(AskToolName,
			mcp.WithDescription("Answers a coffee question, using the taste and location tools as needed."),
			mcp.WithString(questionArg, mcp.Required(), mcp.Description("The question to answer.")),
			mcp.WithNumber("max_turns", mcp.Description("Optional turn budget.")),
		), AskHandler(runner))
	}
	return s
}

// ServeStdio serves s on stdin/stdout until the input closes.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func describe(spec agent.ToolSpec) string {
	if spec.Example == "" {
		return spec.Description
	}
	return fmt.Sprintf("%s (e.g. %s)", spec.Description, spec.Example)
}

func inputDescription(spec agent.ToolSpec) string {
	if props, ok := spec.InputSchema["properties"].(map[string]any); ok {
		if in, ok := props[inputArg].(map[string]any); ok {
			if d, ok := in["description"].(string); ok {
				return d
			}
		}
	}
	return "Free-text input."
}

// ToolHandler adapts an agent tool to an MCP tool handler. Tool failures are
// reported as tool errors rather than protocol errors.
func ToolHandler(t agent.Tool) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		input, err := req.RequireString(inputArg)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		resp, err := t.Invoke(ctx, agent.ToolRequest{SessionID: "mcp", Input: input})
		if err != nil {
			logger.FromContext(ctx).Warn("mcp tool call failed", "tool", t.Spec().Name, "error", err)
			return mcp.NewToolResultError(err.Error()), nil
		}
		rendered, err := agent.RenderObservation(resp.Result)
		if err != nil {
			return nil, err
		}
		return mcp.NewToolResultText(rendered), nil
	}
}

// AskHandler runs the full agent loop for an MCP call.
func AskHandler(r Runner) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question, err := req.RequireString(questionArg)
		if err != nil || strings.TrimSpace(question) == "" {
			return mcp.NewToolResultError("question is required"), nil
		}
		maxTurns := int(req.GetFloat("max_turns", 0))
		res, err := r.Run(ctx, question, maxTurns)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(res.Answer), nil
	}
}
