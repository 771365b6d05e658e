package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/Protocol-Lattice/agentcoffee/pkg/agent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedLines struct {
	lines   []string
	history []string
	prompts []string
}

func (s *scriptedLines) Prompt(prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	l := s.lines[0]
	s.lines = s.lines[1:]
	return l, nil
}

func (s *scriptedLines) AppendHistory(item string) { s.history = append(s.history, item) }

func TestChatLoop(t *testing.T) {
	in := &scriptedLines{lines: []string{"", "strong please", "fail", "quit", "never read"}}
	var out bytes.Buffer
	var asked []string
	answer := func(_ context.Context, q string) (string, error) {
		asked = append(asked, q)
		if q == "fail" {
			return "", errors.New("provider down")
		}
		return "Answer: Espresso\n", nil
	}

	require.NoError(t, chatLoop(context.Background(), in, &out, answer))
	assert.Equal(t, []string{"strong please", "fail"}, asked)
	assert.Equal(t, []string{"strong please", "fail"}, in.history)
	assert.Contains(t, out.String(), "Answer: Espresso")
	assert.Contains(t, out.String(), "provider down")
	assert.Equal(t, []string{"never read"}, in.lines)
}

func TestChatLoopPromptIsPlainText(t *testing.T) {
	in := &scriptedLines{lines: []string{"exit"}}
	require.NoError(t, chatLoop(context.Background(), in, io.Discard, func(context.Context, string) (string, error) { return "", nil }))
	require.Len(t, in.prompts, 1)
	assert.Equal(t, "you> ", in.prompts[0])
	assert.NotContains(t, in.prompts[0], "\x1b")
}

func TestChatLoopEndsOnEOF(t *testing.T) {
	in := &scriptedLines{lines: []string{"hello"}}
	var out bytes.Buffer
	err := chatLoop(context.Background(), in, &out, func(context.Context, string) (string, error) { return "hi", nil })
	assert.NoError(t, err)
}

func TestPrintOutcomes(t *testing.T) {
	var out bytes.Buffer
	err := printOutcomes(&out, []askOutcome{
		{question: "q1", result: &agent.Result{Answer: "Answer: Latte", ToolCalls: []agent.ToolCall{{Name: "coffee_taste", Input: "mild", Observation: `["Latte"]`}}}},
		{question: "q2", err: errors.New("unknown action: brew: now")},
	}, true, true)

	require.Error(t, err)
	text := out.String()
	assert.Contains(t, text, "Q: q1\n")
	assert.Contains(t, text, `[coffee_taste] mild -> ["Latte"]`)
	assert.Contains(t, text, "Answer: Latte\n")
	assert.Contains(t, text, "error: unknown action: brew: now")
	assert.Less(t, strings.Index(text, "q1"), strings.Index(text, "q2"))
}

func TestAskWithDummyProvider(t *testing.T) {
	t.Setenv("GOOGLE_MAPS_API_KEY", "maps-key")
	t.Setenv("AGENTCOFFEE_LOG_LEVEL", "disabled")

	root := RootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"ask", "--provider", "dummy", "I like it bold", "Cafes near Boston"})

	require.NoError(t, root.ExecuteContext(context.Background()))
	text := out.String()
	assert.Contains(t, text, "Q: I like it bold\nDummy response: I like it bold\n")
	assert.Contains(t, text, "Q: Cafes near Boston\nDummy response: Cafes near Boston\n")
}

func TestAskFailsWithoutMapsKey(t *testing.T) {
	t.Setenv("GOOGLE_MAPS_API_KEY", "")
	t.Setenv("AGENTCOFFEE_LOG_LEVEL", "disabled")

	root := RootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"ask", "--provider", "dummy", "hello"})

	err := root.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load configuration")
}

func TestUTCPWithDummyProvider(t *testing.T) {
	t.Setenv("GOOGLE_MAPS_API_KEY", "maps-key")
	t.Setenv("AGENTCOFFEE_LOG_LEVEL", "disabled")

	root := RootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"utcp", "--provider", "dummy", "--max-turns", "2", "I like it bold"})

	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.Equal(t, "Dummy response: I like it bold\n", out.String())
}

func TestUTCPInputs(t *testing.T) {
	inputs, err := utcpInputs(`{"question":"ignored","extra":true}`, " mild please ", 3)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"question": "mild please", "extra": true, "max_turns": 3}, inputs)

	_, err = utcpInputs("", "  ", 0)
	assert.Error(t, err)

	_, err = utcpInputs("[1,2]", "", 0)
	assert.Error(t, err)
}

func TestWriteUTCPResult(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, writeUTCPResult(&out, map[string]any{"answer": " Answer: Latte \n", "turns": 1}))
	assert.Equal(t, "Answer: Latte\n", out.String())

	out.Reset()
	require.NoError(t, writeUTCPResult(&out, []any{"Espresso"}))
	assert.JSONEq(t, `["Espresso"]`, out.String())
}
