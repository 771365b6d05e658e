package agent

import (
	"fmt"
	"strings"
)

const promptPreamble = `You run in a loop of Thought, Action, PAUSE, Observation.
At the end of the loop you output an Answer
Use Thought to describe your thoughts about the question you have been asked.
Use Action to run one of the actions available to you - then return PAUSE.
Observation will be the result of running those actions.`

// RenderSystemPrompt builds the reasoning-loop instructions for the given tools.
func RenderSystemPrompt(specs []ToolSpec) string {
	var sb strings.Builder
	sb.WriteString(promptPreamble)
	sb.WriteString("\n\nYour available actions are:\n")
	for _, spec := range specs {
		sb.WriteString("\n")
		sb.WriteString(spec.Name)
		sb.WriteString(":\n")
		if spec.Example != "" {
			sb.WriteString("e.g. ")
			sb.WriteString(spec.Example)
			sb.WriteString("\n")
		}
		sb.WriteString(spec.Description)
		sb.WriteString("\n")
	}
	if len(specs) > 0 {
		sb.WriteString(renderExampleSession(specs[0]))
	}
	return strings.TrimSpace(sb.String())
}

func renderExampleSession(spec ToolSpec) string {
	arg := spec.Example
	if arg == "" {
		arg = "..."
	}
	var sb strings.Builder
	sb.WriteString("\n\nExample session:\n\n")
	fmt.Fprintf(&sb, "Question: %s\n", arg)
	fmt.Fprintf(&sb, "Thought: I should use the %s action\n", spec.Name)
	fmt.Fprintf(&sb, "Action: %s: %s\n", spec.Name, arg)
	sb.WriteString("PAUSE\n\n")
	sb.WriteString("You will be called again with this:\n\n")
	sb.WriteString("Observation: <result of the action>\n\n")
	sb.WriteString("You then output:\n\n")
	sb.WriteString("Answer: <your answer based on the observation>\n")
	return sb.String()
}
