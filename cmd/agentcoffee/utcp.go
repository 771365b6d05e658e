package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Protocol-Lattice/agentcoffee/pkg/logger"
	"github.com/spf13/cobra"
	utcp "github.com/universal-tool-calling-protocol/go-utcp"
)

const utcpAgentTool = "agentcoffee.ask"

func UTCPCmd(flags *globalFlags) *cobra.Command {
	var (
		providersFile string
		toolName      string
		rawInputs     string
		maxTurns      int
	)
	cmd := &cobra.Command{
		Use:   "utcp [question...]",
		Short: "Call the agent, or another UTCP tool, through a UTCP client",
		Long: "Registers the agent on a UTCP client as " + utcpAgentTool + " next to the providers\n" +
			"listed in --providers, then calls --tool (the agent by default).",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := flags.load(cmd, nil)
			if err != nil {
				return err
			}
			ctx := logger.ContextWithLogger(cmd.Context(), log)
			a, err := buildApp(ctx, cfg, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			client, err := newUTCPClient(ctx, providersFile)
			if err != nil {
				return err
			}
			agentTool, err := a.agent.RegisterAsUTCPProvider(ctx, client, utcpAgentTool,
				"Recommends coffee for a taste description or finds coffee shops near a place.")
			if err != nil {
				return err
			}
			if toolName == "" {
				toolName = agentTool
			}

			inputs, err := utcpInputs(rawInputs, strings.Join(args, " "), maxTurns)
			if err != nil {
				return err
			}
			log.Debug("calling utcp tool", "tool", toolName, "inputs", len(inputs))
			out, err := client.CallTool(ctx, toolName, inputs)
			if err != nil {
				return fmt.Errorf("call %s: %w", toolName, err)
			}
			return writeUTCPResult(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&providersFile, "providers", "", "UTCP providers JSON file to load next to the agent")
	cmd.Flags().StringVar(&toolName, "tool", "", "qualified tool name to call (default "+utcpAgentTool+")")
	cmd.Flags().StringVar(&rawInputs, "inputs", "", "tool inputs as a JSON object")
	cmd.Flags().IntVar(&maxTurns, "max-turns", 0, "turn budget for the agent tool (default from config)")
	return cmd
}

func newUTCPClient(ctx context.Context, providersFile string) (utcp.UtcpClientInterface, error) {
	cfg := utcp.NewClientConfig()
	cfg.ProvidersFilePath = providersFile
	client, err := utcp.NewUTCPClient(ctx, cfg, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create utcp client: %w", err)
	}
	return client, nil
}

// utcpInputs merges --inputs with the positional question and turn budget.
func utcpInputs(raw, question string, maxTurns int) (map[string]any, error) {
	inputs := map[string]any{}
	if strings.TrimSpace(raw) != "" {
		if err := json.Unmarshal([]byte(raw), &inputs); err != nil {
			return nil, fmt.Errorf("parse --inputs: %w", err)
		}
	}
	if q := strings.TrimSpace(question); q != "" {
		inputs["question"] = q
	}
	if maxTurns > 0 {
		inputs["max_turns"] = maxTurns
	}
	if len(inputs) == 0 {
		return nil, errors.New("nothing to send: pass a question or --inputs")
	}
	return inputs, nil
}

// writeUTCPResult prints an agent answer as text and anything else as JSON.
func writeUTCPResult(w io.Writer, out any) error {
	if m, ok := out.(map[string]any); ok {
		if answer, ok := m["answer"].(string); ok {
			_, err := fmt.Fprintln(w, strings.TrimSpace(answer))
			return err
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
