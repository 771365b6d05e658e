package main

import (
	"github.com/Protocol-Lattice/agentcoffee/pkg/logger"
	"github.com/Protocol-Lattice/agentcoffee/pkg/mcpserver"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

func MCPCmd(flags *globalFlags) *cobra.Command {
	var withAgent bool
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the coffee tools over MCP on stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
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
			var runner mcpserver.Runner
			if withAgent {
				runner = a.agent
			}
			log.Info("serving mcp on stdio", "tools", len(a.tools), "agent", withAgent)
			return mcpserver.ServeStdio(mcpserver.New("agentcoffee", version, a.tools, runner))
		},
	}
	cmd.Flags().BoolVar(&withAgent, "with-agent", true, "also expose the full agent as the ask_agentcoffee tool")
	return cmd
}
