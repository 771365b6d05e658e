package main

import (
	"fmt"
	"os"

	"github.com/Protocol-Lattice/agentcoffee/pkg/config"
	"github.com/Protocol-Lattice/agentcoffee/pkg/logger"
	"github.com/spf13/cobra"
)

type globalFlags struct {
	configFile string
	envFile    string
	logLevel   string
	logJSON    bool
	provider   string
	model      string
}

func RootCmd() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:           "agentcoffee",
		Short:         "Coffee recommendations and nearby coffee shops from a reasoning agent",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&flags.configFile, "config", "", "path to a YAML config file")
	pf.StringVar(&flags.envFile, "env-file", "", "path to a .env file (default ./.env when present)")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error, disabled")
	pf.BoolVar(&flags.logJSON, "log-json", false, "emit logs as JSON")
	pf.StringVar(&flags.provider, "provider", "", "language model provider: openai, anthropic, gemini, ollama, dummy")
	pf.StringVar(&flags.model, "model", "", "model name for the selected provider")

	root.AddCommand(
		AskCmd(flags),
		ChatCmd(flags),
		ServeCmd(flags),
		MCPCmd(flags),
		UTCPCmd(flags),
	)
	return root
}

// load resolves the configuration and installs the process logger.
func (f *globalFlags) load(cmd *cobra.Command, extra map[string]any) (*config.Config, logger.Logger, error) {
	overrides := map[string]any{}
	if f.provider != "" {
		overrides["llm.provider"] = f.provider
	}
	if f.model != "" {
		overrides["llm.model"] = f.model
	}
	if f.logLevel != "" {
		overrides["log.level"] = f.logLevel
	}
	if cmd.Flags().Changed("log-json") {
		overrides["log.json"] = f.logJSON
	}
	for k, v := range extra {
		overrides[k] = v
	}

	cfg, err := config.Load(config.LoadOptions{
		ConfigFile: f.configFile,
		EnvFile:    f.envFile,
		Overrides:  overrides,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}

	log := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		Output:     os.Stderr,
		JSON:       cfg.Log.JSON,
		TimeFormat: "15:04:05",
	})
	logger.SetDefault(log)
	return cfg, log, nil
}
