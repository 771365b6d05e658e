package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Protocol-Lattice/agentcoffee/pkg/agent"
	"github.com/Protocol-Lattice/agentcoffee/pkg/concurrent"
	"github.com/Protocol-Lattice/agentcoffee/pkg/logger"
	"github.com/spf13/cobra"
)

type askOutcome struct {
	question string
	result   *agent.Result
	err      error
}

func AskCmd(flags *globalFlags) *cobra.Command {
	var (
		maxTurns    int
		concurrency int
		verbose     bool
	)
	cmd := &cobra.Command{
		Use:   "ask <question>...",
		Short: "Answer one or more questions and exit",
		Args:  cobra.MinimumNArgs(1),
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

			outcomes, err := concurrent.ParallelMap(ctx, args, func(ctx context.Context, q string) (askOutcome, error) {
				res, runErr := a.agent.Run(ctx, q, maxTurns)
				return askOutcome{question: q, result: res, err: runErr}, nil
			}, concurrency)
			if err != nil {
				return err
			}
			return printOutcomes(cmd.OutOrStdout(), outcomes, len(args) > 1, verbose)
		},
	}
	cmd.Flags().IntVar(&maxTurns, "max-turns", 0, "turn budget per question (default from config)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "questions answered in parallel")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show tool calls")
	return cmd
}

func printOutcomes(w io.Writer, outcomes []askOutcome, showQuestion, verbose bool) error {
	var failed []error
	for _, o := range outcomes {
		if showQuestion {
			fmt.Fprintf(w, "Q: %s\n", o.question)
		}
		if o.err != nil {
			fmt.Fprintf(w, "error: %v\n", o.err)
			failed = append(failed, o.err)
		}
		if o.result != nil {
			if verbose {
				for _, call := range o.result.ToolCalls {
					fmt.Fprintf(w, "  [%s] %s -> %s (%s)\n", call.Name, call.Input, call.Observation, call.Duration)
				}
			}
			fmt.Fprintln(w, strings.TrimSpace(o.result.Answer))
		}
		if showQuestion {
			fmt.Fprintln(w)
		}
	}
	return errors.Join(failed...)
}
