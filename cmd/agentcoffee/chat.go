package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Protocol-Lattice/agentcoffee/pkg/logger"
	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C08457"))
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8B5E3C"))
	answerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#E8D5B7"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F"))
	dimStyle    = lipgloss.NewStyle().Faint(true)
)

// chatPrompt stays unstyled: liner measures the prompt by glyph count and
// escape sequences break cursor placement.
const chatPrompt = "you> "

// lineReader is the part of liner the chat loop needs.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

type answerFunc func(ctx context.Context, question string) (string, error)

func ChatCmd(flags *globalFlags) *cobra.Command {
	var maxTurns int
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive session; each question is answered independently",
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

			line := liner.NewLiner()
			line.SetCtrlCAborts(true)
			historyFile := chatHistoryPath()
			if f, err := os.Open(historyFile); err == nil {
				_, _ = line.ReadHistory(f)
				f.Close()
			}
			defer func() {
				if f, err := os.OpenFile(historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600); err == nil {
					_, _ = line.WriteHistory(f)
					f.Close()
				}
				line.Close()
			}()

			answer := func(ctx context.Context, q string) (string, error) {
				res, err := a.agent.Run(ctx, q, maxTurns)
				if err != nil {
					return "", err
				}
				return res.Answer, nil
			}
			return chatLoop(ctx, line, cmd.OutOrStdout(), answer)
		},
	}
	cmd.Flags().IntVar(&maxTurns, "max-turns", 0, "turn budget per question (default from config)")
	return cmd
}

func chatHistoryPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	dir = filepath.Join(dir, "agentcoffee")
	_ = os.MkdirAll(dir, 0o700)
	return filepath.Join(dir, "chat_history")
}

// chatLoop reads questions until exit, quit, Ctrl+C or EOF.
func chatLoop(ctx context.Context, in lineReader, out io.Writer, answer answerFunc) error {
	fmt.Fprintln(out, titleStyle.Render("AgentCoffee, at your service!"))
	fmt.Fprintln(out, dimStyle.Render("Ask about coffee tastes or coffee shops near a place."))
	fmt.Fprintln(out, promptStyle.Render("Type 'exit' to quit."))
	for {
		input, err := in.Prompt(chatPrompt)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(out)
				return nil
			}
			return err
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		switch strings.ToLower(input) {
		case "exit", "quit":
			return nil
		}
		in.AppendHistory(input)

		reply, err := answer(ctx, input)
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render("error: "+err.Error()))
			continue
		}
		fmt.Fprintln(out, answerStyle.Render(strings.TrimSpace(reply)))
		if ctx.Err() != nil {
			return nil
		}
	}
}
