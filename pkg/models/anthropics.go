package models

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"
)

const (
	defaultAnthropicModel     = "claude-3-5-sonnet-latest"
	defaultAnthropicMaxTokens = 1024
)

// AnthropicLLM implements LLM using Anthropic's Messages API.
type AnthropicLLM struct {
	Client      *anthropic.Client
	Model       string
	MaxTokens   int
	Temperature float64
}

// NewAnthropicLLM constructs a client. The key falls back to ANTHROPIC_API_KEY.
func NewAnthropicLLM(cfg ProviderConfig) (*AnthropicLLM, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		key = os.Getenv("ANTHROPIC_API_KEY")
	}
	if key == "" {
		return nil, fmt.Errorf("anthropic: %w", ErrMissingAPIKey)
	}
	opts := []anthropicopt.RequestOption{anthropicopt.WithAPIKey(key)}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		opts = append(opts, anthropicopt.WithBaseURL(base))
	}
	cl := anthropic.NewClient(opts...)

	model := cfg.Model
	if strings.TrimSpace(model) == "" {
		model = defaultAnthropicModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}
	return &AnthropicLLM{
		Client:      &cl,
		Model:       model,
		MaxTokens:   maxTokens,
		Temperature: cfg.Temperature,
	}, nil
}

// Generate replays the conversation and returns the concatenated text blocks of the reply.
func (a *AnthropicLLM) Generate(ctx context.Context, messages []Message) (string, error) {
	system, rest := splitSystem(messages)
	if len(rest) == 0 {
		return "", errors.New("anthropic: conversation has no user message")
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(a.Model),
		MaxTokens:   int64(a.MaxTokens),
		Temperature: anthropic.Float(a.Temperature),
		Messages:    make([]anthropic.MessageParam, 0, len(rest)),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	for _, msg := range rest {
		block := anthropic.NewTextBlock(msg.Content)
		if msg.Role == RoleAssistant {
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(block))
		} else {
			params.Messages = append(params.Messages, anthropic.NewUserMessage(block))
		}
	}

	msg, err := a.Client.Messages.New(ctx, params)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, cb := range msg.Content {
		if tb, ok := cb.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(tb.Text)
		}
	}
	return b.String(), nil
}

var _ LLM = (*AnthropicLLM)(nil)
