package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrMissingAPIKey is returned when a hosted provider is configured without a credential.
var ErrMissingAPIKey = errors.New("missing provider api key")

// ProviderConfig selects and configures a completion backend.
type ProviderConfig struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float64
	MaxTokens   int
}

// NewLLMProvider returns the backend named by cfg.Provider.
func NewLLMProvider(ctx context.Context, cfg ProviderConfig) (LLM, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "openai":
		return NewOpenAILLM(cfg)
	case "gemini", "google":
		return NewGeminiLLM(ctx, cfg)
	case "ollama":
		return NewOllamaLLM(cfg)
	case "anthropic", "claude":
		return NewAnthropicLLM(cfg)
	case "dummy":
		return NewDummyLLM(""), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
}

// splitSystem separates the leading system messages from the rest of the conversation.
// Backends with a dedicated system field (Anthropic, Gemini) use it.
func splitSystem(messages []Message) (string, []Message) {
	var system []string
	rest := make([]Message, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == RoleSystem {
			if s := strings.TrimSpace(msg.Content); s != "" {
				system = append(system, s)
			}
			continue
		}
		rest = append(rest, msg)
	}
	return strings.Join(system, "\n\n"), rest
}

// lastUserMessage returns the content of the most recent user message.
func lastUserMessage(messages []Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			return messages[i].Content
		}
	}
	return ""
}
