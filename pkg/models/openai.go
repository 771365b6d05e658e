package models

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const defaultOpenAIModel = "gpt-4o"

type OpenAILLM struct {
	Client      *openai.Client
	Model       string
	Temperature float32
	MaxTokens   int
}

// NewOpenAILLM builds a chat-completions backend. The key falls back to OPENAI_API_KEY.
func NewOpenAILLM(cfg ProviderConfig) (*OpenAILLM, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("openai: %w", ErrMissingAPIKey)
	}
	clientCfg := openai.DefaultConfig(apiKey)
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		clientCfg.BaseURL = base
	}
	model := cfg.Model
	if strings.TrimSpace(model) == "" {
		model = defaultOpenAIModel
	}
	return &OpenAILLM{
		Client:      openai.NewClientWithConfig(clientCfg),
		Model:       model,
		Temperature: float32(cfg.Temperature),
		MaxTokens:   cfg.MaxTokens,
	}, nil
}

func (o *OpenAILLM) Generate(ctx context.Context, messages []Message) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       o.Model,
		Temperature: o.Temperature,
		MaxTokens:   o.MaxTokens,
		Messages:    make([]openai.ChatCompletionMessage, 0, len(messages)),
	}
	for _, msg := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    openAIRole(msg.Role),
			Content: msg.Content,
		})
	}

	resp, err := o.Client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no response from OpenAI")
	}
	return resp.Choices[0].Message.Content, nil
}

func openAIRole(role Role) string {
	switch role {
	case RoleSystem:
		return openai.ChatMessageRoleSystem
	case RoleAssistant:
		return openai.ChatMessageRoleAssistant
	default:
		return openai.ChatMessageRoleUser
	}
}

var _ LLM = (*OpenAILLM)(nil)
