package models

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// ---------------------------- Google Gemini ----------------------------------

const defaultGeminiModel = "gemini-1.5-flash"

type GeminiLLM struct {
	Client      *genai.Client
	Model       string
	Temperature float32
}

func NewGeminiLLM(ctx context.Context, cfg ProviderConfig) (*GeminiLLM, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_API_KEY")
	}
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: %w", ErrMissingAPIKey)
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini init: %w", err)
	}
	model := cfg.Model
	if strings.TrimSpace(model) == "" {
		model = defaultGeminiModel
	}
	return &GeminiLLM{Client: client, Model: model, Temperature: float32(cfg.Temperature)}, nil
}

// Generate loads all but the final message into a chat session history and sends the final
// user message.
func (g *GeminiLLM) Generate(ctx context.Context, messages []Message) (string, error) {
	system, rest := splitSystem(messages)
	if len(rest) == 0 || rest[len(rest)-1].Role != RoleUser {
		return "", errors.New("gemini: conversation must end with a user message")
	}

	model := g.Client.GenerativeModel(g.Model)
	model.SetTemperature(g.Temperature)
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}

	cs := model.StartChat()
	for _, msg := range rest[:len(rest)-1] {
		role := "user"
		if msg.Role == RoleAssistant {
			role = "model"
		}
		cs.History = append(cs.History, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(msg.Content)},
		})
	}

	resp, err := cs.SendMessage(ctx, genai.Text(rest[len(rest)-1].Content))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("gemini: empty response")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String(), nil
}

// Close releases the underlying gRPC client.
func (g *GeminiLLM) Close() error {
	return g.Client.Close()
}

var _ LLM = (*GeminiLLM)(nil)
