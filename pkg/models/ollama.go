package models

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	ollama "github.com/ollama/ollama/api"
)

// ---------------------------- Ollama -----------------------------------------

const (
	defaultOllamaHost  = "http://localhost:11434"
	defaultOllamaModel = "mistral-nemo"
)

// OllamaLLM runs completions against a local Ollama server.
type OllamaLLM struct {
	Client      *ollama.Client
	Model       string
	Temperature float64
}

// NewOllamaLLM resolves the host from cfg.BaseURL, then OLLAMA_HOST, then the local default.
func NewOllamaLLM(cfg ProviderConfig) (*OllamaLLM, error) {
	host := strings.TrimSpace(cfg.BaseURL)
	if host == "" {
		host = os.Getenv("OLLAMA_HOST")
	}
	if host == "" {
		host = defaultOllamaHost
	}

	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid OLLAMA_HOST %q: %w", host, err)
	}

	// Local inference can be slow; cancellation comes from the caller's context.
	httpClient := &http.Client{
		Timeout: 5 * time.Minute,
	}

	model := cfg.Model
	if strings.TrimSpace(model) == "" {
		model = defaultOllamaModel
	}
	c := ollama.NewClient(u, httpClient)
	return &OllamaLLM{Client: c, Model: model, Temperature: cfg.Temperature}, nil
}

func (o *OllamaLLM) Generate(ctx context.Context, messages []Message) (string, error) {
	stream := false
	req := &ollama.ChatRequest{
		Model:    o.Model,
		Messages: make([]ollama.Message, 0, len(messages)),
		Stream:   &stream,
		Options:  map[string]any{"temperature": o.Temperature},
	}
	for _, msg := range messages {
		req.Messages = append(req.Messages, ollama.Message{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	var text strings.Builder
	if err := o.Client.Chat(ctx, req, func(resp ollama.ChatResponse) error {
		text.WriteString(resp.Message.Content)
		return nil
	}); err != nil {
		return "", err
	}
	return strings.TrimSpace(text.String()), nil
}

var _ LLM = (*OllamaLLM)(nil)
