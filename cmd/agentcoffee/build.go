package main

import (
	"context"
	"fmt"
	"io"

	"github.com/Protocol-Lattice/agentcoffee/pkg/agent"
	"github.com/Protocol-Lattice/agentcoffee/pkg/config"
	"github.com/Protocol-Lattice/agentcoffee/pkg/models"
	"github.com/Protocol-Lattice/agentcoffee/pkg/tools"
)

type app struct {
	agent *agent.Agent
	tools []agent.Tool
	model models.LLM
}

// Close releases the model client when it holds connections (Gemini).
func (a *app) Close() error {
	if c, ok := a.model.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func providerConfig(cfg *config.Config) models.ProviderConfig {
	return models.ProviderConfig{
		Provider:    cfg.LLM.Provider,
		Model:       cfg.LLM.Model,
		APIKey:      cfg.LLM.ResolvedAPIKey(),
		BaseURL:     cfg.LLM.ResolvedBaseURL(),
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	}
}

func placesOptions(cfg *config.Config) tools.PlacesOptions {
	return tools.PlacesOptions{
		APIKey:             cfg.Places.APIKey.Value(),
		GeocodeURL:         cfg.Places.GeocodeURL,
		NearbyURL:          cfg.Places.NearbyURL,
		Radius:             cfg.Places.Radius,
		IncludeCoordinates: cfg.Places.IncludeCoordinates,
		Timeout:            cfg.Places.Timeout,
	}
}

// buildApp wires the model, the two coffee tools and the agent.
func buildApp(ctx context.Context, cfg *config.Config, observer agent.Observer) (*app, error) {
	finder, err := tools.NewPlaceFinder(placesOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("build place finder: %w", err)
	}
	coffeeTools := tools.DefaultTools(finder)

	model, err := models.NewLLMProvider(ctx, providerConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("build model: %w", err)
	}

	a, err := agent.New(agent.Options{
		Model:           model,
		Tools:           coffeeTools,
		SystemPrompt:    cfg.Agent.SystemPrompt,
		MaxTurns:        cfg.Agent.MaxTurns,
		StrictTurnLimit: cfg.Agent.StrictTurnLimit,
		Observer:        observer,
	})
	if err != nil {
		if c, ok := model.(io.Closer); ok {
			_ = c.Close()
		}
		return nil, fmt.Errorf("build agent: %w", err)
	}
	return &app{agent: a, tools: coffeeTools, model: model}, nil
}
