// Package config loads agentcoffee settings from defaults, an optional YAML
// file, a .env file, the environment and command-line overrides.
package config

import (
	"encoding/json"
	"time"
)

type Config struct {
	LLM    LLMConfig    `koanf:"llm"`
	Places PlacesConfig `koanf:"places"`
	Agent  AgentConfig  `koanf:"agent"`
	Server ServerConfig `koanf:"server"`
	Log    LogConfig    `koanf:"log"`
}

type LLMConfig struct {
	Provider    string          `koanf:"provider"    validate:"oneof=openai gemini google ollama anthropic claude dummy" env:"AGENTCOFFEE_LLM_PROVIDER"`
	Model       string          `koanf:"model"                                                                             env:"AGENTCOFFEE_LLM_MODEL"`
	APIKey      SensitiveString `koanf:"api_key"                                                                           env:"AGENTCOFFEE_LLM_API_KEY"     sensitive:"true"`
	BaseURL     string          `koanf:"base_url"    validate:"omitempty,url"                                              env:"AGENTCOFFEE_LLM_BASE_URL"`
	Temperature float64         `koanf:"temperature" validate:"gte=0,lte=2"                                                env:"AGENTCOFFEE_LLM_TEMPERATURE"`
	MaxTokens   int             `koanf:"max_tokens"  validate:"gte=0"                                                      env:"AGENTCOFFEE_LLM_MAX_TOKENS"`

	OpenAIKey    SensitiveString `koanf:"openai_api_key"    env:"OPENAI_API_KEY"    sensitive:"true"`
	AnthropicKey SensitiveString `koanf:"anthropic_api_key" env:"ANTHROPIC_API_KEY" sensitive:"true"`
	GeminiKey    SensitiveString `koanf:"gemini_api_key"    env:"GEMINI_API_KEY"    sensitive:"true"`
	GoogleKey    SensitiveString `koanf:"google_api_key"    env:"GOOGLE_API_KEY"    sensitive:"true"`
	OllamaHost   string          `koanf:"ollama_host"       env:"OLLAMA_HOST"`
}

type PlacesConfig struct {
	APIKey             SensitiveString `koanf:"api_key"             env:"GOOGLE_MAPS_API_KEY"                 sensitive:"true"`
	GeocodeURL         string          `koanf:"geocode_url"         env:"AGENTCOFFEE_PLACES_GEOCODE_URL"         validate:"required,url"`
	NearbyURL          string          `koanf:"nearby_url"          env:"AGENTCOFFEE_PLACES_NEARBY_URL"          validate:"required,url"`
	Radius             int             `koanf:"radius"              env:"AGENTCOFFEE_PLACES_RADIUS"              validate:"min=1,max=50000"`
	IncludeCoordinates bool            `koanf:"include_coordinates" env:"AGENTCOFFEE_PLACES_INCLUDE_COORDINATES"`
	Timeout            time.Duration   `koanf:"timeout"             env:"AGENTCOFFEE_PLACES_TIMEOUT"             validate:"gt=0"`
}

type AgentConfig struct {
	MaxTurns        int    `koanf:"max_turns"         env:"AGENTCOFFEE_AGENT_MAX_TURNS"         validate:"min=1"`
	StrictTurnLimit bool   `koanf:"strict_turn_limit" env:"AGENTCOFFEE_AGENT_STRICT_TURN_LIMIT"`
	SystemPrompt    string `koanf:"system_prompt"     env:"AGENTCOFFEE_AGENT_SYSTEM_PROMPT"`
}

type ServerConfig struct {
	Host           string        `koanf:"host"            env:"AGENTCOFFEE_SERVER_HOST"            validate:"required"`
	Port           int           `koanf:"port"            env:"AGENTCOFFEE_SERVER_PORT"            validate:"min=1,max=65535"`
	Concurrency    int           `koanf:"concurrency"     env:"AGENTCOFFEE_SERVER_CONCURRENCY"     validate:"min=1"`
	RequestTimeout time.Duration `koanf:"request_timeout" env:"AGENTCOFFEE_SERVER_REQUEST_TIMEOUT" validate:"gt=0"`
}

type LogConfig struct {
	Level string `koanf:"level" env:"AGENTCOFFEE_LOG_LEVEL" validate:"oneof=debug info warn error disabled"`
	JSON  bool   `koanf:"json"  env:"AGENTCOFFEE_LOG_JSON"`
}

func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:    "openai",
			Temperature: 0,
		},
		Places: PlacesConfig{
			GeocodeURL: "https://maps.googleapis.com/maps/api/geocode/json",
			NearbyURL:  "https://maps.googleapis.com/maps/api/place/nearbysearch/json",
			Radius:     1000,
			Timeout:    10 * time.Second,
		},
		Agent: AgentConfig{
			MaxTurns: 10,
		},
		Server: ServerConfig{
			Host:           "127.0.0.1",
			Port:           8080,
			Concurrency:    8,
			RequestTimeout: 2 * time.Minute,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// SensitiveString holds a secret that must not show up in logs or dumps.
type SensitiveString string

func (s SensitiveString) String() string {
	if s == "" {
		return ""
	}
	return "[REDACTED]"
}

// Value returns the secret itself.
func (s SensitiveString) Value() string { return string(s) }

func (s SensitiveString) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}
