package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, m := range GenerateEnvMappings() {
		t.Setenv(m.EnvVar, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearProviderEnv(t)

	cfg, err := Load(LoadOptions{SkipCredentialCheck: true})
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, 1000, cfg.Places.Radius)
	assert.Equal(t, 10*time.Second, cfg.Places.Timeout)
	assert.Equal(t, 10, cfg.Agent.MaxTurns)
	assert.False(t, cfg.Places.IncludeCoordinates)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadEnvironment(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("GOOGLE_MAPS_API_KEY", "maps-key")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("AGENTCOFFEE_AGENT_MAX_TURNS", "4")
	t.Setenv("AGENTCOFFEE_PLACES_INCLUDE_COORDINATES", "true")
	t.Setenv("AGENTCOFFEE_PLACES_TIMEOUT", "3s")

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "maps-key", cfg.Places.APIKey.Value())
	assert.Equal(t, "sk-test", cfg.LLM.ResolvedAPIKey())
	assert.Equal(t, 4, cfg.Agent.MaxTurns)
	assert.True(t, cfg.Places.IncludeCoordinates)
	assert.Equal(t, 3*time.Second, cfg.Places.Timeout)
}

func TestLoadPrecedence(t *testing.T) {
	clearProviderEnv(t)
	dir := t.TempDir()
	file := filepath.Join(dir, "agentcoffee.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
llm:
  provider: ollama
  model: llama3
places:
  api_key: from-file
  radius: 1500
agent:
  max_turns: 6
`), 0o600))
	t.Setenv("AGENTCOFFEE_AGENT_MAX_TURNS", "7")

	cfg, err := Load(LoadOptions{
		ConfigFile: file,
		Overrides:  map[string]any{"llm.model": "mistral-nemo", "log.level": nil},
	})
	require.NoError(t, err)
	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, "mistral-nemo", cfg.LLM.Model)
	assert.Equal(t, 1500, cfg.Places.Radius)
	assert.Equal(t, 7, cfg.Agent.MaxTurns)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "https://maps.googleapis.com/maps/api/geocode/json", cfg.Places.GeocodeURL)
}

func TestLoadDotEnvDoesNotOverrideEnvironment(t *testing.T) {
	clearProviderEnv(t)
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("GOOGLE_MAPS_API_KEY=dotenv-key\nAGENTCOFFEE_LLM_PROVIDER=openai\n"), 0o600))
	t.Setenv("AGENTCOFFEE_LLM_PROVIDER", "dummy")
	// godotenv only fills variables that are not set at all.
	require.NoError(t, os.Unsetenv("GOOGLE_MAPS_API_KEY"))

	cfg, err := Load(LoadOptions{EnvFile: envFile})
	require.NoError(t, err)
	assert.Equal(t, "dotenv-key", cfg.Places.APIKey.Value())
	assert.Equal(t, "dummy", cfg.LLM.Provider)
}

func TestLoadMissingEnvFile(t *testing.T) {
	clearProviderEnv(t)
	_, err := Load(LoadOptions{EnvFile: filepath.Join(t.TempDir(), "missing.env"), SkipCredentialCheck: true})
	assert.Error(t, err)
}

func TestLoadMissingCredentials(t *testing.T) {
	clearProviderEnv(t)

	_, err := Load(LoadOptions{Overrides: map[string]any{"llm.provider": "dummy"}})
	assert.ErrorIs(t, err, ErrMissingCredential)

	t.Setenv("GOOGLE_MAPS_API_KEY", "maps-key")
	_, err = Load(LoadOptions{Overrides: map[string]any{"llm.provider": "anthropic"}})
	assert.ErrorIs(t, err, ErrMissingCredential)

	cfg, err := Load(LoadOptions{Overrides: map[string]any{"llm.provider": "dummy"}})
	require.NoError(t, err)
	assert.Equal(t, "dummy", cfg.LLM.Provider)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	clearProviderEnv(t)

	_, err := Load(LoadOptions{SkipCredentialCheck: true, Overrides: map[string]any{"llm.provider": "mlx"}})
	assert.Error(t, err)

	_, err = Load(LoadOptions{SkipCredentialCheck: true, Overrides: map[string]any{"agent.max_turns": 0}})
	assert.Error(t, err)

	_, err = Load(LoadOptions{SkipCredentialCheck: true, Overrides: map[string]any{"log.level": "trace"}})
	assert.Error(t, err)
}

func TestResolvedAPIKey(t *testing.T) {
	c := LLMConfig{Provider: "gemini", GoogleKey: "g"}
	assert.Equal(t, "g", c.ResolvedAPIKey())
	c.GeminiKey = "gem"
	assert.Equal(t, "gem", c.ResolvedAPIKey())
	c.APIKey = "explicit"
	assert.Equal(t, "explicit", c.ResolvedAPIKey())

	o := LLMConfig{Provider: "ollama", OllamaHost: "http://gpu:11434"}
	assert.Equal(t, "http://gpu:11434", o.ResolvedBaseURL())
}

func TestSensitiveStringIsRedacted(t *testing.T) {
	s := SensitiveString("secret")
	assert.Equal(t, "[REDACTED]", s.String())
	out, err := json.Marshal(struct {
		Key SensitiveString `json:"key"`
	}{s})
	require.NoError(t, err)
	assert.JSONEq(t, `{"key":"[REDACTED]"}`, string(out))
}

func TestTransformEnvKey(t *testing.T) {
	assert.Equal(t, "server.request_timeout", transformEnvKey("SERVER_REQUEST_TIMEOUT"))
	assert.Equal(t, "log", transformEnvKey("LOG"))
	assert.Equal(t, "", transformEnvKey("__"))
}
