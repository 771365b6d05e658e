package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"gopkg.in/yaml.v3"
)

const envPrefix = "AGENTCOFFEE_"

// ErrMissingCredential is returned when a required key is not configured.
var ErrMissingCredential = errors.New("missing credential")

// LoadOptions selects the optional sources. Overrides are dotted koanf paths
// such as "llm.provider" and take precedence over everything else.
type LoadOptions struct {
	ConfigFile string
	EnvFile    string
	Overrides  map[string]any
	// SkipCredentialCheck allows loading without provider keys, for commands
	// that never reach a provider.
	SkipCredentialCheck bool
}

func sensitiveStringDecodeHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(SensitiveString("")) {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		return SensitiveString(v), nil
	case []byte:
		return SensitiveString(v), nil
	default:
		return data, nil
	}
}

// Load builds the configuration. Precedence, lowest first: defaults, YAML
// file, environment (with .env values filling unset variables), overrides.
func Load(opts LoadOptions) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if opts.ConfigFile != "" {
		if err := loadYAML(k, opts.ConfigFile); err != nil {
			return nil, err
		}
	}
	if err := loadDotEnv(opts.EnvFile); err != nil {
		return nil, err
	}
	if err := loadEnvironment(k); err != nil {
		return nil, err
	}
	for key, value := range opts.Overrides {
		if value == nil {
			continue
		}
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("failed to apply override %s: %w", key, err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &cfg,
			TagName:          "koanf",
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				sensitiveStringDecodeHook,
			),
		},
	}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := Validate(&cfg, !opts.SkipCredentialCheck); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadYAML(k *koanf.Koanf, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	for key, value := range flattenMap("", raw) {
		if value == nil {
			continue
		}
		if err := k.Set(key, value); err != nil {
			return fmt.Errorf("failed to set key %s from config file: %w", key, err)
		}
	}
	return nil
}

// loadDotEnv reads a .env file into the process environment without
// overriding variables that are already set. A missing default .env is fine.
func loadDotEnv(path string) error {
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		if !explicit && os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read env file: %w", err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

func loadEnvironment(k *koanf.Koanf) error {
	envToPath := make(map[string]string)
	for _, m := range GenerateEnvMappings() {
		envToPath[m.EnvVar] = m.ConfigPath
	}
	err := k.Load(env.Provider(".", env.Opt{
		TransformFunc: func(key, value string) (string, any) {
			if value == "" {
				return "", nil
			}
			if path, ok := envToPath[key]; ok {
				return path, value
			}
			if strings.HasPrefix(key, envPrefix) {
				return transformEnvKey(strings.TrimPrefix(key, envPrefix)), value
			}
			return "", nil
		},
	}), nil)
	if err != nil {
		return fmt.Errorf("failed to load environment variables: %w", err)
	}
	return nil
}

// transformEnvKey maps SECTION_FIELD_NAME to section.field_name.
func transformEnvKey(s string) string {
	parts := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool { return r == '_' })
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	default:
		return parts[0] + "." + strings.Join(parts[1:], "_")
	}
}

func flattenMap(prefix string, m map[string]any) map[string]any {
	result := make(map[string]any)
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			for fk, fv := range flattenMap(key, nested) {
				result[fk] = fv
			}
		} else {
			result[key] = v
		}
	}
	return result
}

// Validate checks struct tags and the cross-field rules. requireCredentials
// makes missing provider keys an error.
func Validate(cfg *Config, requireCredentials bool) error {
	if cfg == nil {
		return fmt.Errorf("configuration cannot be nil")
	}
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if !requireCredentials {
		return nil
	}
	if cfg.Places.APIKey == "" {
		return fmt.Errorf("%w: places.api_key (GOOGLE_MAPS_API_KEY)", ErrMissingCredential)
	}
	if cfg.LLM.needsKey() && cfg.LLM.ResolvedAPIKey() == "" {
		return fmt.Errorf("%w: api key for llm provider %s", ErrMissingCredential, cfg.LLM.Provider)
	}
	return nil
}

func (c LLMConfig) needsKey() bool {
	switch c.Provider {
	case "ollama", "dummy":
		return false
	default:
		return true
	}
}

// ResolvedAPIKey returns the explicit key, or the provider's conventional one.
func (c LLMConfig) ResolvedAPIKey() string {
	if c.APIKey != "" {
		return c.APIKey.Value()
	}
	switch c.Provider {
	case "openai":
		return c.OpenAIKey.Value()
	case "anthropic", "claude":
		return c.AnthropicKey.Value()
	case "gemini", "google":
		if c.GeminiKey != "" {
			return c.GeminiKey.Value()
		}
		return c.GoogleKey.Value()
	default:
		return ""
	}
}

// ResolvedBaseURL returns the base URL, falling back to OLLAMA_HOST for ollama.
func (c LLMConfig) ResolvedBaseURL() string {
	if c.BaseURL == "" && c.Provider == "ollama" {
		return c.OllamaHost
	}
	return c.BaseURL
}
