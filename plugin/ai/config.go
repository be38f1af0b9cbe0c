package ai

import (
	"errors"

	"github.com/hrygo/feeta/internal/profile"
)

// Supported LLM providers.
const (
	ProviderGemini   = "gemini"
	ProviderOpenAI   = "openai"
	ProviderDeepSeek = "deepseek"
)

var defaultModels = map[string]string{
	ProviderGemini:   "gemini-2.0-flash",
	ProviderOpenAI:   "gpt-4o-mini",
	ProviderDeepSeek: "deepseek-chat",
}

// Config represents AI configuration.
type Config struct {
	LLM LLMConfig
}

// LLMConfig represents LLM configuration.
type LLMConfig struct {
	Provider string // gemini, openai, deepseek
	Model    string // gemini-2.0-flash
	APIKey   string
	BaseURL  string
}

// NewConfigFromProfile creates AI config from profile.
func NewConfigFromProfile(p *profile.Profile) *Config {
	cfg := &Config{
		LLM: LLMConfig{
			Provider: p.AILLMProvider,
			Model:    p.AILLMModel,
		},
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = ProviderGemini
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = defaultModels[cfg.LLM.Provider]
	}

	switch cfg.LLM.Provider {
	case ProviderGemini:
		cfg.LLM.APIKey = p.AIGeminiAPIKey
	case ProviderOpenAI:
		cfg.LLM.APIKey = p.AIOpenAIAPIKey
		cfg.LLM.BaseURL = p.AIOpenAIBaseURL
	case ProviderDeepSeek:
		cfg.LLM.APIKey = p.AIDeepSeekAPIKey
		cfg.LLM.BaseURL = p.AIDeepSeekBaseURL
	}

	return cfg
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.LLM.Provider == "" {
		return errors.New("LLM provider is required")
	}
	if _, ok := defaultModels[c.LLM.Provider]; !ok {
		return errors.New("LLM provider must be one of gemini, openai, deepseek")
	}
	if c.LLM.APIKey == "" {
		return errors.New("LLM API key is required")
	}
	if c.LLM.Model == "" {
		return errors.New("LLM model is required")
	}
	return nil
}
