package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/feeta/internal/profile"
)

func TestNewConfigFromProfile(t *testing.T) {
	tests := []struct {
		name     string
		prof     *profile.Profile
		expected LLMConfig
	}{
		{
			name: "gemini default",
			prof: &profile.Profile{AIGeminiAPIKey: "g-key"},
			expected: LLMConfig{
				Provider: ProviderGemini,
				Model:    "gemini-2.0-flash",
				APIKey:   "g-key",
			},
		},
		{
			name: "openai",
			prof: &profile.Profile{
				AILLMProvider:   "openai",
				AIOpenAIAPIKey:  "o-key",
				AIOpenAIBaseURL: "https://api.openai.com/v1",
			},
			expected: LLMConfig{
				Provider: ProviderOpenAI,
				Model:    "gpt-4o-mini",
				APIKey:   "o-key",
				BaseURL:  "https://api.openai.com/v1",
			},
		},
		{
			name: "deepseek with explicit model",
			prof: &profile.Profile{
				AILLMProvider:     "deepseek",
				AILLMModel:        "deepseek-reasoner",
				AIDeepSeekAPIKey:  "d-key",
				AIDeepSeekBaseURL: "https://api.deepseek.com",
			},
			expected: LLMConfig{
				Provider: ProviderDeepSeek,
				Model:    "deepseek-reasoner",
				APIKey:   "d-key",
				BaseURL:  "https://api.deepseek.com",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfigFromProfile(tt.prof)
			assert.Equal(t, tt.expected, cfg.LLM)
			assert.NoError(t, cfg.Validate())
		})
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  LLMConfig
	}{
		{"missing provider", LLMConfig{Model: "m", APIKey: "k"}},
		{"unknown provider", LLMConfig{Provider: "ollama", Model: "m", APIKey: "k"}},
		{"missing key", LLMConfig{Provider: ProviderGemini, Model: "m"}},
		{"missing model", LLMConfig{Provider: ProviderGemini, APIKey: "k"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{LLM: tt.cfg}
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestNewGenerativeModel(t *testing.T) {
	t.Run("unsupported provider", func(t *testing.T) {
		_, err := NewGenerativeModel(t.Context(), &LLMConfig{Provider: "ollama"})
		assert.Error(t, err)
	})

	t.Run("gemini requires key", func(t *testing.T) {
		_, err := NewGenerativeModel(t.Context(), &LLMConfig{Provider: ProviderGemini, Model: "gemini-2.0-flash"})
		assert.Error(t, err)
	})

	t.Run("openai compatible", func(t *testing.T) {
		model, err := NewGenerativeModel(t.Context(), &LLMConfig{Provider: ProviderDeepSeek, Model: "deepseek-chat", APIKey: "k", BaseURL: "http://127.0.0.1:1"})
		require.NoError(t, err)
		assert.IsType(t, &openAIModel{}, model)
	})
}
