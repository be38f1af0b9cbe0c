package ai

import (
	"context"
	"fmt"
	"time"
)

// GenerateOptions controls a single generation call.
type GenerateOptions struct {
	Temperature     float32
	MaxOutputTokens int
	// TopK and TopP are sent only when positive.
	TopK float32
	TopP float32
	// Timeout bounds the call. Zero leaves the caller's context untouched.
	Timeout time.Duration
}

// GenerativeModel is the text generation interface the pipeline consumes.
type GenerativeModel interface {
	// Generate sends a single-turn prompt and returns the raw response text.
	// All failures are reported as *ModelError.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}

// NewGenerativeModel creates the model backend selected by cfg.
func NewGenerativeModel(ctx context.Context, cfg *LLMConfig) (GenerativeModel, error) {
	switch cfg.Provider {
	case ProviderGemini:
		return newGeminiModel(ctx, cfg)
	case ProviderOpenAI, ProviderDeepSeek:
		return newOpenAIModel(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}

// withTimeout derives a context bounded by d when d is positive.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
