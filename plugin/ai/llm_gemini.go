package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"
)

type geminiModel struct {
	client *genai.Client
	model  string
}

func newGeminiModel(ctx context.Context, cfg *LLMConfig) (*geminiModel, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &geminiModel{
		client: client,
		model:  cfg.Model,
	}, nil
}

func (m *geminiModel) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	ctx, cancel := withTimeout(ctx, opts.Timeout)
	defer cancel()

	temperature := opts.Temperature
	config := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: int32(opts.MaxOutputTokens),
	}
	if opts.TopK > 0 {
		topK := opts.TopK
		config.TopK = &topK
	}
	if opts.TopP > 0 {
		topP := opts.TopP
		config.TopP = &topP
	}

	resp, err := m.client.Models.GenerateContent(ctx, m.model, genai.Text(prompt), config)
	if err != nil {
		return "", geminiError(ctx, err)
	}
	return geminiText(resp)
}

func geminiError(ctx context.Context, err error) *ModelError {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &ModelError{Reason: ReasonStatus, Provider: ProviderGemini, StatusCode: apiErr.Code, Detail: apiErr.Message, Cause: err}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return &ModelError{Reason: ReasonStatus, Provider: ProviderGemini, StatusCode: apiErrPtr.Code, Detail: apiErrPtr.Message, Cause: err}
	}
	return transportError(ctx, ProviderGemini, err)
}

// geminiText pulls the first candidate's text, mapping every "no usable
// answer" shape of the response onto a tagged ModelError.
func geminiText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", &ModelError{Reason: ReasonNoCandidates, Provider: ProviderGemini, Detail: "empty response"}
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		slog.Warn("gemini blocked prompt", "block_reason", resp.PromptFeedback.BlockReason)
		return "", &ModelError{Reason: ReasonSafetyBlock, Provider: ProviderGemini, Detail: string(resp.PromptFeedback.BlockReason)}
	}
	if len(resp.Candidates) == 0 {
		return "", &ModelError{Reason: ReasonNoCandidates, Provider: ProviderGemini, Detail: "response has no candidates"}
	}

	candidate := resp.Candidates[0]
	switch candidate.FinishReason {
	case genai.FinishReasonSafety, genai.FinishReasonProhibitedContent, genai.FinishReasonBlocklist, genai.FinishReasonSPII:
		return "", &ModelError{Reason: ReasonSafetyBlock, Provider: ProviderGemini, Detail: string(candidate.FinishReason)}
	}
	if candidate.Content == nil {
		return "", &ModelError{Reason: ReasonNoCandidates, Provider: ProviderGemini, Detail: "candidate has no content"}
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		b.WriteString(part.Text)
	}
	if b.Len() == 0 {
		return "", &ModelError{Reason: ReasonNoCandidates, Provider: ProviderGemini, Detail: "candidate has no text"}
	}
	return b.String(), nil
}
