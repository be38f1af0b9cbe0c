package ai

import (
	"context"
	"errors"

	"github.com/sashabaranov/go-openai"
)

// openAIModel serves OpenAI and every OpenAI-compatible endpoint (DeepSeek).
type openAIModel struct {
	client   *openai.Client
	model    string
	provider string
}

func newOpenAIModel(cfg *LLMConfig) *openAIModel {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &openAIModel{
		client:   openai.NewClientWithConfig(clientConfig),
		model:    cfg.Model,
		provider: cfg.Provider,
	}
}

func (m *openAIModel) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	ctx, cancel := withTimeout(ctx, opts.Timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: m.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxOutputTokens,
		TopP:        opts.TopP,
	}

	resp, err := m.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", m.wrapError(ctx, err)
	}
	if len(resp.Choices) == 0 {
		return "", &ModelError{Reason: ReasonNoCandidates, Provider: m.provider, Detail: "response has no choices"}
	}

	choice := resp.Choices[0]
	if choice.FinishReason == openai.FinishReasonContentFilter {
		return "", &ModelError{Reason: ReasonSafetyBlock, Provider: m.provider, Detail: string(choice.FinishReason)}
	}
	if choice.Message.Content == "" {
		return "", &ModelError{Reason: ReasonNoCandidates, Provider: m.provider, Detail: "choice has no text"}
	}
	return choice.Message.Content, nil
}

func (m *openAIModel) wrapError(ctx context.Context, err error) *ModelError {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &ModelError{Reason: ReasonStatus, Provider: m.provider, StatusCode: apiErr.HTTPStatusCode, Detail: apiErr.Message, Cause: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &ModelError{Reason: ReasonStatus, Provider: m.provider, StatusCode: reqErr.HTTPStatusCode, Cause: err}
	}
	return transportError(ctx, m.provider, err)
}
