package ai

import (
	"context"
	"sync"
)

// MockCall records one Generate invocation.
type MockCall struct {
	Prompt string
	Opts   GenerateOptions
}

// MockResponse is a scripted Generate result.
type MockResponse struct {
	Text string
	Err  error
}

// MockModel is a scripted GenerativeModel for testing.
// Responses are consumed in order; Responder, when set, takes precedence.
type MockModel struct {
	mu        sync.Mutex
	responses []MockResponse
	calls     []MockCall

	// Responder computes a response from the prompt.
	Responder func(prompt string) (string, error)
}

// NewMockModel creates a MockModel returning texts in order.
func NewMockModel(texts ...string) *MockModel {
	m := &MockModel{}
	for _, text := range texts {
		m.responses = append(m.responses, MockResponse{Text: text})
	}
	return m
}

// Enqueue appends scripted responses.
func (m *MockModel) Enqueue(responses ...MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, responses...)
}

// Generate returns the next scripted response.
func (m *MockModel) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, MockCall{Prompt: prompt, Opts: opts})
	responder := m.Responder
	var next *MockResponse
	if responder == nil && len(m.responses) > 0 {
		next = &m.responses[0]
		m.responses = m.responses[1:]
	}
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", transportError(ctx, "mock", err)
	}
	if responder != nil {
		return responder(prompt)
	}
	if next == nil {
		return "", &ModelError{Reason: ReasonNoCandidates, Provider: "mock", Detail: "no scripted response"}
	}
	return next.Text, next.Err
}

// Calls returns a copy of the recorded calls.
func (m *MockModel) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns the number of Generate invocations.
func (m *MockModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Ensure MockModel implements GenerativeModel
var _ GenerativeModel = (*MockModel)(nil)
