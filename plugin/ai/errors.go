package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ModelErrorReason tags why a generation call failed.
type ModelErrorReason string

const (
	// ReasonNetwork covers transport failures before a response arrived.
	ReasonNetwork ModelErrorReason = "network"
	// ReasonTimeout means the call exceeded its deadline.
	ReasonTimeout ModelErrorReason = "timeout"
	// ReasonStatus means the provider answered with a non-2xx status.
	ReasonStatus ModelErrorReason = "non2xx"
	// ReasonSafetyBlock means the prompt or the answer was blocked by a safety filter.
	ReasonSafetyBlock ModelErrorReason = "safety_block"
	// ReasonNoCandidates means the response carried no usable text.
	ReasonNoCandidates ModelErrorReason = "no_candidates"
)

// ModelError is the single error type returned by GenerativeModel implementations.
type ModelError struct {
	Reason     ModelErrorReason
	Provider   string
	StatusCode int
	Detail     string
	Cause      error
}

func (e *ModelError) Error() string {
	msg := fmt.Sprintf("%s model call failed (%s)", e.Provider, e.Reason)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" status %d", e.StatusCode)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Cause != nil && e.Detail == "" {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ModelError) Unwrap() error {
	return e.Cause
}

// Retryable reports whether a caller may reasonably retry the call.
// The pipeline itself never retries.
func (e *ModelError) Retryable() bool {
	switch e.Reason {
	case ReasonNetwork, ReasonTimeout:
		return true
	case ReasonStatus:
		return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
	default:
		return false
	}
}

// IsReason reports whether err is a ModelError with the given reason.
func IsReason(err error, reason ModelErrorReason) bool {
	var modelErr *ModelError
	if errors.As(err, &modelErr) {
		return modelErr.Reason == reason
	}
	return false
}

// transportError wraps a failure that happened before a usable response arrived.
func transportError(ctx context.Context, provider string, err error) *ModelError {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &ModelError{Reason: ReasonTimeout, Provider: provider, Cause: err}
	}
	return &ModelError{Reason: ReasonNetwork, Provider: provider, Cause: err}
}
