package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/hrygo/feeta/plugin/ai"
	"github.com/hrygo/feeta/plugin/ai/extract"
	"github.com/hrygo/feeta/plugin/ai/taskplan"
	"github.com/hrygo/feeta/plugin/github"
	"github.com/hrygo/feeta/plugin/slack"
)

// ErrorCode represents a specific error type returned by the HTTP API.
type ErrorCode string

const (
	// ErrCodeUnauthorized indicates the collaborator rejected the caller's token.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrCodeRateLimitExceeded indicates rate limit has been exceeded.
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	// ErrCodeInvalidArgument indicates invalid input parameters.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeNotFound indicates the remote resource does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeServiceUnavailable indicates a component is not configured.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrCodeLLMUnavailable indicates the model call failed.
	ErrCodeLLMUnavailable ErrorCode = "LLM_UNAVAILABLE"
	// ErrCodeContentBlocked indicates the model refused the prompt or answer.
	ErrCodeContentBlocked ErrorCode = "CONTENT_BLOCKED"
	// ErrCodeExtractionFailed indicates the model answer held no usable JSON.
	ErrCodeExtractionFailed ErrorCode = "EXTRACTION_FAILED"
	// ErrCodeUpstream indicates GitHub or Slack failed.
	ErrCodeUpstream ErrorCode = "UPSTREAM_ERROR"
	// ErrCodeContextCanceled indicates the operation was canceled.
	ErrCodeContextCanceled ErrorCode = "CONTEXT_CANCELED"
	// ErrCodeTimeout indicates the operation timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeInternal indicates an unexpected failure.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// statusClientClosedRequest is the de facto status for requests the client abandoned.
const statusClientClosedRequest = 499

var httpStatus = map[ErrorCode]int{
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeRateLimitExceeded:  http.StatusTooManyRequests,
	ErrCodeInvalidArgument:    http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeLLMUnavailable:     http.StatusBadGateway,
	ErrCodeContentBlocked:     http.StatusUnprocessableEntity,
	ErrCodeExtractionFailed:   http.StatusBadGateway,
	ErrCodeUpstream:           http.StatusBadGateway,
	ErrCodeContextCanceled:    statusClientClosedRequest,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeInternal:           http.StatusInternalServerError,
}

// APIError represents a structured error for the HTTP API.
type APIError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *APIError) Unwrap() error {
	return e.Cause
}

// HTTPStatus returns the response status for the error code.
func (e *APIError) HTTPStatus() int {
	if status, ok := httpStatus[e.Code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// InvalidArgument creates an invalid argument error.
func InvalidArgument(msg string) *APIError {
	return &APIError{Code: ErrCodeInvalidArgument, Message: msg}
}

// RateLimitExceeded creates a rate limit exceeded error.
func RateLimitExceeded(msg string) *APIError {
	return &APIError{Code: ErrCodeRateLimitExceeded, Message: msg}
}

// ServiceUnavailable creates a service unavailable error.
func ServiceUnavailable(msg string) *APIError {
	return &APIError{Code: ErrCodeServiceUnavailable, Message: msg}
}

// Wrap wraps an existing error with additional context.
func Wrap(cause error, code ErrorCode, msg string) *APIError {
	return &APIError{Code: code, Message: msg, Cause: cause}
}

// IsCode checks if an error is of a specific code.
func IsCode(err error, code ErrorCode) bool {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.Code == code
	}
	return false
}

// FromError classifies err into an APIError. msg becomes the message of
// errors that are not already APIErrors.
func FromError(err error, msg string) *APIError {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr
	}
	return Wrap(err, codeOf(err), msg)
}

func codeOf(err error) ErrorCode {
	var (
		modelErr   *ai.ModelError
		extractErr *extract.Error
		githubErr  *github.StatusError
		slackErr   *slack.APIError
	)
	switch {
	case stderrors.Is(err, taskplan.ErrEmptyTask):
		return ErrCodeInvalidArgument
	case stderrors.As(err, &modelErr):
		switch modelErr.Reason {
		case ai.ReasonSafetyBlock:
			return ErrCodeContentBlocked
		case ai.ReasonTimeout:
			return ErrCodeTimeout
		default:
			return ErrCodeLLMUnavailable
		}
	case stderrors.As(err, &extractErr):
		return ErrCodeExtractionFailed
	case stderrors.As(err, &githubErr):
		return upstreamCode(githubErr.StatusCode)
	case stderrors.As(err, &slackErr):
		switch slackErr.Code {
		case "invalid_auth", "not_authed", "token_revoked", "account_inactive":
			return ErrCodeUnauthorized
		case "channel_not_found", "user_not_found":
			return ErrCodeNotFound
		case "ratelimited":
			return ErrCodeRateLimitExceeded
		}
		return upstreamCode(slackErr.StatusCode)
	case stderrors.Is(err, context.DeadlineExceeded):
		return ErrCodeTimeout
	case stderrors.Is(err, context.Canceled):
		return ErrCodeContextCanceled
	}
	return ErrCodeInternal
}

func upstreamCode(status int) ErrorCode {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrCodeUnauthorized
	case http.StatusNotFound:
		return ErrCodeNotFound
	case http.StatusTooManyRequests:
		return ErrCodeRateLimitExceeded
	}
	return ErrCodeUpstream
}
