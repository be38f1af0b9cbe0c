package slack

import (
	"errors"
	"fmt"
)

// APIError is returned when Slack answers with "ok": false or a non-200 status.
type APIError struct {
	Method string
	// Code is Slack's error string, e.g. "channel_not_found".
	Code       string
	StatusCode int
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("slack %s: status %d", e.Method, e.StatusCode)
	}
	return fmt.Sprintf("slack %s: %s", e.Method, e.Code)
}

// ErrorCode returns the Slack error string carried by err, or "".
func ErrorCode(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ""
}
