package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Error is a non-2xx response from the notes API.
type Error struct {
	StatusCode int
	Message    string
	RequestID  string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("notes api: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("notes api: %d %s", e.StatusCode, e.Message)
}

// newError reads a bounded amount of the body looking for a JSON
// "message" or "error" field, falling back to the raw text.
func newError(resp *http.Response, requestID string) *Error {
	apiErr := &Error{StatusCode: resp.StatusCode, RequestID: requestID}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return apiErr
	}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(data, &payload) == nil {
		switch {
		case payload.Message != "":
			apiErr.Message = payload.Message
			return apiErr
		case payload.Error != "":
			apiErr.Message = payload.Error
			return apiErr
		}
	}
	apiErr.Message = strings.TrimSpace(string(data))
	return apiErr
}

// IsRetryable reports whether a failed request is worth repeating:
// transport errors, 429 and 5xx are; client errors and cancellation are not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
	}
	return true
}
