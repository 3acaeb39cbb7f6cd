package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// genericMessage is used when the backend returned no usable error payload.
const genericMessage = "an unknown error occurred, please retry later"

// RetriableError marks a backend failure that is safe to retry automatically.
// Only HTTP 503 responses are classified this way.
type RetriableError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface for RetriableError.
func (e *RetriableError) Error() string {
	return e.Message
}

// FatalError marks a backend failure that must be surfaced to the caller
// without further retries: any non-2xx status other than 503, payload parse
// failures and protocol violations.
type FatalError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface for FatalError.
func (e *FatalError) Error() string {
	return e.Message
}

// NewFatal wraps a plain message into a FatalError with no HTTP status.
func NewFatal(message string) error {
	return &FatalError{Message: message}
}

// FromResponse classifies a non-2xx backend response into a retriable or
// fatal error, carrying the best-effort message from the body.
func FromResponse(statusCode int, status string, body []byte) error {
	message := MessageFromResponse(status, body)
	if statusCode == http.StatusServiceUnavailable {
		return &RetriableError{StatusCode: statusCode, Message: message}
	}
	return &FatalError{StatusCode: statusCode, Message: message}
}

// IsRetriable reports whether err (or anything it wraps) is a RetriableError.
func IsRetriable(err error) bool {
	var re *RetriableError
	return errors.As(err, &re)
}

// errorPayload mirrors the two error body shapes the backend produces.
type errorPayload struct {
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
}

// MessageFromResponse extracts a human-readable message from an error
// response body. It prefers a JSON `detail` field, then `message`, and falls
// back to a generic text. This is the single parsing boundary for backend
// error payloads; raw bodies never travel further up.
func MessageFromResponse(status string, body []byte) string {
	message := fmt.Sprintf("API error (%s): ", status)

	if len(body) == 0 {
		return message + genericMessage
	}

	var payload errorPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return message + genericMessage
	}

	switch {
	case len(payload.Detail) > 0:
		var detail string
		if err := json.Unmarshal(payload.Detail, &detail); err == nil {
			return message + detail
		}
		// Structured validation details are passed through as raw JSON.
		return message + string(payload.Detail)
	case payload.Message != "":
		return message + payload.Message
	default:
		return message + genericMessage
	}
}
