// Package errors provides the standardized error taxonomy surfaced by the
// API client. No raw network or decoding errors escape past this boundary.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// ErrCodeValidationFailed is raised locally before any network call.
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	// ErrCodeHTTPError means the backend received the request and rejected it.
	ErrCodeHTTPError ErrorCode = "HTTP_ERROR"

	// ErrCodeRateLimitExceeded is the quota-exhaustion subtype of HTTP_ERROR.
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"

	// ErrCodeRequestTimeout means the bounded request deadline expired.
	ErrCodeRequestTimeout ErrorCode = "REQUEST_TIMEOUT"

	// ErrCodeNetworkUnavailable means no HTTP response was ever received,
	// after the transport exhausted its retries.
	ErrCodeNetworkUnavailable ErrorCode = "NETWORK_UNAVAILABLE"

	// ErrCodeUnexpected is the catch-all for anything outside the contract.
	ErrCodeUnexpected ErrorCode = "UNEXPECTED_ERROR"
)

// ClientError is a structured application error. Message is always safe to
// display to the user directly.
type ClientError struct {
	Code      ErrorCode      `json:"code"`
	Status    int            `json:"status,omitempty"`
	Message   string         `json:"message"`
	Details   string         `json:"details,omitempty"`
	Retryable bool           `json:"retryable"`
	RateLimit *RateLimitInfo `json:"rateLimit,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("ClientError[%s]: %s", e.Code, e.Message)
}

// IsRateLimit reports whether the error signals quota exhaustion.
func (e *ClientError) IsRateLimit() bool {
	return e.Code == ErrCodeRateLimitExceeded
}

// NewValidationError creates a non-retryable local pre-flight error.
func NewValidationError(message string) *ClientError {
	return &ClientError{
		Code:      ErrCodeValidationFailed,
		Message:   message,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewHTTPError creates an error for a non-2xx response. The message prefers
// the backend's own error/message fields when present.
func NewHTTPError(status int, message, details string) *ClientError {
	if message == "" {
		message = fmt.Sprintf("Request failed with status %d (%s)", status, http.StatusText(status))
	}
	return &ClientError{
		Code:      ErrCodeHTTPError,
		Status:    status,
		Message:   message,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRateLimitError creates the quota-exhaustion subtype. info may be nil
// when the backend's details did not match the documented pattern.
func NewRateLimitError(status int, message, details string, info *RateLimitInfo) *ClientError {
	if message == "" {
		message = "Too many evaluation requests. Please wait before trying again."
	}
	return &ClientError{
		Code:      ErrCodeRateLimitExceeded,
		Status:    status,
		Message:   message,
		Details:   details,
		Retryable: false,
		RateLimit: info,
		Timestamp: time.Now().UTC(),
	}
}

// NewTimeoutError creates a retryable request-deadline error.
func NewTimeoutError(operation string) *ClientError {
	return &ClientError{
		Code:      ErrCodeRequestTimeout,
		Message:   "Request timed out. Please try again.",
		Details:   fmt.Sprintf("operation: %s", operation),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNetworkUnavailableError creates the error surfaced once the transport
// has exhausted its retries without ever receiving a response.
func NewNetworkUnavailableError(err error) *ClientError {
	return &ClientError{
		Code:      ErrCodeNetworkUnavailable,
		Message:   "Unable to connect to the server. Please check your connection and try again.",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnexpectedError wraps anything that slipped past the other classifiers.
func NewUnexpectedError(err error) *ClientError {
	return &ClientError{
		Code:      ErrCodeUnexpected,
		Message:   "An unexpected error occurred. Please try again.",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// AsClientError extracts a *ClientError from err, or normalizes err into the
// UNEXPECTED_ERROR catch-all so callers always see the taxonomy.
func AsClientError(err error) *ClientError {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce
	}
	return NewUnexpectedError(err)
}

// IsRateLimit reports whether err classifies as quota exhaustion.
func IsRateLimit(err error) bool {
	var ce *ClientError
	return errors.As(err, &ce) && ce.IsRateLimit()
}
