package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewHTTPError_DefaultMessage(t *testing.T) {
	err := NewHTTPError(502, "", "upstream unavailable")
	assert.Equal(t, ErrCodeHTTPError, err.Code)
	assert.Equal(t, 502, err.Status)
	assert.Contains(t, err.Message, "502")
	assert.False(t, err.Retryable)
}

func TestNewHTTPError_BackendMessagePreferred(t *testing.T) {
	err := NewHTTPError(400, "jobTitle is required", "")
	assert.Equal(t, "jobTitle is required", err.Message)
}

func TestAsClientError(t *testing.T) {
	t.Run("passes through typed errors", func(t *testing.T) {
		orig := NewValidationError("CV file must have .pdf extension")
		got := AsClientError(fmt.Errorf("start evaluation: %w", orig))
		assert.Same(t, orig, got)
	})

	t.Run("normalizes foreign errors", func(t *testing.T) {
		got := AsClientError(stderrors.New("something odd"))
		assert.Equal(t, ErrCodeUnexpected, got.Code)
		assert.Equal(t, "something odd", got.Details)
		assert.NotEmpty(t, got.Message)
	})
}

func TestIsRateLimit(t *testing.T) {
	rl := NewRateLimitError(429, "", "", nil)
	assert.True(t, IsRateLimit(rl))
	assert.True(t, IsRateLimit(fmt.Errorf("trigger: %w", rl)))
	assert.False(t, IsRateLimit(NewHTTPError(500, "boom", "")))
	assert.False(t, IsRateLimit(stderrors.New("plain")))
}

func TestRetryabilityByCode(t *testing.T) {
	assert.False(t, NewValidationError("x").Retryable)
	assert.False(t, NewHTTPError(500, "", "").Retryable)
	assert.True(t, NewTimeoutError("getJobStatus").Retryable)
	assert.True(t, NewNetworkUnavailableError(stderrors.New("connection refused")).Retryable)
}
