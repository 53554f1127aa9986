package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "cv-evaluator-client/internal/common/errors"
	"cv-evaluator-client/internal/common/logger"
)

func newTestTransport(t *testing.T) *Transport {
	return New(&RetryConfig{MaxRetries: 2, BaseDelay: 5 * time.Millisecond}, logger.NewTestLogger(t))
}

func TestSendReturnsResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	resp, err := newTestTransport(t).Send(context.Background(), Request{
		Method:    http.MethodGet,
		URL:       server.URL,
		Operation: "test",
	})

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"ok":true}`, string(resp.Body))
}

func TestSendDoesNotRetryHTTPErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	resp, err := newTestTransport(t).Send(context.Background(), Request{
		Method:    http.MethodGet,
		URL:       server.URL,
		Operation: "test",
	})

	// 5xx is still a received response; classification is the caller's job.
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestSendRetriesConnectionFailure(t *testing.T) {
	// First attempt gets its connection torn down mid-exchange; the retry
	// reaches a healthy handler.
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			conn, _, err := w.(http.Hijacker).Hijack()
			require.NoError(t, err)
			conn.Close()
			return
		}
		w.Write([]byte("recovered"))
	}))
	defer server.Close()

	resp, err := newTestTransport(t).Send(context.Background(), Request{
		Method:    http.MethodGet,
		URL:       server.URL,
		Operation: "test",
	})

	require.NoError(t, err)
	assert.Equal(t, "recovered", string(resp.Body))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestSendExhaustedRetriesBecomeNetworkUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close() // nothing listens here anymore

	_, err := newTestTransport(t).Send(context.Background(), Request{
		Method:    http.MethodGet,
		URL:       url,
		Operation: "test",
	})

	require.Error(t, err)
	ce := apperrors.AsClientError(err)
	assert.Equal(t, apperrors.ErrCodeNetworkUnavailable, ce.Code)
	assert.True(t, ce.Retryable)
}

func TestSendTimeoutIsNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	_, err := newTestTransport(t).Send(context.Background(), Request{
		Method:    http.MethodGet,
		URL:       server.URL,
		Timeout:   20 * time.Millisecond,
		Operation: "test",
	})

	require.Error(t, err)
	ce := apperrors.AsClientError(err)
	assert.Equal(t, apperrors.ErrCodeRequestTimeout, ce.Code)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestSendHonorsCallerCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := newTestTransport(t).Send(ctx, Request{
		Method:    http.MethodGet,
		URL:       server.URL,
		Operation: "test",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
