// Package transport performs single HTTP calls with bounded latency and
// resilience to transient network failures. It knows nothing about endpoint
// semantics: received responses, 4xx/5xx included, are never retried here.
package transport

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	apperrors "cv-evaluator-client/internal/common/errors"
	"cv-evaluator-client/internal/common/logger"
	"cv-evaluator-client/internal/common/metrics"
)

// DefaultRequestTimeout bounds status/control calls.
const DefaultRequestTimeout = 60 * time.Second

// DefaultUploadTimeout bounds multipart file submissions, which can carry
// multi-megabyte PDFs over slow links.
const DefaultUploadTimeout = 5 * time.Minute

// RetryConfig defines retry behavior for transport-level failures.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// DefaultRetryConfig retries twice with linearly increasing backoff (1s, 2s).
var DefaultRetryConfig = &RetryConfig{
	MaxRetries: 2,
	BaseDelay:  1 * time.Second,
}

// Request is one HTTP exchange to perform. Body is held as bytes so an
// attempt that never reached the server can be replayed.
type Request struct {
	Method    string
	URL       string
	Header    http.Header
	Body      []byte
	Timeout   time.Duration
	Operation string // metrics/log label, e.g. "getJobStatus"
}

// RawResponse is a fully drained HTTP response. Draining inside the request
// deadline lets the per-attempt context be released before returning.
type RawResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Transport wraps an http.Client with retry and per-request deadlines.
// Stateless between calls; safe for concurrent use.
type Transport struct {
	httpClient *http.Client
	retry      *RetryConfig
	logger     logger.Logger
}

func New(retry *RetryConfig, log logger.Logger) *Transport {
	if retry == nil {
		retry = DefaultRetryConfig
	}
	return &Transport{
		// Deadlines are enforced per attempt via context, not a client-wide
		// timeout, so upload and control calls can share one client.
		httpClient: &http.Client{},
		retry:      retry,
		logger:     log,
	}
}

// Send performs the request, retrying only when no HTTP response was
// received. Each attempt runs under its own deadline so one request's expiry
// never affects others in flight.
func (t *Transport) Send(ctx context.Context, req Request) (*RawResponse, error) {
	if req.Timeout <= 0 {
		req.Timeout = DefaultRequestTimeout
	}
	requestID := uuid.NewString()
	start := time.Now()

	var lastErr error
	for attempt := 0; attempt <= t.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			metrics.APIRequestRetries.WithLabelValues(req.Operation).Inc()

			// Linear backoff: 1s before the second attempt, 2s before the third.
			delay := t.retry.BaseDelay * time.Duration(attempt)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, t.finish(req, start, "cancelled", ctx.Err())
			}
		}

		resp, err := t.attempt(ctx, req, requestID)
		if err == nil {
			return resp, t.finish(req, start, "response", nil)
		}

		var ce *apperrors.ClientError
		if errors.As(err, &ce) && ce.Code == apperrors.ErrCodeRequestTimeout {
			// The deadline bounds the whole exchange; replaying it would
			// double the caller's wait.
			return nil, t.finish(req, start, "timeout", err)
		}
		if ctx.Err() != nil {
			return nil, t.finish(req, start, "cancelled", ctx.Err())
		}

		lastErr = err
		t.logger.Warn("transport attempt failed", map[string]interface{}{
			"operation": req.Operation,
			"requestId": requestID,
			"attempt":   attempt + 1,
			"error":     err.Error(),
		})
	}

	return nil, t.finish(req, start, "network_unavailable", apperrors.NewNetworkUnavailableError(lastErr))
}

// attempt performs one exchange under its own deadline and drains the body
// before the deadline is released.
func (t *Transport) attempt(ctx context.Context, req Request, requestID string) (*RawResponse, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, req.Timeout)
	defer cancel()

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(attemptCtx, req.Method, req.URL, body)
	if err != nil {
		return nil, apperrors.NewUnexpectedError(err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("X-Request-ID", requestID)

	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		if attemptCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return nil, apperrors.NewTimeoutError(req.Operation)
		}
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if attemptCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return nil, apperrors.NewTimeoutError(req.Operation)
		}
		return nil, err
	}

	return &RawResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}

// finish records metrics for the exchange and passes the error through.
func (t *Transport) finish(req Request, start time.Time, outcome string, err error) error {
	metrics.APIRequestsTotal.WithLabelValues(req.Operation, outcome).Inc()
	metrics.APIRequestDuration.WithLabelValues(req.Operation).Observe(time.Since(start).Seconds())
	return err
}
