// Package api is the typed client for the evaluation backend. It owns error
// classification: every failure leaving this package is a *errors.ClientError.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	apperrors "cv-evaluator-client/internal/common/errors"
	"cv-evaluator-client/internal/common/logger"
	"cv-evaluator-client/internal/common/transport"
	"cv-evaluator-client/internal/models"
)

// Client talks to the evaluation backend over the retrying transport.
// The bearer token is the only mutable state; it is swapped atomically on
// sign-in/sign-out, and in-flight requests keep the token captured at
// call start.
type Client struct {
	tr             *transport.Transport
	baseURL        string
	requestTimeout time.Duration
	uploadTimeout  time.Duration
	logger         logger.Logger

	mu    sync.RWMutex
	token string
}

// Options configures a Client beyond its base URL.
type Options struct {
	RequestTimeout time.Duration
	UploadTimeout  time.Duration
	Retry          *transport.RetryConfig
}

func NewClient(baseURL string, opts Options, log logger.Logger) *Client {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = transport.DefaultRequestTimeout
	}
	if opts.UploadTimeout <= 0 {
		opts.UploadTimeout = transport.DefaultUploadTimeout
	}
	return &Client{
		tr:             transport.New(opts.Retry, log),
		baseURL:        strings.TrimSuffix(baseURL, "/"),
		requestTimeout: opts.RequestTimeout,
		uploadTimeout:  opts.UploadTimeout,
		logger:         log,
	}
}

// SetToken installs the bearer token used for subsequent requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// ClearToken removes the bearer token.
func (c *Client) ClearToken() {
	c.SetToken("")
}

func (c *Client) currentToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// TriggerEvaluation queues an evaluation of an already-uploaded document pair
// against a job title. Quota exhaustion surfaces as RATE_LIMIT_EXCEEDED.
func (c *Client) TriggerEvaluation(ctx context.Context, jobTitle, cvDocumentID, projectReportID string) (*EvaluateResult, error) {
	if strings.TrimSpace(jobTitle) == "" {
		return nil, apperrors.NewValidationError("Job title must not be empty.")
	}

	var out EvaluateResult
	err := c.doJSON(ctx, http.MethodPost, "/evaluate", "triggerEvaluation", evaluateRequest{
		JobTitle:        jobTitle,
		CVDocumentID:    cvDocumentID,
		ProjectReportID: projectReportID,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetJobStatus fetches the current state of a job. Idempotent; callers poll it.
func (c *Client) GetJobStatus(ctx context.Context, jobID string) (*models.Job, error) {
	if jobID == "" {
		return nil, apperrors.NewValidationError("Job id must not be empty.")
	}

	var env jobEnvelope
	if err := c.doJSON(ctx, http.MethodGet, "/api/status/"+jobID, "getJobStatus", nil, &env); err != nil {
		return nil, err
	}
	return c.jobFromEnvelope(env)
}

// ListEvaluations fetches the caller's evaluation history, newest first.
func (c *Client) ListEvaluations(ctx context.Context) ([]models.Job, error) {
	var out jobsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/jobs", "listEvaluations", nil, &out); err != nil {
		return nil, err
	}

	jobs := make([]models.Job, 0, len(out.Jobs))
	for _, env := range out.Jobs {
		job, err := c.jobFromEnvelope(env)
		if err != nil {
			// One corrupt history entry should not hide the rest.
			c.logger.Warn("skipping undecodable job in history", map[string]interface{}{
				"jobId": env.ID,
				"error": err.Error(),
			})
			continue
		}
		jobs = append(jobs, *job)
	}
	models.SortJobsByCreatedAtDesc(jobs)
	return jobs, nil
}

// SignUp registers an account. The returned token may be empty when the
// backend defers issuance; the session layer falls back to SignIn then.
func (c *Client) SignUp(ctx context.Context, email, password, name string) (*models.User, string, error) {
	var out authResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/sign-up", "signUp", signUpRequest{
		Email:    email,
		Password: password,
		Name:     name,
	}, &out)
	if err != nil {
		return nil, "", err
	}
	if out.User == nil {
		return nil, "", apperrors.NewUnexpectedError(fmt.Errorf("sign-up response missing user"))
	}
	return out.User, out.SessionToken, nil
}

// SignIn authenticates and returns the user with a bearer token.
func (c *Client) SignIn(ctx context.Context, email, password string) (*models.User, string, error) {
	var out authResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/sign-in", "signIn", signInRequest{
		Email:    email,
		Password: password,
	}, &out)
	if err != nil {
		return nil, "", err
	}
	if out.User == nil || out.SessionToken == "" {
		return nil, "", apperrors.NewUnexpectedError(fmt.Errorf("sign-in response missing user or token"))
	}
	return out.User, out.SessionToken, nil
}

// SignOut revokes the session server-side. Callers treat it as best-effort.
func (c *Client) SignOut(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/api/auth/sign-out", "signOut", nil, nil)
}

// CurrentUser validates the stored token by fetching the account behind it.
func (c *Client) CurrentUser(ctx context.Context) (*models.User, error) {
	var out currentUserResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/auth/me", "getCurrentUser", nil, &out); err != nil {
		return nil, err
	}
	if out.User == nil {
		return nil, apperrors.NewUnexpectedError(fmt.Errorf("current-user response missing user"))
	}
	return out.User, nil
}

// doJSON performs one JSON exchange: marshal, send, classify, decode.
func (c *Client) doJSON(ctx context.Context, method, path, operation string, in, out interface{}) error {
	header := http.Header{}
	header.Set("Accept", "application/json")
	if token := c.currentToken(); token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	var body []byte
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return apperrors.NewUnexpectedError(err)
		}
		body = data
		header.Set("Content-Type", "application/json")
	}

	resp, err := c.tr.Send(ctx, transport.Request{
		Method:    method,
		URL:       c.baseURL + path,
		Header:    header,
		Body:      body,
		Timeout:   c.requestTimeout,
		Operation: operation,
	})
	if err != nil {
		return apperrors.AsClientError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return classifyHTTPError(resp.StatusCode, resp.Body)
	}

	if out == nil || len(resp.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return apperrors.NewUnexpectedError(fmt.Errorf("decoding %s response: %w", operation, err))
	}
	return nil
}

// jobFromEnvelope turns a wire job into a model, validating a completed
// result against the report schema before trusting it.
func (c *Client) jobFromEnvelope(env jobEnvelope) (*models.Job, error) {
	if !env.Status.IsValid() {
		return nil, apperrors.NewUnexpectedError(fmt.Errorf("job %s reports unknown status %q", env.ID, env.Status))
	}

	job := &models.Job{
		ID:        env.ID,
		Status:    env.Status,
		Progress:  env.Progress,
		Error:     env.Error,
		CreatedAt: env.CreatedAt,
		UpdatedAt: env.UpdatedAt,
	}

	if env.Status == models.StatusCompleted && len(env.Result) > 0 {
		if err := validateReportPayload(env.Result); err != nil {
			return nil, apperrors.NewUnexpectedError(fmt.Errorf("job %s result failed schema validation: %w", env.ID, err))
		}
		var report models.ScoredReport
		if err := json.Unmarshal(env.Result, &report); err != nil {
			return nil, apperrors.NewUnexpectedError(fmt.Errorf("decoding job %s result: %w", env.ID, err))
		}
		job.Result = &report
	}

	return job, nil
}

// classifyHTTPError maps a non-2xx response into the error taxonomy. Quota
// exhaustion is signalled by a 429 or, failing that, textually in the body.
func classifyHTTPError(status int, body []byte) *apperrors.ClientError {
	var eb errorBody
	_ = json.Unmarshal(body, &eb) // a non-JSON body just leaves the fields empty

	message := eb.Error
	if message == "" {
		message = eb.Message
	}

	if status == http.StatusTooManyRequests || apperrors.IsRateLimitBody(eb.Error) {
		return apperrors.NewRateLimitError(status, message, eb.Details, apperrors.ParseRateLimitInfo(eb.Details))
	}
	return apperrors.NewHTTPError(status, message, eb.Details)
}
