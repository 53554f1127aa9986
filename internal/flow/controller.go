// Package flow is the client-side state machine coordinating the evaluation
// journey: document upload, job-title entry, the evaluation run, and the
// terminal results, error, and rate-limit views.
package flow

import (
	"context"
	"strings"
	"sync"
	"time"

	"cv-evaluator-client/internal/api"
	apperrors "cv-evaluator-client/internal/common/errors"
	"cv-evaluator-client/internal/common/logger"
	"cv-evaluator-client/internal/common/observability"
	"cv-evaluator-client/internal/models"
	"cv-evaluator-client/internal/polling"
)

// State names one screen of the evaluation flow.
type State string

const (
	StateUpload     State = "upload"
	StateJobTitle   State = "job-title"
	StateEvaluating State = "evaluating"
	StateResults    State = "results"
	StateError      State = "error"
	StateRateLimit  State = "rate-limit"
)

// EvaluationAPI is the slice of the API client the controller drives.
type EvaluationAPI interface {
	UploadDocuments(ctx context.Context, cv, projectReport models.Document) (*api.UploadResult, error)
	TriggerEvaluation(ctx context.Context, jobTitle, cvDocumentID, projectReportID string) (*api.EvaluateResult, error)
	GetJobStatus(ctx context.Context, jobID string) (*models.Job, error)
	ListEvaluations(ctx context.Context) ([]models.Job, error)
}

// RateLimitView is what the rate-limit screen renders.
type RateLimitView struct {
	Limit         int
	Period        string
	NextAvailable time.Time
}

// Snapshot is a consistent read of the controller's visible state.
type Snapshot struct {
	State     State
	Message   string // inline validation/error text for the current screen
	JobID     string
	Progress  int
	Phase     string // named evaluation stage while evaluating
	Result    *models.ScoredReport
	RateLimit *RateLimitView
}

// Controller owns the flow state. All mutation happens under one mutex; the
// optional OnTransition hook fires outside it after every state change.
type Controller struct {
	api          EvaluationAPI
	pollInterval time.Duration
	obs          *observability.Observability
	logger       logger.Logger

	// OnTransition, when set, is called with a snapshot after each change.
	OnTransition func(Snapshot)

	mu        sync.Mutex
	state     State
	message   string
	cv        models.Document
	report    models.Document
	jobTitle  string
	cvDocID   string
	reportID  string
	jobID     string
	progress  int
	phase     string
	result    *models.ScoredReport
	rateLimit *RateLimitView
	poller    *polling.Poller
}

func NewController(evalAPI EvaluationAPI, pollInterval time.Duration, obs *observability.Observability, log logger.Logger) *Controller {
	return &Controller{
		api:          evalAPI,
		pollInterval: pollInterval,
		obs:          obs,
		logger:       log,
		state:        StateUpload,
	}
}

// Snapshot returns the current visible state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		State:     c.state,
		Message:   c.message,
		JobID:     c.jobID,
		Progress:  c.progress,
		Phase:     c.phase,
		Result:    c.result,
		RateLimit: c.rateLimit,
	}
}

// SetDocuments stages the document pair. Both must be present to advance to
// the job-title screen; otherwise the flow stays on upload with a message.
func (c *Controller) SetDocuments(cv, projectReport models.Document) error {
	c.mu.Lock()
	if c.state != StateUpload {
		c.mu.Unlock()
		return apperrors.NewValidationError("Documents can only be set on the upload screen.")
	}
	if cv.Name == "" || len(cv.Content) == 0 || projectReport.Name == "" || len(projectReport.Content) == 0 {
		c.message = "Both a CV and a project report are required."
		msg := c.message
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.notify(snap)
		return apperrors.NewValidationError(msg)
	}

	c.cv = cv
	c.report = projectReport
	c.state = StateJobTitle
	c.message = ""
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)
	return nil
}

// StartEvaluation uploads the staged pair and queues the evaluation. On
// success the flow enters evaluating and begins polling; on quota exhaustion
// it diverts to the rate-limit screen; any other failure keeps the job-title
// screen with the error inline.
func (c *Controller) StartEvaluation(ctx context.Context, jobTitle string) error {
	c.mu.Lock()
	if c.state != StateJobTitle {
		c.mu.Unlock()
		return apperrors.NewValidationError("An evaluation can only start from the job-title screen.")
	}
	if strings.TrimSpace(jobTitle) == "" {
		c.message = "Please enter the job title to evaluate against."
		msg := c.message
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.notify(snap)
		return apperrors.NewValidationError(msg)
	}
	c.jobTitle = jobTitle
	cv, report := c.cv, c.report
	c.mu.Unlock()

	uploaded, err := c.api.UploadDocuments(ctx, cv, report)
	if err != nil {
		return c.handleSubmitFailure(err)
	}

	queued, err := c.api.TriggerEvaluation(ctx, jobTitle, uploaded.CVDocumentID, uploaded.ProjectReportID)
	if err != nil {
		return c.handleSubmitFailure(err)
	}

	c.mu.Lock()
	c.cvDocID = uploaded.CVDocumentID
	c.reportID = uploaded.ProjectReportID
	c.jobID = queued.JobID
	c.state = StateEvaluating
	c.message = ""
	queuedJob := &models.Job{Status: models.StatusQueued}
	c.progress = polling.DisplayProgress(queuedJob)
	c.phase = polling.Phase(queuedJob)
	c.stopPollerLocked()
	c.poller = polling.New(c.api, c.pollInterval, c.obs, c.logger)
	poller := c.poller
	jobID := c.jobID
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)

	poller.Start(ctx, jobID, c.pollCallbacks(jobID))
	return nil
}

// RetryStatusCheck re-polls a job whose status tracking previously failed.
// Only valid from the error screen, and only on the user's explicit request.
func (c *Controller) RetryStatusCheck(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateError || c.jobID == "" {
		c.mu.Unlock()
		return apperrors.NewValidationError("Nothing to retry.")
	}
	c.state = StateEvaluating
	c.message = ""
	c.stopPollerLocked()
	c.poller = polling.New(c.api, c.pollInterval, c.obs, c.logger)
	poller := c.poller
	jobID := c.jobID
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)

	poller.Start(ctx, jobID, c.pollCallbacks(jobID))
	return nil
}

// RetryAfterRateLimit returns to the job-title screen keeping the staged
// documents and title, so the user can resubmit once quota allows.
func (c *Controller) RetryAfterRateLimit() error {
	c.mu.Lock()
	if c.state != StateRateLimit {
		c.mu.Unlock()
		return apperrors.NewValidationError("Not on the rate-limit screen.")
	}
	c.state = StateJobTitle
	c.message = ""
	c.rateLimit = nil
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)
	return nil
}

// SelectEvaluation shows a past completed evaluation on the results screen.
func (c *Controller) SelectEvaluation(ctx context.Context, jobID string) error {
	job, err := c.api.GetJobStatus(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status != models.StatusCompleted || job.Result == nil {
		return apperrors.NewValidationError("Only completed evaluations can be viewed.")
	}

	c.mu.Lock()
	c.stopPollerLocked()
	c.state = StateResults
	c.jobID = job.ID
	c.result = job.Result
	c.progress = polling.DisplayProgress(job)
	c.phase = polling.Phase(job)
	c.message = ""
	c.rateLimit = nil
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)
	return nil
}

// RecentEvaluations returns the caller's history, newest first.
func (c *Controller) RecentEvaluations(ctx context.Context) ([]models.Job, error) {
	return c.api.ListEvaluations(ctx)
}

// ResetToStart aborts any polling and clears everything back to the upload
// screen. Valid from every state.
func (c *Controller) ResetToStart() {
	c.mu.Lock()
	c.stopPollerLocked()
	c.state = StateUpload
	c.message = ""
	c.cv = models.Document{}
	c.report = models.Document{}
	c.jobTitle = ""
	c.cvDocID = ""
	c.reportID = ""
	c.jobID = ""
	c.progress = 0
	c.phase = ""
	c.result = nil
	c.rateLimit = nil
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)
}

// pollCallbacks builds the callback set for one evaluation run. Every
// callback is scoped to the jobID it was created for, so a callback from a
// superseded poller cannot touch a newer evaluation.
func (c *Controller) pollCallbacks(jobID string) polling.Callbacks {
	return polling.Callbacks{
		OnUpdate: func(job *models.Job, progress int) {
			c.mu.Lock()
			if c.state != StateEvaluating || c.jobID != jobID {
				c.mu.Unlock()
				return
			}
			c.progress = progress
			c.phase = polling.Phase(job)
			snap := c.snapshotLocked()
			c.mu.Unlock()
			c.notify(snap)
		},
		OnComplete: func(job *models.Job) {
			c.mu.Lock()
			if c.state != StateEvaluating || c.jobID != jobID {
				c.mu.Unlock()
				return
			}
			c.state = StateResults
			c.result = job.Result
			c.progress = polling.DisplayProgress(job)
			c.phase = polling.Phase(job)
			snap := c.snapshotLocked()
			c.mu.Unlock()
			c.notify(snap)
		},
		OnFail: func(job *models.Job, err error) {
			c.mu.Lock()
			if c.state != StateEvaluating || c.jobID != jobID {
				c.mu.Unlock()
				return
			}
			if err != nil {
				// Quota exhaustion reported mid-poll goes to the rate-limit
				// screen, same as at submission.
				if ce := apperrors.AsClientError(err); ce.IsRateLimit() {
					c.state = StateRateLimit
					c.rateLimit = rateLimitViewFrom(ce)
					c.message = ce.Message
					snap := c.snapshotLocked()
					c.mu.Unlock()
					c.notify(snap)
					return
				}
			}
			c.state = StateError
			if job != nil && job.Error != "" {
				c.message = job.Error
			} else if err != nil {
				c.message = apperrors.AsClientError(err).Message
			} else {
				c.message = "The evaluation failed."
			}
			snap := c.snapshotLocked()
			c.mu.Unlock()
			c.notify(snap)
		},
	}
}

// handleSubmitFailure routes an upload/trigger failure: quota exhaustion goes
// to the rate-limit screen, everything else stays inline on job-title.
func (c *Controller) handleSubmitFailure(err error) error {
	ce := apperrors.AsClientError(err)

	c.mu.Lock()
	if ce.IsRateLimit() {
		c.state = StateRateLimit
		c.rateLimit = rateLimitViewFrom(ce)
		c.message = ce.Message
	} else {
		c.message = ce.Message
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)
	return ce
}

// rateLimitViewFrom projects the quota carried by a rate-limit error, falling
// back to the documented default when the backend's details were unparseable.
func rateLimitViewFrom(ce *apperrors.ClientError) *RateLimitView {
	info := ce.RateLimit.OrDefault()
	return &RateLimitView{
		Limit:         info.Limit,
		Period:        info.Period,
		NextAvailable: info.NextAvailable(time.Now()),
	}
}

// stopPollerLocked detaches and cancels the active poller. Cancel does not
// wait for the polling goroutine (its callbacks take c.mu, which is held
// here), but it already guarantees no further poll and no further callback;
// the jobID scoping in pollCallbacks covers the in-flight one.
func (c *Controller) stopPollerLocked() {
	if c.poller == nil {
		return
	}
	c.poller.Cancel()
	c.poller = nil
}

func (c *Controller) notify(s Snapshot) {
	if c.OnTransition != nil {
		c.OnTransition(s)
	}
}
