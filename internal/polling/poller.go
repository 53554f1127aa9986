// Package polling drives an evaluation job from submission to its terminal
// state by repeatedly querying its status.
package polling

import (
	"context"
	"sync"
	"time"

	"cv-evaluator-client/internal/common/logger"
	"cv-evaluator-client/internal/common/observability"
	"cv-evaluator-client/internal/models"
)

// DefaultInterval is the delay between consecutive status polls.
const DefaultInterval = 2 * time.Second

// StatusSource fetches the current state of a job. Implemented by the API
// client; faked in tests.
type StatusSource interface {
	GetJobStatus(ctx context.Context, jobID string) (*models.Job, error)
}

// Callbacks receive poll outcomes. OnUpdate fires on every accepted
// non-terminal observation; OnComplete and OnFail are terminal and fire at
// most once per Poller, never after Stop.
type Callbacks struct {
	OnUpdate   func(job *models.Job, progress int)
	OnComplete func(job *models.Job)
	OnFail     func(job *models.Job, err error)
}

// Poller owns one job's polling lifecycle: its own timer, its own
// cancellation, its own job reference. A Poller is single-use; create a new
// one per job.
type Poller struct {
	source   StatusSource
	interval time.Duration
	obs      *observability.Observability
	logger   logger.Logger

	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	stopped  bool
	finished bool

	highestStatus models.JobStatus
	highestShown  int
}

func New(source StatusSource, interval time.Duration, obs *observability.Observability, log logger.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		source:   source,
		interval: interval,
		obs:      obs,
		logger:   log,
	}
}

// Start begins polling jobID until a terminal state, a fetch error, or Stop.
// The first poll happens immediately. Start is not restartable.
func (p *Poller) Start(ctx context.Context, jobID string, cb Callbacks) {
	runCtx, cancel := context.WithCancel(ctx)

	p.mu.Lock()
	p.cancel = cancel
	p.done = make(chan struct{})
	p.highestStatus = models.StatusQueued
	p.mu.Unlock()

	go p.run(runCtx, jobID, cb)
}

// Stop cancels polling and waits for the polling goroutine to exit. After
// Stop returns, no callback will fire and no further status request will be
// issued.
func (p *Poller) Stop() {
	p.Cancel()

	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Cancel stops polling without waiting for the goroutine to exit: every
// scheduled future poll is dropped and an in-flight poll's outcome is
// discarded. Unlike Stop, Cancel is safe to call while holding a lock that
// the callbacks also take.
func (p *Poller) Cancel() {
	p.mu.Lock()
	p.stopped = true
	cancel := p.cancel
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

func (p *Poller) run(ctx context.Context, jobID string, cb Callbacks) {
	defer close(p.done)

	timer := time.NewTimer(0) // first poll is immediate
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		if ctx.Err() != nil || p.isStopped() {
			return
		}

		start := time.Now()
		job, err := p.source.GetJobStatus(ctx, jobID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.obs.RecordPoll(ctx, "error")
			p.deliverFail(jobID, nil, err, cb)
			return
		}

		p.obs.RecordPoll(ctx, string(job.Status))
		p.obs.RecordPollDuration(ctx, time.Since(start), string(job.Status))

		if done := p.handle(job, cb); done {
			return
		}

		timer.Reset(p.interval)
	}
}

func (p *Poller) isStopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopped
}

// handle applies one observation. Returns true when polling should end.
func (p *Poller) handle(job *models.Job, cb Callbacks) bool {
	p.mu.Lock()
	if p.stopped || p.finished {
		p.mu.Unlock()
		return true
	}

	// A lagging backend replica can answer with an older status. The
	// progression is forward-only, so regressions are dropped and the next
	// tick retries.
	if !job.Status.AtLeast(p.highestStatus) {
		current := p.highestStatus
		p.mu.Unlock()
		p.logger.Warn("ignoring status regression", map[string]interface{}{
			"jobId":    job.ID,
			"observed": string(job.Status),
			"current":  string(current),
		})
		return false
	}
	p.highestStatus = job.Status

	if job.Status.IsTerminal() {
		p.finished = true
		p.mu.Unlock()

		if job.Status == models.StatusCompleted {
			if cb.OnComplete != nil {
				cb.OnComplete(job)
			}
		} else if cb.OnFail != nil {
			cb.OnFail(job, nil)
		}
		return true
	}

	// Shown progress never decreases, even if the backend's raw value does.
	progress := DisplayProgress(job)
	if progress < p.highestShown {
		progress = p.highestShown
	}
	p.highestShown = progress
	p.mu.Unlock()

	if cb.OnUpdate != nil {
		cb.OnUpdate(job, progress)
	}
	return false
}

// deliverFail routes a fetch error through the terminal guard so it obeys the
// same at-most-once, never-after-Stop rules as backend failures.
func (p *Poller) deliverFail(jobID string, job *models.Job, err error, cb Callbacks) {
	p.mu.Lock()
	if p.stopped || p.finished {
		p.mu.Unlock()
		return
	}
	p.finished = true
	p.mu.Unlock()

	p.logger.Error("status polling aborted", map[string]interface{}{
		"jobId": jobID,
		"error": err.Error(),
	})
	if cb.OnFail != nil {
		cb.OnFail(job, err)
	}
}
