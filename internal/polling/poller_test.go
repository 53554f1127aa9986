package polling

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "cv-evaluator-client/internal/common/errors"
	"cv-evaluator-client/internal/common/logger"
	"cv-evaluator-client/internal/common/observability"
	"cv-evaluator-client/internal/models"
)

// scriptedSource plays back a fixed sequence of job states, repeating the
// last one once the script is exhausted.
type scriptedSource struct {
	mu     sync.Mutex
	script []func() (*models.Job, error)
	calls  int
}

func (s *scriptedSource) GetJobStatus(ctx context.Context, jobID string) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.calls
	if idx >= len(s.script) {
		idx = len(s.script) - 1
	}
	s.calls++
	return s.script[idx]()
}

func (s *scriptedSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func jobState(status models.JobStatus, progress int) func() (*models.Job, error) {
	return func() (*models.Job, error) {
		return &models.Job{ID: "job-1", Status: status, Progress: progress}, nil
	}
}

// One shared meter; the exporter registers global collectors.
var testObs = observability.New("poller-test")

func newTestPoller(source StatusSource) *Poller {
	return New(source, 5*time.Millisecond, testObs, logger.NewNoOpLogger())
}

func TestDisplayProgressMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   models.JobStatus
		raw      int
		expected int
	}{
		{"queued ignores raw progress", models.StatusQueued, 55, 10},
		{"processing below floor clamps up", models.StatusProcessing, 5, 20},
		{"processing zero clamps up", models.StatusProcessing, 0, 20},
		{"processing in range passes through", models.StatusProcessing, 47, 47},
		{"processing at floor", models.StatusProcessing, 20, 20},
		{"processing at ceiling", models.StatusProcessing, 90, 90},
		{"processing above ceiling clamps down", models.StatusProcessing, 130, 90},
		{"completed is full", models.StatusCompleted, 60, 100},
		{"failed shows nothing", models.StatusFailed, 60, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := &models.Job{Status: tt.status, Progress: tt.raw}
			assert.Equal(t, tt.expected, DisplayProgress(job))
		})
	}
}

func TestPhaseBuckets(t *testing.T) {
	tests := []struct {
		name     string
		status   models.JobStatus
		progress int
		expected string
	}{
		{"queued", models.StatusQueued, 0, "Waiting in queue"},
		{"early processing", models.StatusProcessing, 20, "Analyzing documents"},
		{"cv phase", models.StatusProcessing, 40, "Evaluating CV"},
		{"project phase", models.StatusProcessing, 60, "Evaluating project report"},
		{"final phase", models.StatusProcessing, 80, "Preparing final analysis"},
		{"completed", models.StatusCompleted, 100, "Complete"},
		{"failed", models.StatusFailed, 0, "Failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := &models.Job{Status: tt.status, Progress: tt.progress}
			assert.Equal(t, tt.expected, Phase(job))
		})
	}
}

func TestPollerDrivesJobToCompletion(t *testing.T) {
	source := &scriptedSource{script: []func() (*models.Job, error){
		jobState(models.StatusQueued, 0),
		jobState(models.StatusProcessing, 50),
		jobState(models.StatusCompleted, 100),
	}}

	var progresses []int
	var mu sync.Mutex
	completed := make(chan *models.Job, 1)

	p := newTestPoller(source)
	p.Start(context.Background(), "job-1", Callbacks{
		OnUpdate: func(job *models.Job, progress int) {
			mu.Lock()
			progresses = append(progresses, progress)
			mu.Unlock()
		},
		OnComplete: func(job *models.Job) { completed <- job },
		OnFail: func(job *models.Job, err error) {
			t.Errorf("unexpected failure callback: %v", err)
		},
	})

	select {
	case job := <-completed:
		assert.Equal(t, models.StatusCompleted, job.Status)
	case <-time.After(2 * time.Second):
		t.Fatal("poller never completed")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{10, 50}, progresses)
}

func TestPollerReportsFailedJobOnce(t *testing.T) {
	source := &scriptedSource{script: []func() (*models.Job, error){
		jobState(models.StatusProcessing, 40),
		func() (*models.Job, error) {
			return &models.Job{ID: "job-1", Status: models.StatusFailed, Error: "parse error"}, nil
		},
	}}

	var fails int32
	failed := make(chan *models.Job, 2)

	p := newTestPoller(source)
	p.Start(context.Background(), "job-1", Callbacks{
		OnFail: func(job *models.Job, err error) {
			atomic.AddInt32(&fails, 1)
			failed <- job
		},
	})

	job := <-failed
	require.NotNil(t, job)
	assert.Equal(t, "parse error", job.Error)

	// Give the loop time to misbehave if it were going to.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fails))
}

func TestPollerStopsOnFetchError(t *testing.T) {
	source := &scriptedSource{script: []func() (*models.Job, error){
		func() (*models.Job, error) {
			return nil, apperrors.NewNetworkUnavailableError(context.DeadlineExceeded)
		},
	}}

	failErr := make(chan error, 1)

	p := newTestPoller(source)
	p.Start(context.Background(), "job-1", Callbacks{
		OnFail: func(job *models.Job, err error) {
			assert.Nil(t, job)
			failErr <- err
		},
	})

	select {
	case err := <-failErr:
		assert.Equal(t, apperrors.ErrCodeNetworkUnavailable, apperrors.AsClientError(err).Code)
	case <-time.After(2 * time.Second):
		t.Fatal("poller never reported the fetch error")
	}

	calls := source.callCount()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, calls, source.callCount(), "no polls after a fetch error")
}

func TestPollerIgnoresStatusRegression(t *testing.T) {
	source := &scriptedSource{script: []func() (*models.Job, error){
		jobState(models.StatusProcessing, 50),
		jobState(models.StatusQueued, 0), // lagging replica
		jobState(models.StatusCompleted, 100),
	}}

	var progresses []int
	var mu sync.Mutex
	completed := make(chan struct{})

	p := newTestPoller(source)
	p.Start(context.Background(), "job-1", Callbacks{
		OnUpdate: func(job *models.Job, progress int) {
			mu.Lock()
			progresses = append(progresses, progress)
			mu.Unlock()
		},
		OnComplete: func(job *models.Job) { close(completed) },
	})

	select {
	case <-completed:
	case <-time.After(2 * time.Second):
		t.Fatal("poller never completed")
	}

	mu.Lock()
	defer mu.Unlock()
	// The queued observation after processing is dropped entirely.
	assert.Equal(t, []int{50}, progresses)
}

func TestPollerShownProgressNeverDecreases(t *testing.T) {
	source := &scriptedSource{script: []func() (*models.Job, error){
		jobState(models.StatusProcessing, 70),
		jobState(models.StatusProcessing, 30), // backend progress dipped
		jobState(models.StatusCompleted, 100),
	}}

	var progresses []int
	var mu sync.Mutex
	completed := make(chan struct{})

	p := newTestPoller(source)
	p.Start(context.Background(), "job-1", Callbacks{
		OnUpdate: func(job *models.Job, progress int) {
			mu.Lock()
			progresses = append(progresses, progress)
			mu.Unlock()
		},
		OnComplete: func(job *models.Job) { close(completed) },
	})

	select {
	case <-completed:
	case <-time.After(2 * time.Second):
		t.Fatal("poller never completed")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{70, 70}, progresses)
}

func TestPollerNoPollAfterStop(t *testing.T) {
	source := &scriptedSource{script: []func() (*models.Job, error){
		jobState(models.StatusProcessing, 40),
	}}

	firstUpdate := make(chan struct{})
	var once sync.Once
	var lateCallbacks int32

	p := newTestPoller(source)
	p.Start(context.Background(), "job-1", Callbacks{
		OnUpdate: func(job *models.Job, progress int) {
			once.Do(func() { close(firstUpdate) })
		},
		OnComplete: func(job *models.Job) { atomic.AddInt32(&lateCallbacks, 1) },
		OnFail:     func(job *models.Job, err error) { atomic.AddInt32(&lateCallbacks, 1) },
	})

	<-firstUpdate
	p.Stop()

	calls := source.callCount()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, calls, source.callCount(), "no status request after Stop")
	assert.Equal(t, int32(0), atomic.LoadInt32(&lateCallbacks), "no terminal callback after Stop")
}

func TestPollerCancelDropsScheduledPolls(t *testing.T) {
	source := &scriptedSource{script: []func() (*models.Job, error){
		jobState(models.StatusProcessing, 40),
	}}

	firstUpdate := make(chan struct{})
	var once sync.Once
	var lateCallbacks int32

	p := newTestPoller(source)
	p.Start(context.Background(), "job-1", Callbacks{
		OnUpdate: func(job *models.Job, progress int) {
			once.Do(func() { close(firstUpdate) })
		},
		OnComplete: func(job *models.Job) { atomic.AddInt32(&lateCallbacks, 1) },
		OnFail:     func(job *models.Job, err error) { atomic.AddInt32(&lateCallbacks, 1) },
	})

	<-firstUpdate
	p.Cancel()

	// Unlike Stop, Cancel does not wait for the goroutine; let any poll that
	// was already dispatched drain before counting.
	time.Sleep(20 * time.Millisecond)
	calls := source.callCount()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, calls, source.callCount(), "no status request scheduled after Cancel")
	assert.Equal(t, int32(0), atomic.LoadInt32(&lateCallbacks), "no terminal callback after Cancel")
}
