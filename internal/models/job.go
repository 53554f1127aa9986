package models

import (
	"sort"
	"time"
)

// JobStatus is the backend-reported lifecycle state of an evaluation job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// rank orders statuses along the forward-only progression
// queued -> processing -> completed|failed.
func (s JobStatus) rank() int {
	switch s {
	case StatusQueued:
		return 0
	case StatusProcessing:
		return 1
	case StatusCompleted, StatusFailed:
		return 2
	default:
		return -1
	}
}

// IsTerminal reports whether the status ends the polling lifecycle.
func (s JobStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// IsValid reports whether the status is one the backend contract defines.
func (s JobStatus) IsValid() bool {
	return s.rank() >= 0
}

// AtLeast reports whether s is as far along the progression as other.
// Used to reject regressions observed from a lagging backend replica.
func (s JobStatus) AtLeast(other JobStatus) bool {
	return s.rank() >= other.rank()
}

// Job represents one asynchronous evaluation request tracked by the backend.
type Job struct {
	ID        string        `json:"id"`
	Status    JobStatus     `json:"status"`
	Progress  int           `json:"progress"`
	Result    *ScoredReport `json:"result,omitempty"`
	Error     string        `json:"error,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// SortJobsByCreatedAtDesc orders jobs newest first for display. The list
// endpoint is unordered by contract, so callers sort before rendering.
func SortJobsByCreatedAtDesc(jobs []Job) {
	sort.SliceStable(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
}
