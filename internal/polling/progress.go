package polling

import "cv-evaluator-client/internal/models"

// Display progress bounds while a job is processing. Raw backend progress is
// clamped into this window so the bar neither restarts at zero nor completes
// before the terminal state arrives.
const (
	queuedProgress    = 10
	processingFloor   = 20
	processingCeiling = 90
	completedProgress = 100
)

// DisplayProgress maps a job's backend state onto the 0-100 value shown to
// the user. Processing values are clamped into [20, 90] regardless of what
// the backend reports.
func DisplayProgress(job *models.Job) int {
	switch job.Status {
	case models.StatusQueued:
		return queuedProgress
	case models.StatusProcessing:
		return clamp(job.Progress, processingFloor, processingCeiling)
	case models.StatusCompleted:
		return completedProgress
	default:
		return 0
	}
}

// Phase names the evaluation stage implied by a job's state, bucketed on the
// backend's reported progress.
func Phase(job *models.Job) string {
	switch job.Status {
	case models.StatusQueued:
		return "Waiting in queue"
	case models.StatusProcessing:
		switch {
		case job.Progress < 40:
			return "Analyzing documents"
		case job.Progress < 60:
			return "Evaluating CV"
		case job.Progress < 80:
			return "Evaluating project report"
		default:
			return "Preparing final analysis"
		}
	case models.StatusCompleted:
		return "Complete"
	case models.StatusFailed:
		return "Failed"
	default:
		return ""
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
