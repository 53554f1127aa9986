package api

import (
	"encoding/json"
	"time"

	"cv-evaluator-client/internal/models"
)

// UploadResult identifies the stored document pair after a successful upload.
type UploadResult struct {
	CVDocumentID    string `json:"cvDocumentId"`
	ProjectReportID string `json:"projectReportId"`
	Message         string `json:"message,omitempty"`
}

type evaluateRequest struct {
	JobTitle        string `json:"jobTitle"`
	CVDocumentID    string `json:"cvDocumentId"`
	ProjectReportID string `json:"projectReportId"`
}

// EvaluateResult acknowledges a queued evaluation job.
type EvaluateResult struct {
	JobID   string           `json:"jobId"`
	Status  models.JobStatus `json:"status"`
	Message string           `json:"message,omitempty"`
}

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// authResponse is shared by sign-up and sign-in. SessionToken may be absent
// from sign-up responses when the backend defers token issuance to sign-in.
type authResponse struct {
	Message      string       `json:"message,omitempty"`
	User         *models.User `json:"user,omitempty"`
	SessionToken string       `json:"sessionToken,omitempty"`
	Status       string       `json:"status,omitempty"`
}

type currentUserResponse struct {
	User   *models.User `json:"user,omitempty"`
	Status string       `json:"status,omitempty"`
}

// jobEnvelope defers result decoding so the payload can be checked against
// the report schema before it is trusted.
type jobEnvelope struct {
	ID        string           `json:"id"`
	Status    models.JobStatus `json:"status"`
	Progress  int              `json:"progress"`
	Result    json.RawMessage  `json:"result,omitempty"`
	Error     string           `json:"error,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

type jobsResponse struct {
	Jobs []jobEnvelope `json:"jobs"`
}

// errorBody is the backend's loose error shape. All three fields are optional
// and any may carry the displayable text.
type errorBody struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
	Details string `json:"details,omitempty"`
}
