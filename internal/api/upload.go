package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	apperrors "cv-evaluator-client/internal/common/errors"
	"cv-evaluator-client/internal/common/transport"
	"cv-evaluator-client/internal/models"
)

// Multipart field names the backend expects for the document pair.
const (
	uploadFieldCV            = "cv"
	uploadFieldProjectReport = "project-report"
)

// UploadDocuments submits the CV and project report as one multipart request.
// Both files must carry a .pdf extension; violations fail locally before any
// network traffic. The longer upload timeout applies.
func (c *Client) UploadDocuments(ctx context.Context, cv, projectReport models.Document) (*UploadResult, error) {
	if err := validatePDF("CV", cv); err != nil {
		return nil, err
	}
	if err := validatePDF("Project report", projectReport); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for _, part := range []struct {
		field string
		doc   models.Document
	}{
		{uploadFieldCV, cv},
		{uploadFieldProjectReport, projectReport},
	} {
		fw, err := writer.CreateFormFile(part.field, part.doc.Name)
		if err != nil {
			return nil, apperrors.NewUnexpectedError(err)
		}
		if _, err := fw.Write(part.doc.Content); err != nil {
			return nil, apperrors.NewUnexpectedError(err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, apperrors.NewUnexpectedError(err)
	}

	header := http.Header{}
	header.Set("Content-Type", writer.FormDataContentType())
	header.Set("Accept", "application/json")
	if token := c.currentToken(); token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.tr.Send(ctx, transport.Request{
		Method:    http.MethodPost,
		URL:       c.baseURL + "/upload",
		Header:    header,
		Body:      buf.Bytes(),
		Timeout:   c.uploadTimeout,
		Operation: "uploadDocuments",
	})
	if err != nil {
		return nil, apperrors.AsClientError(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, classifyHTTPError(resp.StatusCode, resp.Body)
	}

	var out UploadResult
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, apperrors.NewUnexpectedError(fmt.Errorf("decoding upload response: %w", err))
	}
	if out.CVDocumentID == "" || out.ProjectReportID == "" {
		return nil, apperrors.NewUnexpectedError(fmt.Errorf("upload response missing document ids"))
	}
	return &out, nil
}

// validatePDF enforces the extension pre-flight check, case-insensitively.
func validatePDF(label string, doc models.Document) *apperrors.ClientError {
	if doc.Name == "" || doc.Size() == 0 {
		return apperrors.NewValidationError(fmt.Sprintf("%s file is missing or empty.", label))
	}
	if !strings.EqualFold(filepath.Ext(doc.Name), ".pdf") {
		return apperrors.NewValidationError(fmt.Sprintf("%s must be a PDF file (got %q).", label, doc.Name))
	}
	return nil
}
