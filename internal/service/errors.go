package service

import (
	"errors"
	"fmt"

	"github.com/RubachokBoss/study-helper/internal/models"
)

// Sentinel errors mapped to HTTP status codes by the delivery layer.
var (
	ErrRetryNotAllowed  = errors.New("retry is only allowed after a failed processing run")
	ErrUploadInProgress = errors.New("an upload is already in progress")
	ErrQuestionNotFound = errors.New("question not found")
	ErrNoActiveSession  = errors.New("no active chat session")
	ErrPollingCanceled  = errors.New("polling canceled")
	ErrUploadCanceled   = errors.New("upload canceled")
	ErrExportNotFound   = errors.New("export not found")
)

// ProcessingError means the backend pipeline failed on a document. It is
// always retryable through UploadController.Retry.
type ProcessingError struct {
	DocumentID string
	Message    string
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("processing failed for document %s: %s", e.DocumentID, e.Message)
}

// TimeoutError means the polling budget ran out while the document was still
// pending or processing. The job may still complete.
type TimeoutError struct {
	DocumentID string
	Attempts   int
	LastStatus models.ProcessingStatus
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("processing timeout - check status manually (document %s, %d attempts, last status %s)",
		e.DocumentID, e.Attempts, e.LastStatus)
}
