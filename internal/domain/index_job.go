package domain

import (
	"fmt"
	"time"
)

// IndexJobStatus represents the status of an index job
type IndexJobStatus string

const (
	IndexJobStatusPending    IndexJobStatus = "pending"
	IndexJobStatusProcessing IndexJobStatus = "processing"
	IndexJobStatusCompleted  IndexJobStatus = "completed"
	IndexJobStatusFailed     IndexJobStatus = "failed"
)

// IndexJob represents an async request to (re)chunk and embed a document
type IndexJob struct {
	ID          string
	DocumentID  string
	Status      IndexJobStatus
	Retries     int32
	Error       string
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// NewIndexJob creates a new IndexJob instance
func NewIndexJob(
	id, documentID string,
	status IndexJobStatus,
	retries int32,
	errMsg string,
	createdAt time.Time,
	processedAt *time.Time,
) *IndexJob {
	return &IndexJob{
		ID:          id,
		DocumentID:  documentID,
		Status:      status,
		Retries:     retries,
		Error:       errMsg,
		CreatedAt:   createdAt,
		ProcessedAt: processedAt,
	}
}

// ValidateIndexJob validates an IndexJob instance
func ValidateIndexJob(j *IndexJob) error {
	if j == nil {
		return fmt.Errorf("index job cannot be nil")
	}

	if j.ID == "" {
		return fmt.Errorf("index job ID is required")
	}

	if j.DocumentID == "" {
		return fmt.Errorf("index job DocumentID is required")
	}

	if !isValidIndexJobStatus(j.Status) {
		return fmt.Errorf("%w: %s", ErrInvalidIndexJobStatus, j.Status)
	}

	if j.Retries < 0 {
		return fmt.Errorf("index job Retries cannot be negative")
	}

	return nil
}

func isValidIndexJobStatus(s IndexJobStatus) bool {
	switch s {
	case IndexJobStatusPending, IndexJobStatusProcessing,
		IndexJobStatusCompleted, IndexJobStatusFailed:
		return true
	}
	return false
}
