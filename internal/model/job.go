/**
 * Job entity for the OCR service.
 *
 * A Job tracks one uploaded document from ingest through validation,
 * queueing, OCR, enrichment, and delivery. The Store is the single
 * source of truth for Job state; workers never hold authoritative
 * state in memory.
 */

package model

import "time"

// Status is the lifecycle state of a Job.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// Job is the persisted unit of work.
type Job struct {
	ID              string
	Status          Status
	DocumentType    string
	Email           string
	CallbackWebhook string
	FileData        []byte
	FileName        string
	MimeType        string
	OCRResult       *Result
	ErrorMessage    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ProcessedAt     *time.Time
}

// IsStuck reports whether a PROCESSING job has gone stale, per the
// stuck-job definition: PROCESSING with no update in threshold.
func (j *Job) IsStuck(threshold time.Duration, now time.Time) bool {
	return j.Status == StatusProcessing && now.Sub(j.UpdatedAt) > threshold
}
