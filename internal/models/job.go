package models

import (
	"time"
)

// JobStatus is the lifecycle state of an ingestion job.
// Transitions are monotone along
// RECEIVED -> QUEUED -> PROCESSING -> {COMPLETED -> APPROVED | FAILED}.
type JobStatus string

const (
	JobStatusReceived   JobStatus = "RECEIVED"
	JobStatusQueued     JobStatus = "QUEUED"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
	JobStatusApproved   JobStatus = "APPROVED"
)

// Job is the durable record of one uploaded document.
type Job struct {
	JobID        string                 `json:"job_id"`
	Status       JobStatus              `json:"status"`
	Filename     string                 `json:"filename"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
	ApprovedAt   *time.Time             `json:"approved_at"`
	Metadata     map[string]interface{} `json:"metadata"`
	PreviewReady bool                   `json:"preview_ready"`
	CSVReady     bool                   `json:"csv_ready"`
	Error        string                 `json:"error,omitempty"`
	OCRConfMean  *float64               `json:"ocr_conf_mean"`
}

// Clone returns a copy of the job with its own metadata map, so callers
// can hand out snapshots without exposing store-owned state.
func (j *Job) Clone() *Job {
	clone := *j
	clone.Metadata = make(map[string]interface{}, len(j.Metadata))
	for k, v := range j.Metadata {
		clone.Metadata[k] = v
	}
	if j.ApprovedAt != nil {
		t := *j.ApprovedAt
		clone.ApprovedAt = &t
	}
	if j.OCRConfMean != nil {
		v := *j.OCRConfMean
		clone.OCRConfMean = &v
	}
	return &clone
}

// JobUpdates carries the optional field overwrites applied together with
// a status transition. The Metadata map is shallow-merged into the job's
// metadata; all other non-nil fields overwrite.
type JobUpdates struct {
	Metadata     map[string]interface{}
	PreviewReady *bool
	CSVReady     *bool
	Error        *string
	ApprovedAt   *time.Time
}

// JobList is the list envelope returned by GET /jobs/.
type JobList struct {
	Jobs []*Job `json:"jobs"`
}

// QueueEntry is one line of the pending-job queue file.
type QueueEntry struct {
	JobID      string    `json:"job_id"`
	Filename   string    `json:"filename"`
	ReceivedAt time.Time `json:"received_at"`
}

// ApprovalRequest is the body of POST /approval/{id}.
type ApprovalRequest struct {
	Approver string `json:"approver" validate:"required"`
	Notes    string `json:"notes"`
}

// ApprovalResponse is returned after a successful approval.
type ApprovalResponse struct {
	JobID      string     `json:"job_id"`
	Approved   bool       `json:"approved"`
	ApprovedAt *time.Time `json:"approved_at"`
	Notes      string     `json:"notes,omitempty"`
}
