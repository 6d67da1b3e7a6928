package jobs

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/diario/internal/common"
	"github.com/ternarybob/diario/internal/models"
	"github.com/ternarybob/diario/internal/services/metrics"
)

// ErrJobNotFound is returned when a job id is unknown.
var ErrJobNotFound = errors.New("job not found")

// Promoter materializes approval artifacts for an approved job. A
// missing processed artifact is reported as fs.ErrNotExist and treated
// as non-fatal by Approve.
type Promoter interface {
	Promote(job *models.Job) error
}

// Service owns the durable job records in state/jobs.json. Every
// mutation serializes behind one mutex and rewrites the state file via
// a temp file and rename.
type Service struct {
	mu       sync.Mutex
	paths    common.Paths
	queue    *Queue
	metrics  *metrics.Service
	logger   arbor.ILogger
	promoter Promoter
	state    map[string]*models.Job
}

// NewService loads existing state from disk, if any.
func NewService(paths common.Paths, queue *Queue, metricsSvc *metrics.Service, logger arbor.ILogger) (*Service, error) {
	s := &Service{
		paths:   paths,
		queue:   queue,
		metrics: metricsSvc,
		logger:  logger,
		state:   make(map[string]*models.Job),
	}

	data, err := os.ReadFile(paths.JobsFile)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read job state: %w", err)
	}
	if err == nil {
		if err := json.Unmarshal(data, &s.state); err != nil {
			return nil, fmt.Errorf("failed to parse job state: %w", err)
		}
	}
	return s, nil
}

// SetPromoter wires the approval promoter after construction. The
// promoter depends on stores that are built alongside this service, so
// it cannot be a constructor argument.
func (s *Service) SetPromoter(promoter Promoter) {
	s.promoter = promoter
}

// Create registers a new job in status RECEIVED and persists it.
func (s *Service) Create(filename, uploader string) (*models.Job, error) {
	now := time.Now().UTC()
	job := &models.Job{
		JobID:     common.NewJobID(),
		Status:    models.JobStatusReceived,
		Filename:  filename,
		CreatedAt: now,
		UpdatedAt: now,
		Metadata:  map[string]interface{}{"uploader": uploader},
	}

	s.mu.Lock()
	s.state[job.JobID] = job
	err := s.persistLocked()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	s.metrics.Increment("jobs.created")
	s.logger.Info().
		Str("job_id", job.JobID).
		Str("status", string(job.Status)).
		Str("filename", filename).
		Msg("Job received")
	return job.Clone(), nil
}

// List returns all jobs sorted by creation time, newest first.
func (s *Service) List() []*models.Job {
	s.mu.Lock()
	jobs := make([]*models.Job, 0, len(s.state))
	for _, job := range s.state {
		jobs = append(jobs, job.Clone())
	}
	s.mu.Unlock()

	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
	return jobs
}

// Get returns the full record for a job id.
func (s *Service) Get(jobID string) (*models.Job, error) {
	s.mu.Lock()
	job, ok := s.state[jobID]
	var clone *models.Job
	if ok {
		clone = job.Clone()
	}
	s.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	return clone, nil
}

// UpdateStatus transitions a job and applies the given updates
// atomically. Metadata is shallow-merged; an ocr_conf_mean metadata
// value is mirrored to the top-level field; updated_at is stamped.
func (s *Service) UpdateStatus(jobID string, status models.JobStatus, updates models.JobUpdates) (*models.Job, error) {
	s.mu.Lock()
	job, ok := s.state[jobID]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}

	if updates.Metadata != nil {
		if job.Metadata == nil {
			job.Metadata = make(map[string]interface{})
		}
		for k, v := range updates.Metadata {
			job.Metadata[k] = v
		}
		if raw, ok := updates.Metadata["ocr_conf_mean"]; ok {
			if mean, ok := toFloat(raw); ok {
				job.OCRConfMean = &mean
			}
		}
	}
	if updates.PreviewReady != nil {
		job.PreviewReady = *updates.PreviewReady
	}
	if updates.CSVReady != nil {
		job.CSVReady = *updates.CSVReady
	}
	if updates.Error != nil {
		job.Error = *updates.Error
	}
	if updates.ApprovedAt != nil {
		t := *updates.ApprovedAt
		job.ApprovedAt = &t
	}
	job.Status = status
	job.UpdatedAt = time.Now().UTC()

	err := s.persistLocked()
	clone := job.Clone()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("job_id", jobID).
		Str("status", string(status)).
		Msg("Job status updated")
	return clone, nil
}

// Enqueue appends the job to the pending queue and transitions it to
// QUEUED.
func (s *Service) Enqueue(job *models.Job) error {
	entry := models.QueueEntry{
		JobID:      job.JobID,
		Filename:   job.Filename,
		ReceivedAt: job.CreatedAt,
	}
	if err := s.queue.Append(entry); err != nil {
		return err
	}
	if _, err := s.UpdateStatus(job.JobID, models.JobStatusQueued, models.JobUpdates{}); err != nil {
		return err
	}
	s.metrics.Increment("jobs.queued")
	s.logger.Info().Str("job_id", job.JobID).Msg("Job enqueued")
	return nil
}

// SetProcessing transitions a job to PROCESSING.
func (s *Service) SetProcessing(jobID string) error {
	if _, err := s.UpdateStatus(jobID, models.JobStatusProcessing, models.JobUpdates{}); err != nil {
		return err
	}
	s.metrics.Increment("jobs.processing")
	return nil
}

// SetCompleted transitions a job to COMPLETED and flags both artifacts
// ready. Extra updates (ocr_conf_mean metadata) ride along.
func (s *Service) SetCompleted(jobID string, updates models.JobUpdates) error {
	ready := true
	updates.PreviewReady = &ready
	updates.CSVReady = &ready
	if _, err := s.UpdateStatus(jobID, models.JobStatusCompleted, updates); err != nil {
		return err
	}
	s.metrics.Increment("jobs.completed")
	return nil
}

// MarkFailed transitions a job to FAILED with the given error message.
func (s *Service) MarkFailed(jobID, errorMessage string) error {
	_, err := s.UpdateStatus(jobID, models.JobStatusFailed, models.JobUpdates{Error: &errorMessage})
	return err
}

// RecordError logs a pipeline failure and marks the job FAILED.
func (s *Service) RecordError(jobID, errorMessage string) {
	s.logger.Error().
		Str("job_id", jobID).
		Str("error", errorMessage).
		Msg("Job failed")
	if err := s.MarkFailed(jobID, errorMessage); err != nil {
		s.logger.Error().Err(err).Str("job_id", jobID).Msg("Failed to record job error")
	}
}

// Approve transitions the job to APPROVED and invokes the promoter.
// Missing processed artifacts are logged and leave the job APPROVED
// without promoted output; any other promotion failure is returned.
func (s *Service) Approve(jobID, approver, notes string) (*models.Job, error) {
	if _, err := s.Get(jobID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	updated, err := s.UpdateStatus(jobID, models.JobStatusApproved, models.JobUpdates{
		ApprovedAt: &now,
		Metadata: map[string]interface{}{
			"approved_by": approver,
			"notes":       notes,
		},
	})
	if err != nil {
		return nil, err
	}
	s.metrics.Increment("jobs.approved")

	if s.promoter != nil {
		if err := s.promoter.Promote(updated.Clone()); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				s.logger.Warn().
					Str("job_id", jobID).
					Msg("Approved job is missing processed artifacts")
			} else {
				return nil, err
			}
		}
	}
	return updated, nil
}

func (s *Service) persistLocked() error {
	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode job state: %w", err)
	}
	tmp := s.paths.JobsFile + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write job state: %w", err)
	}
	if err := os.Rename(tmp, s.paths.JobsFile); err != nil {
		return fmt.Errorf("failed to replace job state: %w", err)
	}
	return nil
}

func toFloat(v interface{}) (float64, bool) {
	switch value := v.(type) {
	case float64:
		return value, true
	case float32:
		return float64(value), true
	case int:
		return float64(value), true
	case int64:
		return float64(value), true
	default:
		return 0, false
	}
}
