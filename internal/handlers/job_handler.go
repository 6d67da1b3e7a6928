package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/diario/internal/common"
	"github.com/ternarybob/diario/internal/models"
	"github.com/ternarybob/diario/internal/services/jobs"
)

// JobHandler serves job submission, listing and detail endpoints.
type JobHandler struct {
	jobs   *jobs.Service
	paths  common.Paths
	logger arbor.ILogger
}

func NewJobHandler(jobsSvc *jobs.Service, paths common.Paths) *JobHandler {
	return &JobHandler{
		jobs:   jobsSvc,
		paths:  paths,
		logger: common.GetLogger(),
	}
}

// CollectionHandler dispatches /jobs/: GET lists jobs, POST uploads a
// new document.
func (h *JobHandler) CollectionHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w)
	case http.MethodPost:
		h.create(w, r)
	default:
		WriteDetail(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *JobHandler) list(w http.ResponseWriter) {
	WriteJSON(w, http.StatusOK, models.JobList{Jobs: h.jobs.List()})
}

// create accepts a multipart upload, stores it under
// incoming/<job_id>/<filename> and enqueues the job for processing.
func (h *JobHandler) create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		WriteDetail(w, http.StatusBadRequest, "Invalid multipart request")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteDetail(w, http.StatusBadRequest, "Missing file field")
		return
	}
	defer file.Close()

	filename := filepath.Base(header.Filename)
	if filename == "" || filename == "." || filename == string(filepath.Separator) {
		WriteDetail(w, http.StatusBadRequest, "Invalid filename")
		return
	}
	uploader := r.FormValue("uploader")
	if uploader == "" {
		uploader = "anonymous"
	}

	job, err := h.jobs.Create(filename, uploader)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to create job")
		WriteDetail(w, http.StatusInternalServerError, "Failed to create job")
		return
	}

	if err := h.saveUpload(job.JobID, filename, file); err != nil {
		h.logger.Error().Err(err).Str("job_id", job.JobID).Msg("Failed to store upload")
		h.jobs.RecordError(job.JobID, err.Error())
		WriteDetail(w, http.StatusInternalServerError, "Failed to store upload")
		return
	}

	if err := h.jobs.Enqueue(job); err != nil {
		h.logger.Error().Err(err).Str("job_id", job.JobID).Msg("Failed to enqueue job")
		h.jobs.RecordError(job.JobID, err.Error())
		WriteDetail(w, http.StatusInternalServerError, "Failed to enqueue job")
		return
	}

	updated, err := h.jobs.Get(job.JobID)
	if err != nil {
		WriteDetail(w, http.StatusInternalServerError, "Failed to load job")
		return
	}
	WriteJSON(w, http.StatusCreated, updated)
}

// DetailHandler serves GET /jobs/{id}.
func (h *JobHandler) DetailHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	jobID := PathSuffix(r.URL.Path, "/jobs/")
	if jobID == "" {
		WriteDetail(w, http.StatusBadRequest, "Missing job id")
		return
	}

	job, err := h.jobs.Get(jobID)
	if err != nil {
		if errors.Is(err, jobs.ErrJobNotFound) {
			WriteDetail(w, http.StatusNotFound, fmt.Sprintf("Job %s not found", jobID))
			return
		}
		WriteDetail(w, http.StatusInternalServerError, "Failed to load job")
		return
	}
	WriteJSON(w, http.StatusOK, job)
}

func (h *JobHandler) saveUpload(jobID, filename string, src io.Reader) error {
	dir := h.paths.IncomingJobDir(jobID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}

	dest, err := os.Create(filepath.Join(dir, filename))
	if err != nil {
		return fmt.Errorf("failed to create upload file: %w", err)
	}
	defer dest.Close()

	if _, err := io.Copy(dest, src); err != nil {
		return fmt.Errorf("failed to write upload file: %w", err)
	}
	return nil
}
