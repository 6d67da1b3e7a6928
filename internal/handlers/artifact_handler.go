package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/diario/internal/common"
	"github.com/ternarybob/diario/internal/services/jobs"
)

// ArtifactHandler serves the processed artifacts of a job: the preview
// document and the CSV download.
type ArtifactHandler struct {
	jobs   *jobs.Service
	paths  common.Paths
	logger arbor.ILogger
}

func NewArtifactHandler(jobsSvc *jobs.Service, paths common.Paths) *ArtifactHandler {
	return &ArtifactHandler{
		jobs:   jobsSvc,
		paths:  paths,
		logger: common.GetLogger(),
	}
}

// PreviewHandler serves GET /preview/{id} from
// processed/<job_id>/preview.json.
func (h *ArtifactHandler) PreviewHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	jobID, ok := h.resolveJob(w, r, "/preview/")
	if !ok {
		return
	}

	path := filepath.Join(h.paths.ProcessedJobDir(jobID), "preview.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			WriteDetail(w, http.StatusNotFound, fmt.Sprintf("Preview for job %s is not ready", jobID))
			return
		}
		h.logger.Error().Err(err).Str("job_id", jobID).Msg("Failed to read preview")
		WriteDetail(w, http.StatusInternalServerError, "Failed to read preview")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// DownloadHandler serves GET /download/{id} as a CSV attachment.
func (h *ArtifactHandler) DownloadHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	jobID, ok := h.resolveJob(w, r, "/download/")
	if !ok {
		return
	}

	path := filepath.Join(h.paths.ProcessedJobDir(jobID), "output.csv")
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			WriteDetail(w, http.StatusNotFound, fmt.Sprintf("CSV for job %s is not ready", jobID))
			return
		}
		h.logger.Error().Err(err).Str("job_id", jobID).Msg("Failed to stat csv")
		WriteDetail(w, http.StatusInternalServerError, "Failed to read csv")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.csv"`, jobID))
	http.ServeFile(w, r, path)
}

// resolveJob extracts the job id from the URL and confirms the job
// exists, writing the error response itself on failure.
func (h *ArtifactHandler) resolveJob(w http.ResponseWriter, r *http.Request, prefix string) (string, bool) {
	jobID := PathSuffix(r.URL.Path, prefix)
	if jobID == "" {
		WriteDetail(w, http.StatusBadRequest, "Missing job id")
		return "", false
	}

	if _, err := h.jobs.Get(jobID); err != nil {
		if errors.Is(err, jobs.ErrJobNotFound) {
			WriteDetail(w, http.StatusNotFound, fmt.Sprintf("Job %s not found", jobID))
			return "", false
		}
		WriteDetail(w, http.StatusInternalServerError, "Failed to load job")
		return "", false
	}
	return jobID, true
}
