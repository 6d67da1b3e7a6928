package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/diario/internal/common"
	"github.com/ternarybob/diario/internal/models"
	"github.com/ternarybob/diario/internal/services/jobs"
)

// ApprovalHandler serves POST /approval/{id}.
type ApprovalHandler struct {
	jobs     *jobs.Service
	validate *validator.Validate
	logger   arbor.ILogger
}

func NewApprovalHandler(jobsSvc *jobs.Service) *ApprovalHandler {
	return &ApprovalHandler{
		jobs:     jobsSvc,
		validate: validator.New(),
		logger:   common.GetLogger(),
	}
}

// ApproveHandler transitions a completed job to APPROVED and triggers
// artifact promotion.
func (h *ApprovalHandler) ApproveHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	jobID := PathSuffix(r.URL.Path, "/approval/")
	if jobID == "" {
		WriteDetail(w, http.StatusBadRequest, "Missing job id")
		return
	}

	var request models.ApprovalRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		WriteDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(&request); err != nil {
		WriteDetail(w, http.StatusBadRequest, "Field 'approver' is required")
		return
	}

	job, err := h.jobs.Approve(jobID, request.Approver, request.Notes)
	if err != nil {
		if errors.Is(err, jobs.ErrJobNotFound) {
			WriteDetail(w, http.StatusNotFound, fmt.Sprintf("Job %s not found", jobID))
			return
		}
		h.logger.Error().Err(err).Str("job_id", jobID).Msg("Approval failed")
		WriteDetail(w, http.StatusInternalServerError, "Approval failed")
		return
	}

	WriteJSON(w, http.StatusOK, models.ApprovalResponse{
		JobID:      job.JobID,
		Approved:   true,
		ApprovedAt: job.ApprovedAt,
		Notes:      request.Notes,
	})
}
