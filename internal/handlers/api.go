package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/diario/internal/common"
	"github.com/ternarybob/diario/internal/services/metrics"
)

type APIHandler struct {
	metrics *metrics.Service
	logger  arbor.ILogger
}

func NewAPIHandler(metricsSvc *metrics.Service) *APIHandler {
	return &APIHandler{
		metrics: metricsSvc,
		logger:  common.GetLogger(),
	}
}

// HealthHandler returns health check status
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	h.metrics.Increment("api.healthcheck")
	WriteJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// VersionHandler returns version information
func (h *APIHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"version":    common.GetVersion(),
		"build":      common.Build,
		"git_commit": common.GitCommit,
	})
}

// NotFoundHandler handles 404 errors with JSON response
func (h *APIHandler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	WriteDetail(w, http.StatusNotFound, "Not Found")
}
