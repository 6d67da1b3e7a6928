package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/diario/internal/common"
	"github.com/ternarybob/diario/internal/models"
	"github.com/ternarybob/diario/internal/services/registry"
)

// RegistryHandler serves the model version history.
type RegistryHandler struct {
	registry *registry.Service
	logger   arbor.ILogger
}

func NewRegistryHandler(registrySvc *registry.Service) *RegistryHandler {
	return &RegistryHandler{
		registry: registrySvc,
		logger:   common.GetLogger(),
	}
}

// HistoryHandler serves GET /models/history.
func (h *RegistryHandler) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	history, err := h.registry.History()
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to load model history")
		WriteDetail(w, http.StatusInternalServerError, "Failed to load model history")
		return
	}
	if history == nil {
		history = []models.ModelRecord{}
	}
	WriteJSON(w, http.StatusOK, models.ModelHistoryResponse{Items: history})
}
