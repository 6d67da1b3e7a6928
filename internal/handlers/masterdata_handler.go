package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/diario/internal/common"
	"github.com/ternarybob/diario/internal/models"
	"github.com/ternarybob/diario/internal/services/masterdata"
)

// MasterDataHandler serves the acronym registry.
type MasterDataHandler struct {
	master   *masterdata.Service
	validate *validator.Validate
	logger   arbor.ILogger
}

func NewMasterDataHandler(masterSvc *masterdata.Service) *MasterDataHandler {
	return &MasterDataHandler{
		master:   masterSvc,
		validate: validator.New(),
		logger:   common.GetLogger(),
	}
}

// CollectionHandler dispatches /master-data/: GET lists the registry,
// POST upserts one record.
func (h *MasterDataHandler) CollectionHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w)
	case http.MethodPost:
		h.upsert(w, r)
	default:
		WriteDetail(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *MasterDataHandler) list(w http.ResponseWriter) {
	records, err := h.master.List()
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list master data")
		WriteDetail(w, http.StatusInternalServerError, "Failed to list master data")
		return
	}
	WriteJSON(w, http.StatusOK, models.MasterDataResponse{Records: records})
}

func (h *MasterDataHandler) upsert(w http.ResponseWriter, r *http.Request) {
	var record models.MasterRecord
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		WriteDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(&record); err != nil {
		WriteDetail(w, http.StatusBadRequest, "Field 'sigla' is required")
		return
	}

	if err := h.master.Upsert(record); err != nil {
		h.logger.Error().Err(err).Str("sigla", record.Sigla).Msg("Failed to upsert master record")
		WriteDetail(w, http.StatusInternalServerError, "Failed to store master record")
		return
	}
	WriteJSON(w, http.StatusCreated, record)
}
