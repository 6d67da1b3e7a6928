package models

import "time"

// Model registry lifecycle states. At most one record is in production
// at any time.
const (
	ModelStatusCandidate  = "candidate"
	ModelStatusProduction = "production"
	ModelStatusArchived   = "archived"
)

// ModelRecord is one append-only entry of the model registry. Version is
// the zero-padded position in the history ("001", "002", ...).
type ModelRecord struct {
	ModelName string                 `json:"model_name"`
	Version   string                 `json:"version"`
	CreatedAt time.Time              `json:"created_at"`
	Status    string                 `json:"status"`
	Metrics   map[string]interface{} `json:"metrics"`
}

// ModelHistoryResponse is the envelope returned by GET /models/history.
type ModelHistoryResponse struct {
	Items []ModelRecord `json:"items"`
}
