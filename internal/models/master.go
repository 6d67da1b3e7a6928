package models

// MasterRecord is one entry of the acronym catalogue. Stored one per
// file under data/master/ as <sigla lowercase>.json.
type MasterRecord struct {
	Sigla     string                 `json:"sigla" validate:"required"`
	Descricao string                 `json:"descricao"`
	Codigo    string                 `json:"codigo"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// MasterDataResponse is the list envelope returned by GET /master-data/.
type MasterDataResponse struct {
	Records []MasterRecord `json:"records"`
}
