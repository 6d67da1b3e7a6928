package models

// PreviewRow is one rendered output row with its per-field badges.
type PreviewRow struct {
	Columns     []string `json:"columns"`
	Validations []Badge  `json:"validations"`
}

// PreviewMetadata carries run-level figures shown alongside the rows.
type PreviewMetadata struct {
	OCRConfMean float64 `json:"ocr_conf_mean"`
}

// Preview is the paginated-preview document written to
// processed/<job_id>/preview.json and served by GET /preview/{id}.
type Preview struct {
	JobID     string          `json:"job_id"`
	Headers   []string        `json:"headers"`
	Rows      []PreviewRow    `json:"rows"`
	TotalRows int             `json:"total_rows"`
	Metadata  PreviewMetadata `json:"metadata"`
}
