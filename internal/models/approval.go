package models

// ApprovalArtifacts lists the files promoted into the approved store.
type ApprovalArtifacts struct {
	CSV      string   `json:"csv"`
	Preview  *string  `json:"preview"`
	Incoming []string `json:"incoming"`
}

// ModelVersionRef identifies the registry record created on approval.
type ModelVersionRef struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Status  string `json:"status"`
}

// ApprovalVersions pins the dataset candidate and the master-data digest
// at approval time.
type ApprovalVersions struct {
	Model      ModelVersionRef `json:"model"`
	MasterData string          `json:"master_data"`
}

// ApprovalMeta is the meta.json document written next to promoted
// artifacts under approved/<date>/<job_id>/.
type ApprovalMeta struct {
	Job       *Job              `json:"job"`
	Artifacts ApprovalArtifacts `json:"artifacts"`
	Versions  ApprovalVersions  `json:"versions"`
}
