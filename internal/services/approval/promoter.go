package approval

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/diario/internal/common"
	"github.com/ternarybob/diario/internal/models"
	"github.com/ternarybob/diario/internal/services/events"
	"github.com/ternarybob/diario/internal/services/masterdata"
	"github.com/ternarybob/diario/internal/services/registry"
)

// Promoter copies the processed artifacts of an approved job into the
// date-partitioned approved store, registers a dataset candidate in the
// model registry, pins the master-data digest in meta.json and emits
// result.approved.
type Promoter struct {
	paths    common.Paths
	registry *registry.Service
	master   *masterdata.Service
	events   *events.Service
	logger   arbor.ILogger
}

// NewPromoter wires the promoter against its stores.
func NewPromoter(paths common.Paths, registrySvc *registry.Service, masterSvc *masterdata.Service, eventsSvc *events.Service, logger arbor.ILogger) *Promoter {
	return &Promoter{
		paths:    paths,
		registry: registrySvc,
		master:   masterSvc,
		events:   eventsSvc,
		logger:   logger,
	}
}

// Promote materializes the approval. A missing output.csv surfaces as a
// wrapped fs.ErrNotExist so the caller can degrade; the approved
// directory is overwrite-merged, making re-approval re-entrant.
func (p *Promoter) Promote(job *models.Job) error {
	jobID := job.JobID
	processedDir := p.paths.ProcessedJobDir(jobID)
	csvSrc := filepath.Join(processedDir, "output.csv")
	if _, err := os.Stat(csvSrc); err != nil {
		return fmt.Errorf("processed csv for job %s: %w", jobID, err)
	}

	approvedAt := time.Now().UTC()
	if job.ApprovedAt != nil {
		approvedAt = *job.ApprovedAt
	}
	approvedDate := approvedAt.Format("2006-01-02")
	approvedDir := p.paths.ApprovedJobDir(approvedDate, jobID)
	if err := os.MkdirAll(approvedDir, 0755); err != nil {
		return fmt.Errorf("failed to create approved directory: %w", err)
	}

	csvDest := filepath.Join(approvedDir, "output.csv")
	if err := copyFile(csvSrc, csvDest); err != nil {
		return err
	}

	var previewName *string
	previewSrc := filepath.Join(processedDir, "preview.json")
	if _, err := os.Stat(previewSrc); err == nil {
		if err := copyFile(previewSrc, filepath.Join(approvedDir, "preview.json")); err != nil {
			return err
		}
		name := "preview.json"
		previewName = &name
	}

	incomingDest := filepath.Join(approvedDir, "incoming")
	incomingSrc := p.paths.IncomingJobDir(jobID)
	if _, err := os.Stat(incomingSrc); err == nil {
		if err := copyTree(incomingSrc, incomingDest); err != nil {
			return err
		}
	}

	record, err := p.registerCandidate(jobID, csvSrc)
	if err != nil {
		return err
	}

	masterVersion, err := p.master.Version()
	if err != nil {
		return err
	}

	meta := models.ApprovalMeta{
		Job: job,
		Artifacts: models.ApprovalArtifacts{
			CSV:      "output.csv",
			Preview:  previewName,
			Incoming: listFileNames(incomingDest),
		},
		Versions: models.ApprovalVersions{
			Model: models.ModelVersionRef{
				Name:    record.ModelName,
				Version: record.Version,
				Status:  record.Status,
			},
			MasterData: masterVersion,
		},
	}

	metaData, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode approval meta: %w", err)
	}
	if err := os.WriteFile(filepath.Join(approvedDir, "meta.json"), metaData, 0644); err != nil {
		return fmt.Errorf("failed to write approval meta: %w", err)
	}

	p.logger.Info().
		Str("job_id", jobID).
		Str("path", approvedDir).
		Str("model_version", record.Version).
		Msg("Approval artifacts promoted")

	p.events.Publish(events.Event{
		Topic: events.TopicResultApproved,
		Payload: map[string]interface{}{
			"meta": meta,
			"path": approvedDir,
		},
	})
	return nil
}

// registerCandidate counts the promoted CSV's data rows and appends a
// candidate record to the model registry. The CSV is read with the same
// semicolon delimiter it was written with.
func (p *Promoter) registerCandidate(jobID, csvPath string) (models.ModelRecord, error) {
	file, err := os.Open(csvPath)
	if err != nil {
		return models.ModelRecord{}, fmt.Errorf("failed to open csv for registration: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1

	rows := 0
	header := true
	for {
		_, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return models.ModelRecord{}, fmt.Errorf("failed to read csv for registration: %w", err)
		}
		if header {
			header = false
			continue
		}
		rows++
	}

	return p.registry.Register(
		fmt.Sprintf("dataset-%s", jobID),
		map[string]interface{}{"rows": rows, "job_id": jobID},
		models.ModelStatusCandidate,
	)
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return nil
}

func copyTree(src, dest string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		return copyFile(path, target)
	})
}

func listFileNames(dir string) []string {
	names := []string{}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return names
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names
}
