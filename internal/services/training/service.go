package training

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/diario/internal/common"
	"github.com/ternarybob/diario/internal/models"
	"github.com/ternarybob/diario/internal/services/jobs"
	"github.com/ternarybob/diario/internal/services/masterdata"
	"github.com/ternarybob/diario/internal/services/registry"
)

// Service builds training corpora from approved jobs and manages
// dataset model versions in the registry.
type Service struct {
	paths    common.Paths
	jobs     *jobs.Service
	registry *registry.Service
	master   *masterdata.Service
	logger   arbor.ILogger
}

// NewService wires the trainer against the job store and registries.
func NewService(paths common.Paths, jobsSvc *jobs.Service, registrySvc *registry.Service, masterSvc *masterdata.Service, logger arbor.ILogger) *Service {
	return &Service{
		paths:    paths,
		jobs:     jobsSvc,
		registry: registrySvc,
		master:   masterSvc,
		logger:   logger,
	}
}

// Corpus concatenates the processed CSV rows of every APPROVED job.
func (s *Service) Corpus() ([]models.Record, error) {
	var rows []models.Record
	for _, job := range s.jobs.List() {
		if job.Status != models.JobStatusApproved {
			continue
		}
		loaded, err := s.loadRows(job.JobID)
		if err != nil {
			return nil, err
		}
		rows = append(rows, loaded...)
	}
	return rows, nil
}

// Train registers a new model record with corpus-level metrics.
func (s *Service) Train(modelName string) (models.ModelRecord, error) {
	rows, err := s.Corpus()
	if err != nil {
		return models.ModelRecord{}, err
	}

	siglas := make(map[string]bool)
	for _, row := range rows {
		if sigla := row.Get(models.ColSigla); sigla != "" {
			siglas[sigla] = true
		}
	}

	record, err := s.registry.Register(modelName, map[string]interface{}{
		"rows":          len(rows),
		"unique_siglas": len(siglas),
	}, models.ModelStatusCandidate)
	if err != nil {
		return models.ModelRecord{}, err
	}

	s.logger.Info().
		Str("model", modelName).
		Str("version", record.Version).
		Int("rows", len(rows)).
		Msg("Training corpus registered")
	return record, nil
}

// EvaluateAndPromote scores the current corpus, promotes the candidate
// version to production and stores the score on its record.
func (s *Service) EvaluateAndPromote(version string) error {
	rows, err := s.Corpus()
	if err != nil {
		return err
	}
	score := 0.0
	if len(rows) > 0 {
		total := 0
		for _, row := range rows {
			total += len(row.Get(models.ColNomeCandidato))
		}
		score = float64(total) / float64(len(rows))
	}

	if err := s.registry.Promote(version); err != nil {
		return err
	}
	return s.registry.UpdateMetrics(version, map[string]interface{}{"dataset_score": score})
}

// Rollback reinstates a previous version as production.
func (s *Service) Rollback(version string) error {
	return s.registry.Rollback(version)
}

// Synthetic resamples the corpus with siglas drawn from the master
// registry, producing multiplier copies of every row.
func (s *Service) Synthetic(multiplier int) ([]models.Record, error) {
	masterRecords, err := s.master.List()
	if err != nil {
		return nil, err
	}
	base, err := s.Corpus()
	if err != nil {
		return nil, err
	}

	var synthetic []models.Record
	for i := 0; i < multiplier; i++ {
		for _, row := range base {
			record := row.Clone()
			if len(masterRecords) > 0 {
				match := masterRecords[rand.Intn(len(masterRecords))]
				record[models.ColSigla] = match.Sigla
				record[models.ColPartidoProponente] = match.Descricao
			}
			if record.Get(models.ColIndependente) == "" {
				record[models.ColIndependente] = "N"
			}
			record[models.ColNomeCandidato] = strings.TrimSpace(
				strings.TrimSpace(record.Get(models.ColNomeCandidato)) + " (synthetic)")
			synthetic = append(synthetic, record)
		}
	}
	return synthetic, nil
}

func (s *Service) loadRows(jobID string) ([]models.Record, error) {
	csvPath := filepath.Join(s.paths.ProcessedJobDir(jobID), "output.csv")
	file, err := os.Open(csvPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus csv for job %s: %w", jobID, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1

	var header []string
	var rows []models.Record
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read corpus csv for job %s: %w", jobID, err)
		}
		if header == nil {
			header = fields
			continue
		}
		row := make(models.Record, len(header))
		for i, column := range header {
			if i < len(fields) {
				row[column] = fields[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
