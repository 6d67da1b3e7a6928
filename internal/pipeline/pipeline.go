package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/diario/internal/common"
	"github.com/ternarybob/diario/internal/models"
	"github.com/ternarybob/diario/internal/services/jobs"
	"github.com/ternarybob/diario/internal/services/masterdata"
	"github.com/ternarybob/diario/internal/services/metrics"
)

// Pipeline drives one job from uploaded file to processed artifacts:
// OCR, layout, extraction, normalization, validation, CSV and preview.
type Pipeline struct {
	paths      common.Paths
	jobs       *jobs.Service
	engine     Engine
	normalizer *Normalizer
	validator  *Validator
	metrics    *metrics.Service
	logger     arbor.ILogger
}

// New builds a pipeline. A nil engine falls back to the deterministic
// text engine.
func New(paths common.Paths, jobsSvc *jobs.Service, master *masterdata.Service, metricsSvc *metrics.Service, logger arbor.ILogger, engine Engine) *Pipeline {
	if engine == nil {
		engine = NewTextEngine(logger)
	}
	return &Pipeline{
		paths:      paths,
		jobs:       jobsSvc,
		engine:     engine,
		normalizer: NewNormalizer(master),
		validator:  NewValidator(master),
		metrics:    metricsSvc,
		logger:     logger,
	}
}

// Process runs the full pipeline for a job. Any failure marks the job
// FAILED with the error message and is returned to the caller.
func (p *Pipeline) Process(jobID string) error {
	if err := p.run(jobID); err != nil {
		p.jobs.RecordError(jobID, err.Error())
		p.metrics.Increment("worker.jobs.failed")
		return err
	}
	p.metrics.Increment("worker.jobs.completed")
	return nil
}

func (p *Pipeline) run(jobID string) error {
	if err := p.jobs.SetProcessing(jobID); err != nil {
		return err
	}

	filePath, err := firstFile(p.paths.IncomingJobDir(jobID))
	if err != nil {
		return err
	}

	lines, err := p.engine.Extract(filePath)
	if err != nil {
		return err
	}
	mean := confidenceMean(lines)

	layout := DetectLayout(lines)
	segments := Segment(layout)
	merged := MergeSegments(segments)

	rawRecords := ExtractRecords(merged)
	normalized := p.normalizer.Normalize(rawRecords)
	validations := p.validator.Validate(normalized, Context{
		RawRecords:  rawRecords,
		OCRConfMean: mean,
	})

	if _, err := WriteCSV(p.paths.ProcessedDir, jobID, normalized); err != nil {
		return err
	}
	if err := p.writePreview(jobID, normalized, validations, mean); err != nil {
		return err
	}

	if err := p.jobs.SetCompleted(jobID, models.JobUpdates{
		Metadata: map[string]interface{}{"ocr_conf_mean": mean},
	}); err != nil {
		return err
	}

	p.logger.Info().
		Str("job_id", jobID).
		Int("rows", len(normalized)).
		Float64("ocr_conf_mean", mean).
		Msg("Job processed")
	return nil
}

func (p *Pipeline) writePreview(jobID string, records []models.Record, validations [][]models.Badge, mean float64) error {
	rows := make([]models.PreviewRow, 0, len(records))
	for i, record := range records {
		columns := make([]string, len(models.Columns))
		for j, column := range models.Columns {
			columns[j] = record.Get(column)
		}
		rows = append(rows, models.PreviewRow{Columns: columns, Validations: validations[i]})
	}

	preview := models.Preview{
		JobID:     jobID,
		Headers:   models.Columns,
		Rows:      rows,
		TotalRows: len(rows),
		Metadata:  models.PreviewMetadata{OCRConfMean: mean},
	}

	data, err := json.MarshalIndent(preview, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode preview: %w", err)
	}
	path := filepath.Join(p.paths.ProcessedJobDir(jobID), "preview.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write preview: %w", err)
	}
	return nil
}

// firstFile returns the lexically first regular file in dir.
func firstFile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read upload directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	if len(names) == 0 {
		return "", fmt.Errorf("no uploaded file found in %s", dir)
	}
	sort.Strings(names)
	return filepath.Join(dir, names[0]), nil
}

func confidenceMean(lines []OCRLine) float64 {
	if len(lines) == 0 {
		return 0
	}
	total := 0.0
	for _, line := range lines {
		total += line.Confidence
	}
	return total / float64(len(lines))
}
