package pipeline

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/diario/internal/models"
)

// WriteCSV writes the canonical columns of every record to
// processed/<job>/output.csv with semicolon delimiters and returns the
// file path. Shadow fields never reach the file.
func WriteCSV(processedDir, jobID string, records []models.Record) (string, error) {
	jobDir := filepath.Join(processedDir, jobID)
	if err := os.MkdirAll(jobDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create processed directory: %w", err)
	}

	path := filepath.Join(jobDir, "output.csv")
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	writer.Comma = ';'

	if err := writer.Write(models.Columns); err != nil {
		return "", fmt.Errorf("failed to write csv header: %w", err)
	}
	row := make([]string, len(models.Columns))
	for _, record := range records {
		for i, column := range models.Columns {
			row[i] = record.Get(column)
		}
		if err := writer.Write(row); err != nil {
			return "", fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", fmt.Errorf("failed to flush csv: %w", err)
	}
	return path, nil
}
