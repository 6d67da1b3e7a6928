package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/diario/internal/models"
)

// ErrVersionNotFound is returned for operations on an unknown version.
var ErrVersionNotFound = fmt.Errorf("model version not found")

// Service is the append-only model registry persisted as a JSON array
// at state/model_registry.json. Callers within the process serialize
// through one mutex; multi-process deployments need an external lock.
type Service struct {
	path   string
	logger arbor.ILogger
	mu     sync.Mutex
}

// NewService opens the registry stored at path.
func NewService(path string, logger arbor.ILogger) *Service {
	return &Service{path: path, logger: logger}
}

// Register appends a new record. The version is the zero-padded position
// in the history, so versions increase monotonically by append order.
func (s *Service) Register(modelName string, metrics map[string]interface{}, status string) (models.ModelRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, err := s.load()
	if err != nil {
		return models.ModelRecord{}, err
	}

	record := models.ModelRecord{
		ModelName: modelName,
		Version:   fmt.Sprintf("%03d", len(history)+1),
		CreatedAt: time.Now().UTC(),
		Status:    status,
		Metrics:   metrics,
	}
	history = append(history, record)

	if err := s.save(history); err != nil {
		return models.ModelRecord{}, err
	}

	s.logger.Info().
		Str("model", modelName).
		Str("version", record.Version).
		Str("status", status).
		Msg("Model record registered")
	return record, nil
}

// Promote marks the given version as production and archives every
// other record, so at most one production record exists.
func (s *Service) Promote(version string) error {
	return s.mutate(version, func(history []models.ModelRecord, index int) {
		for i := range history {
			if i == index {
				history[i].Status = models.ModelStatusProduction
			} else {
				history[i].Status = models.ModelStatusArchived
			}
		}
	})
}

// Rollback makes the given version production again and archives the
// current production record. Other records keep their status.
func (s *Service) Rollback(version string) error {
	return s.mutate(version, func(history []models.ModelRecord, index int) {
		for i := range history {
			if i == index {
				history[i].Status = models.ModelStatusProduction
			} else if history[i].Status == models.ModelStatusProduction {
				history[i].Status = models.ModelStatusArchived
			}
		}
	})
}

// UpdateMetrics merges metric values into the record of a version.
func (s *Service) UpdateMetrics(version string, metrics map[string]interface{}) error {
	return s.mutate(version, func(history []models.ModelRecord, index int) {
		if history[index].Metrics == nil {
			history[index].Metrics = make(map[string]interface{}, len(metrics))
		}
		for k, v := range metrics {
			history[index].Metrics[k] = v
		}
	})
}

// History returns all records in append order.
func (s *Service) History() ([]models.ModelRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Service) mutate(version string, apply func(history []models.ModelRecord, index int)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, err := s.load()
	if err != nil {
		return err
	}
	index := -1
	for i := range history {
		if history[i].Version == version {
			index = i
			break
		}
	}
	if index < 0 {
		return fmt.Errorf("%w: %s", ErrVersionNotFound, version)
	}
	apply(history, index)
	return s.save(history)
}

func (s *Service) load() ([]models.ModelRecord, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read model registry: %w", err)
	}
	var history []models.ModelRecord
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("failed to parse model registry: %w", err)
	}
	return history, nil
}

func (s *Service) save(history []models.ModelRecord) error {
	if history == nil {
		history = []models.ModelRecord{}
	}
	data, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode model registry: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write model registry: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace model registry: %w", err)
	}
	return nil
}
