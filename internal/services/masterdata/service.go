package masterdata

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/diario/internal/models"
)

// Service is the master acronym registry: one JSON file per record under
// the master directory, mirrored by an uppercase-keyed in-memory cache.
type Service struct {
	dir    string
	logger arbor.ILogger

	mu    sync.RWMutex
	cache map[string]models.MasterRecord

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewService opens the registry rooted at dir, creating the directory
// and loading the cache.
func NewService(dir string, logger arbor.ILogger) (*Service, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create master directory %s: %w", dir, err)
	}
	s := &Service{
		dir:    dir,
		logger: logger,
		cache:  make(map[string]models.MasterRecord),
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads every *.json file into the cache. Files may hold a
// single record or an array of records.
func (s *Service) Reload() error {
	files, err := s.listFiles()
	if err != nil {
		return err
	}

	cache := make(map[string]models.MasterRecord)
	for _, file := range files {
		records, err := readRecordFile(file)
		if err != nil {
			s.logger.Error().Err(err).Str("file", file).Msg("Failed to load master data file")
			return err
		}
		for _, record := range records {
			cache[strings.ToUpper(record.Sigla)] = record
		}
	}

	s.mu.Lock()
	s.cache = cache
	s.mu.Unlock()

	s.logger.Debug().Int("records", len(cache)).Msg("Master data cache reloaded")
	return nil
}

// List returns all records in file order.
func (s *Service) List() ([]models.MasterRecord, error) {
	files, err := s.listFiles()
	if err != nil {
		return nil, err
	}
	var records []models.MasterRecord
	for _, file := range files {
		loaded, err := readRecordFile(file)
		if err != nil {
			return nil, err
		}
		records = append(records, loaded...)
	}
	return records, nil
}

// Upsert writes the record to <sigla lowercase>.json and refreshes the
// cache entry.
func (s *Service) Upsert(record models.MasterRecord) error {
	if record.Sigla == "" {
		return fmt.Errorf("master record sigla is required")
	}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode master record %s: %w", record.Sigla, err)
	}
	file := filepath.Join(s.dir, strings.ToLower(record.Sigla)+".json")
	if err := os.WriteFile(file, data, 0644); err != nil {
		return fmt.Errorf("failed to write master record %s: %w", record.Sigla, err)
	}

	s.mu.Lock()
	s.cache[strings.ToUpper(record.Sigla)] = record
	s.mu.Unlock()

	s.logger.Info().Str("sigla", record.Sigla).Msg("Master record upserted")
	return nil
}

// Get returns the cached record for an uppercase sigla key.
func (s *Service) Get(sigla string) (models.MasterRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.cache[strings.ToUpper(sigla)]
	return record, ok
}

// Keys returns the cached sigla keys sorted ascending.
func (s *Service) Keys() []string {
	s.mu.RLock()
	keys := make([]string, 0, len(s.cache))
	for key := range s.cache {
		keys = append(keys, key)
	}
	s.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

// Version computes the content-addressed digest of the registry: SHA-256
// over the sorted (file name, file bytes) pairs, or "empty" when no
// files exist.
func (s *Service) Version() (string, error) {
	files, err := s.listFiles()
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "empty", nil
	}

	digest := sha256.New()
	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		digest.Write([]byte(filepath.Base(file)))
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read master file %s: %w", file, err)
		}
		digest.Write(data)
	}
	return hex.EncodeToString(digest.Sum(nil)), nil
}

// Watch reloads the cache whenever the master directory changes.
func (s *Service) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create master data watcher: %w", err)
	}
	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", s.dir, err)
	}

	s.watcher = watcher
	s.done = make(chan struct{})

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				if err := s.Reload(); err != nil {
					s.logger.Warn().Err(err).Msg("Master data reload after change failed")
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Warn().Err(err).Msg("Master data watcher error")
			case <-s.done:
				return
			}
		}
	}()

	s.logger.Info().Str("dir", s.dir).Msg("Watching master data directory")
	return nil
}

// Close stops the watcher if one is running.
func (s *Service) Close() {
	if s.watcher != nil {
		close(s.done)
		s.watcher.Close()
		s.watcher = nil
	}
}

func (s *Service) listFiles() ([]string, error) {
	files, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list master directory: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

func readRecordFile(file string) ([]models.MasterRecord, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", file, err)
	}
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var records []models.MasterRecord
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", file, err)
		}
		return records, nil
	}
	var record models.MasterRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", file, err)
	}
	return []models.MasterRecord{record}, nil
}
