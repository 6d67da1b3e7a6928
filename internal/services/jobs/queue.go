package jobs

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/gofrs/flock"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/diario/internal/models"
)

// Queue is the line-delimited pending-job log at state/queue.jsonl.
// Appends come from the API process, drains from the worker; an
// advisory file lock keeps the read-then-truncate window atomic across
// processes.
type Queue struct {
	path   string
	lock   *flock.Flock
	logger arbor.ILogger
}

// NewQueue opens the queue file at path.
func NewQueue(path string, logger arbor.ILogger) *Queue {
	return &Queue{
		path:   path,
		lock:   flock.New(path + ".lock"),
		logger: logger,
	}
}

// Append writes one entry as a JSON line.
func (q *Queue) Append(entry models.QueueEntry) error {
	if err := q.lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock queue: %w", err)
	}
	defer q.lock.Unlock()

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode queue entry: %w", err)
	}

	file, err := os.OpenFile(q.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open queue file: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to append queue entry: %w", err)
	}
	return nil
}

// Drain reads every pending entry and truncates the file, both under
// the advisory lock. Malformed lines are logged and skipped.
func (q *Queue) Drain() ([]models.QueueEntry, error) {
	if err := q.lock.Lock(); err != nil {
		return nil, fmt.Errorf("failed to lock queue: %w", err)
	}
	defer q.lock.Unlock()

	file, err := os.Open(q.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open queue file: %w", err)
	}

	var entries []models.QueueEntry
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var entry models.QueueEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			q.logger.Warn().Err(err).Str("line", line).Msg("Skipping malformed queue entry")
			continue
		}
		entries = append(entries, entry)
	}
	scanErr := scanner.Err()
	file.Close()
	if scanErr != nil {
		return nil, fmt.Errorf("failed to read queue file: %w", scanErr)
	}

	if err := os.Truncate(q.path, 0); err != nil {
		return nil, fmt.Errorf("failed to truncate queue file: %w", err)
	}
	return entries, nil
}
