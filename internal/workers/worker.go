package workers

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/diario/internal/common"
	"github.com/ternarybob/diario/internal/pipeline"
	"github.com/ternarybob/diario/internal/services/jobs"
	"github.com/ternarybob/diario/internal/services/training"
)

// Worker drains the pending queue on a fixed interval and runs the
// processing pipeline for each entry. A single worker owns the queue;
// the file lock inside the queue keeps concurrent processes safe.
type Worker struct {
	queue    *jobs.Queue
	pipeline *pipeline.Pipeline
	trainer  *training.Service
	config   common.TrainingConfig
	interval time.Duration
	logger   arbor.ILogger

	cancel context.CancelFunc
	wg     sync.WaitGroup
	cron   *cron.Cron
}

// NewWorker builds the worker. The trainer may be nil when scheduled
// training is disabled.
func NewWorker(queue *jobs.Queue, pipelineSvc *pipeline.Pipeline, trainer *training.Service, config common.TrainingConfig, interval time.Duration, logger arbor.ILogger) *Worker {
	return &Worker{
		queue:    queue,
		pipeline: pipelineSvc,
		trainer:  trainer,
		config:   config,
		interval: interval,
		logger:   logger,
	}
}

// Start launches the poll loop and, when configured, the training
// schedule. It returns immediately.
func (w *Worker) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel

	w.wg.Add(1)
	go w.loop(ctx)

	if w.config.Enabled && w.trainer != nil {
		w.cron = cron.New()
		_, err := w.cron.AddFunc(w.config.Schedule, w.runTraining)
		if err != nil {
			w.logger.Error().Err(err).
				Str("schedule", w.config.Schedule).
				Msg("Invalid training schedule")
		} else {
			w.cron.Start()
			w.logger.Info().
				Str("schedule", w.config.Schedule).
				Str("model", w.config.ModelName).
				Msg("Scheduled training enabled")
		}
	}

	w.logger.Info().
		Str("poll_interval", w.interval.String()).
		Msg("Worker started")
}

// Stop halts the poll loop and waits for an in-flight drain to finish.
func (w *Worker) Stop() {
	if w.cron != nil {
		w.cron.Stop()
	}
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	w.logger.Info().Msg("Worker stopped")
}

func (w *Worker) loop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Drain once on startup so restarts pick up pending work without
	// waiting for the first tick.
	w.drain()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.drain()
		}
	}
}

// drain processes every queued entry. A failed job is logged and left
// FAILED; the loop moves on to the next entry.
func (w *Worker) drain() {
	entries, err := w.queue.Drain()
	if err != nil {
		w.logger.Error().Err(err).Msg("Failed to drain queue")
		return
	}
	for _, entry := range entries {
		if err := w.pipeline.Process(entry.JobID); err != nil {
			w.logger.Error().Err(err).
				Str("job_id", entry.JobID).
				Msg("Job processing failed")
		}
	}
}

func (w *Worker) runTraining() {
	record, err := w.trainer.Train(w.config.ModelName)
	if err != nil {
		w.logger.Error().Err(err).
			Str("model", w.config.ModelName).
			Msg("Scheduled training failed")
		return
	}
	w.logger.Info().
		Str("model", record.ModelName).
		Str("version", record.Version).
		Msg("Scheduled training registered candidate")
}
