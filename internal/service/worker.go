package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kitbuilder587/podcast-radar/internal/domain"
	"github.com/kitbuilder587/podcast-radar/internal/metrics"
	"github.com/kitbuilder587/podcast-radar/internal/repository"
)

type WorkerConfig struct {
	PollInterval time.Duration
	BatchSize    int
}

// Worker периодически выгребает очередь джоб и пишет подкасты в хранилище.
// Upsert по track_id делает обработку идемпотентной: повтор после падения
// не порождает дубликат.
type Worker struct {
	jobs     repository.JobRepository
	podcasts repository.PodcastRepository
	logger   *zap.Logger
	metrics  *metrics.Metrics
	interval time.Duration
	batch    int

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	stopped  bool
	done     chan struct{}
}

func NewWorker(jobs repository.JobRepository, podcasts repository.PodcastRepository, logger *zap.Logger, m *metrics.Metrics, cfg WorkerConfig) *Worker {
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 10 * time.Second
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 10
	}

	return &Worker{
		jobs:     jobs,
		podcasts: podcasts,
		logger:   logger,
		metrics:  m,
		interval: cfg.PollInterval,
		batch:    cfg.BatchSize,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (w *Worker) Start(ctx context.Context) {
	go func() {
		defer close(w.done)

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-w.stopChan:
				return
			case <-ticker.C:
				w.processBatch(ctx)
			}
		}
	}()
}

func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.stopped {
		w.stopped = true
		close(w.stopChan)
	}
	w.mu.Unlock()
	<-w.done
}

// processBatch - один цикл воркера. Single-flight: тик, пришедший во время
// работающего цикла, игнорируется.
func (w *Worker) processBatch(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	jobs, err := w.jobs.DequeueBatch(ctx, w.batch)
	if err != nil {
		w.logger.Error("failed to dequeue jobs", zap.Error(err))
		return
	}
	if len(jobs) == 0 {
		return
	}

	w.logger.Info("processing podcast jobs", zap.Int("count", len(jobs)))

	// settle-all: каждая джоба фиксирует свой исход сама,
	// падение одной не трогает остальные
	g := new(errgroup.Group)
	for _, job := range jobs {
		job := job
		g.Go(func() error {
			w.processJob(ctx, job)
			return nil
		})
	}
	g.Wait()

	stats, err := w.jobs.Stats(ctx)
	if err != nil {
		w.logger.Warn("failed to read queue stats", zap.Error(err))
		return
	}

	w.logger.Info("queue stats",
		zap.Int("pending", stats.Pending),
		zap.Int("processing", stats.Processing),
		zap.Int("completed", stats.Completed),
		zap.Int("failed", stats.Failed),
	)
	if w.metrics != nil {
		w.metrics.SetQueueDepth("pending", stats.Pending)
		w.metrics.SetQueueDepth("processing", stats.Processing)
		w.metrics.SetQueueDepth("completed", stats.Completed)
		w.metrics.SetQueueDepth("failed", stats.Failed)
	}
}

func (w *Worker) processJob(ctx context.Context, job domain.Job) {
	if err := w.jobs.MarkProcessing(ctx, job.ID); err != nil {
		w.logger.Warn("failed to mark job processing",
			zap.Int64("job_id", job.ID),
			zap.Error(err),
		)
		return
	}

	podcast := job.Payload.ToPodcast()
	if err := w.podcasts.Upsert(ctx, &podcast); err != nil {
		w.logger.Warn("job failed",
			zap.Int64("job_id", job.ID),
			zap.Int64("track_id", job.TrackID),
			zap.Error(err),
		)
		if markErr := w.jobs.MarkFailed(ctx, job.ID, err.Error()); markErr != nil {
			w.logger.Error("failed to mark job failed",
				zap.Int64("job_id", job.ID),
				zap.Error(markErr),
			)
		}
		if w.metrics != nil {
			w.metrics.RecordJobProcessed("failed")
		}
		return
	}

	if err := w.jobs.MarkCompleted(ctx, job.ID); err != nil {
		w.logger.Error("failed to mark job completed",
			zap.Int64("job_id", job.ID),
			zap.Error(err),
		)
		return
	}

	if w.metrics != nil {
		w.metrics.RecordJobProcessed("completed")
	}
	w.logger.Debug("job completed",
		zap.Int64("job_id", job.ID),
		zap.Int64("track_id", job.TrackID),
	)
}
