package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"alfredoptarigan/ats-analyzer/internal/logger"
	"alfredoptarigan/ats-analyzer/internal/repositories"
)

// pollBatch is how many queued rows one poll re-enqueues.
const pollBatch = 10

type Worker interface {
	Start(ctx context.Context)
	Stop()
	EnqueueJob(analysisID uuid.UUID) bool
}

type WorkerOptions struct {
	Concurrency  int
	QueueSize    int
	PollInterval time.Duration
	// StaleAfter is how long a row may stay processing before the poller
	// assumes its worker died and queues it again. It must exceed the
	// longest possible analysis.
	StaleAfter time.Duration
}

type worker struct {
	analysisRepo repositories.AnalysisRepository
	analyzer     AnalyzerService
	jobQueue     chan uuid.UUID
	concurrency  int
	pollInterval time.Duration
	staleAfter   time.Duration
	wg           sync.WaitGroup
	stopChan     chan struct{}
	stopOnce     sync.Once
	log          *logrus.Logger
}

func NewWorker(
	analysisRepo repositories.AnalysisRepository,
	analyzer AnalyzerService,
	opts WorkerOptions,
) Worker {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 100
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 10 * time.Second
	}
	if opts.StaleAfter <= 0 {
		opts.StaleAfter = 15 * time.Minute
	}

	return &worker{
		analysisRepo: analysisRepo,
		analyzer:     analyzer,
		jobQueue:     make(chan uuid.UUID, opts.QueueSize),
		concurrency:  opts.Concurrency,
		pollInterval: opts.PollInterval,
		staleAfter:   opts.StaleAfter,
		stopChan:     make(chan struct{}),
		log:          logger.Get(),
	}
}

// Start implements Worker.
func (w *worker) Start(ctx context.Context) {
	w.log.Infof("🚀 Starting worker with %d concurrent workers", w.concurrency)
	w.requeueStale(ctx)

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.processJobs(ctx, i+1)
	}

	w.wg.Add(1)
	go w.pollQueuedJobs(ctx)

	w.log.Info("✅ Worker started successfully")
}

// Stop implements Worker. In-flight analyses finish before it returns.
func (w *worker) Stop() {
	w.stopOnce.Do(func() {
		w.log.Info("🛑 Stopping worker...")
		close(w.stopChan)
	})
	w.wg.Wait()
	w.log.Info("✅ Worker stopped")
}

// EnqueueJob implements Worker. It never blocks: when the queue is full the
// job stays queued in the database and the poller picks it up later.
func (w *worker) EnqueueJob(analysisID uuid.UUID) bool {
	select {
	case <-w.stopChan:
		w.log.WithField("analysis_id", analysisID).Warn("⚠️  Worker stopped, cannot enqueue job")
		return false
	default:
	}

	select {
	case w.jobQueue <- analysisID:
		w.log.WithField("analysis_id", analysisID).Debug("📥 Job enqueued")
		return true
	default:
		w.log.WithField("analysis_id", analysisID).Warn("⚠️  Job queue full, leaving job for the poller")
		return false
	}
}

func (w *worker) processJobs(ctx context.Context, workerID int) {
	defer w.wg.Done()
	log := w.log.WithField("worker", workerID)
	log.Debug("👷 Worker started processing jobs")

	for {
		select {
		case <-w.stopChan:
			log.Debug("👷 Worker stopped")
			return
		case <-ctx.Done():
			return
		case analysisID := <-w.jobQueue:
			jobLog := log.WithField("analysis_id", analysisID)
			jobLog.Info("👷 Processing job")
			if err := w.analyzer.AnalyzeDocument(ctx, analysisID); err != nil {
				jobLog.WithError(err).Error("❌ Failed to process job")
			} else {
				jobLog.Info("✅ Job finished")
			}
		}
	}
}

func (w *worker) pollQueuedJobs(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.log.Debug("🔄 Starting queued jobs poller")

	for {
		select {
		case <-w.stopChan:
			w.log.Debug("🔄 Queued jobs poller stopped")
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.requeueStale(ctx)

			queued, err := w.analysisRepo.FindQueued(ctx, pollBatch)
			if err != nil {
				w.log.WithError(err).Warn("⚠️  Failed to fetch queued jobs")
				continue
			}

			if len(queued) > 0 {
				w.log.Infof("📋 Found %d queued jobs", len(queued))
			}

			for _, job := range queued {
				w.EnqueueJob(job.ID)
			}
		}
	}
}

func (w *worker) requeueStale(ctx context.Context) {
	n, err := w.analysisRepo.RequeueStale(ctx, time.Now().Add(-w.staleAfter))
	if err != nil {
		w.log.WithError(err).Warn("⚠️  Failed to requeue stale analyses")
		return
	}
	if n > 0 {
		w.log.Warnf("↩️  Requeued %d stale analyses", n)
	}
}
