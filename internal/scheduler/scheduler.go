/**
 * Scheduler polls the Store for pending jobs and dispatches them to a
 * bounded worker pool, following the original worker's goroutine-per-
 * worker pattern (`for i := 0; i < concurrency; i++ { go worker(i) }`)
 * with the dispatch source replaced: workers no longer block on a
 * Redis BRPop, they poll Store.ClaimOldestPending on a fixed interval.
 */

package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/adverant/ocrservice/internal/events"
	"github.com/adverant/ocrservice/internal/logging"
	"github.com/adverant/ocrservice/internal/maintenance"
	"github.com/adverant/ocrservice/internal/model"
	"github.com/adverant/ocrservice/internal/similarity"
	"github.com/adverant/ocrservice/internal/store"
	"github.com/adverant/ocrservice/internal/validator"
	"github.com/adverant/ocrservice/internal/webhook"
)

// Processor performs the OCR + enrichment work for a single job. It is
// an interface so the worker-step logic can be tested without a real
// OCR engine.
type Processor interface {
	Process(ctx context.Context, j *model.Job) (*model.Result, error)
}

// Scheduler owns the worker pool and the polling loop.
type Scheduler struct {
	store     *store.Store
	processor Processor
	webhook   *webhook.Sink
	notifier  *events.Notifier
	index     *similarity.Index
	sweeper   *maintenance.Sweeper
	validator *validator.Validator

	maxConcurrentJobs int
	pollInterval      time.Duration
	processingTimeout time.Duration
	webhookTimeout    time.Duration

	log *logging.Logger

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// Config bundles the Scheduler's dependencies and tunables.
type Config struct {
	Store             *store.Store
	Processor         Processor
	Webhook           *webhook.Sink
	Notifier          *events.Notifier
	Index             *similarity.Index
	Sweeper           *maintenance.Sweeper
	Validator         *validator.Validator
	MaxConcurrentJobs int
	PollInterval      time.Duration
	ProcessingTimeout time.Duration
	WebhookTimeout    time.Duration
	StuckJobThreshold time.Duration
}

// New creates a Scheduler.
func New(cfg Config) *Scheduler {
	return &Scheduler{
		store:             cfg.Store,
		processor:         cfg.Processor,
		webhook:           cfg.Webhook,
		notifier:          cfg.Notifier,
		index:             cfg.Index,
		sweeper:           cfg.Sweeper,
		validator:         cfg.Validator,
		maxConcurrentJobs: cfg.MaxConcurrentJobs,
		pollInterval:      cfg.PollInterval,
		processingTimeout: cfg.ProcessingTimeout,
		webhookTimeout:    cfg.WebhookTimeout,
		log:               logging.NewLogger("scheduler"),
		stopCh:            make(chan struct{}),
	}
}

// Start launches the worker pool and the stuck-job sweep ticker. It
// returns immediately; call Stop to shut down gracefully.
func (s *Scheduler) Start() {
	for i := 0; i < s.maxConcurrentJobs; i++ {
		s.wg.Add(1)
		go s.workerLoop(i)
	}

	s.wg.Add(1)
	go s.sweepLoop()

	s.log.Info("scheduler started", "max_concurrent_jobs", s.maxConcurrentJobs, "poll_interval", s.pollInterval.String())
}

// Stop signals every worker and the sweep loop to exit and blocks until
// they do.
func (s *Scheduler) Stop() {
	close(s.stopCh)
	s.wg.Wait()
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) workerLoop(id int) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.claimAndProcess(id)
		}
	}
}

func (s *Scheduler) sweepLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.pollInterval * 6)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			if s.sweeper == nil {
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if reset, err := s.sweeper.RunOnce(ctx); err != nil {
				s.log.Warn("stuck-job sweep failed", "error", err)
			} else if reset > 0 {
				s.log.Info("stuck-job sweep reset jobs", "count", reset)
			}
			cancel()
		}
	}
}

// claimAndProcess claims the oldest pending job, if any, and runs the
// full worker task: re-validate, OCR with timeout, enrich, finalize,
// webhook fire-and-forget.
func (s *Scheduler) claimAndProcess(workerID int) {
	claimCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	job, err := s.store.ClaimOldestPending(claimCtx)
	if err != nil {
		s.log.Warn("failed to claim job", "worker", workerID, "error", err)
		return
	}
	if job == nil {
		return // nothing pending
	}

	s.log.Info("claimed job", "worker", workerID, "job_id", job.ID)
	s.notifier.Publish(claimCtx, job.ID, string(model.StatusProcessing))

	if s.validator != nil {
		if _, err := s.validator.Validate(job.ID, job.FileData, job.MimeType); err != nil {
			s.failJob(job, err.Error())
			return
		}
	}

	procCtx, procCancel := context.WithTimeout(context.Background(), s.processingTimeout)
	defer procCancel()

	result, err := s.processor.Process(procCtx, job)
	if err != nil {
		s.failJob(job, err.Error())
		return
	}

	s.completeJob(job, result)
}

func (s *Scheduler) failJob(job *model.Job, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.store.Finalize(ctx, job.ID, model.StatusFailed, nil, message); err != nil {
		s.log.Error("failed to record job failure", "job_id", job.ID, "error", err)
	}
	s.notifier.Publish(ctx, job.ID, string(model.StatusFailed))
	s.log.Warn("job failed", "job_id", job.ID, "reason", message)

	if job.CallbackWebhook != "" {
		s.webhook.DeliverAsync(job.CallbackWebhook, webhook.Payload{
			JobID:        job.ID,
			Status:       model.StatusFailed,
			ErrorMessage: message,
		}, s.webhookTimeout)
	}
}

func (s *Scheduler) completeJob(job *model.Job, result *model.Result) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.store.Finalize(ctx, job.ID, model.StatusCompleted, result, ""); err != nil {
		s.log.Error("failed to record job completion", "job_id", job.ID, "error", err)
		return
	}
	s.notifier.Publish(ctx, job.ID, string(model.StatusCompleted))
	s.log.Info("job completed", "job_id", job.ID, "confidence", result.Confidence)

	if s.index != nil && result.Text != "" {
		if err := s.index.IndexJob(ctx, job.ID, result.Text); err != nil {
			s.log.Warn("failed to index job for similarity search", "job_id", job.ID, "error", err)
		}
	}

	if job.CallbackWebhook != "" {
		s.webhook.DeliverAsync(job.CallbackWebhook, webhook.Payload{
			JobID:     job.ID,
			Status:    model.StatusCompleted,
			OCRResult: result,
		}, s.webhookTimeout)
	}
}
