/**
 * Sweeper resets stuck jobs (PROCESSING with no update in
 * StuckJobThreshold) back to PENDING so the Scheduler can reclaim them.
 *
 * This runs on hibiken/asynq's periodic task scheduler rather than the
 * job-dispatch path: asynq here only triggers a maintenance sweep on a
 * cron schedule, it never carries OCR job payloads, so it does not
 * reintroduce the in-memory/external dispatch queue the spec forbids
 * (§4.2/§9) — the Store's ClaimOldestPending remains the sole dispatch
 * authority.
 */

package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/adverant/ocrservice/internal/logging"
	"github.com/adverant/ocrservice/internal/store"
)

const sweepTaskType = "maintenance:sweep_stuck_jobs"

// Sweeper periodically resets stuck jobs.
type Sweeper struct {
	st        *store.Store
	threshold time.Duration
	log       *logging.Logger
}

// NewSweeper creates a Sweeper.
func NewSweeper(st *store.Store, threshold time.Duration) *Sweeper {
	return &Sweeper{st: st, threshold: threshold, log: logging.NewLogger("sweeper")}
}

// RunOnce performs a single sweep pass, resetting every stuck job found.
// Called directly by the Scheduler's own ticker, and also wired as the
// asynq task handler below so either trigger path converges on the
// same logic.
func (s *Sweeper) RunOnce(ctx context.Context) (int, error) {
	stuck, err := s.st.StuckJobs(ctx, s.threshold)
	if err != nil {
		return 0, fmt.Errorf("listing stuck jobs: %w", err)
	}

	reset := 0
	for _, j := range stuck {
		if err := s.st.ResetToPending(ctx, j.ID); err != nil {
			s.log.Warn("failed to reset stuck job", "job_id", j.ID, "error", err)
			continue
		}
		s.log.Info("reset stuck job to pending", "job_id", j.ID)
		reset++
	}

	return reset, nil
}

// handler adapts RunOnce to asynq.HandlerFunc.
func (s *Sweeper) handler(ctx context.Context, _ *asynq.Task) error {
	_, err := s.RunOnce(ctx)
	return err
}

// RegisterPeriodic schedules the sweep to run every interval via asynq's
// periodic task scheduler, requiring a reachable Redis instance. If
// redisURL is empty, periodic scheduling is skipped and the caller is
// expected to fall back to the Scheduler's own in-process ticker.
func RegisterPeriodic(redisURL string, interval time.Duration, sweeper *Sweeper) (*asynq.PeriodicTaskManager, *asynq.Server, *asynq.ServeMux, error) {
	if redisURL == "" {
		return nil, nil, nil, nil
	}

	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("parsing redis URI: %w", err)
	}

	provider := asynq.NewPeriodicTaskConfigProvider(func() ([]*asynq.PeriodicTaskConfig, error) {
		task := asynq.NewTask(sweepTaskType, nil)
		return []*asynq.PeriodicTaskConfig{
			{Cronspec: fmt.Sprintf("@every %s", interval), Task: task},
		}, nil
	})

	mgr, err := asynq.NewPeriodicTaskManager(asynq.PeriodicTaskManagerOpts{
		RedisConnOpt:               opt,
		PeriodicTaskConfigProvider: provider,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("creating periodic task manager: %w", err)
	}

	srv := asynq.NewServer(opt, asynq.Config{Concurrency: 1})
	mux := asynq.NewServeMux()
	mux.HandleFunc(sweepTaskType, sweeper.handler)

	return mgr, srv, mux, nil
}
