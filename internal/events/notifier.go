/**
 * Notifier publishes job lifecycle events to a Redis pub/sub channel
 * for any observability/admin subscriber that wants to react without
 * polling the Store.
 *
 * This is explicitly NOT a dispatch mechanism — the Store's
 * ClaimOldestPending is the sole authority over which worker processes
 * which job (spec §4.2/§9). Redis here only carries after-the-fact
 * notifications; if it is unavailable or disabled, job processing is
 * entirely unaffected, which is why Publish swallows its own errors
 * rather than returning them to the scheduler.
 *
 * Adapted from the original Redis consumer's event-publish call
 * (`c.client.Publish(...)`), repurposed away from queue dispatch.
 */

package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/adverant/ocrservice/internal/logging"
)

const eventsChannel = "ocr:events"

// Event describes a single job lifecycle transition.
type Event struct {
	JobID     string    `json:"jobId"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// Notifier publishes Events. A nil *Notifier is valid and is a no-op,
// so callers don't need to branch on whether Redis was configured.
type Notifier struct {
	client *redis.Client
	log    *logging.Logger
}

// New connects to redisURL and returns a Notifier. If redisURL is
// empty, notifications are disabled and every Publish call is a no-op.
func New(redisURL string) (*Notifier, error) {
	if redisURL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	return &Notifier{
		client: redis.NewClient(opts),
		log:    logging.NewLogger("events"),
	}, nil
}

// Publish announces a job status transition. Failures are logged, not
// returned: a dead event bus must never block job processing.
func (n *Notifier) Publish(ctx context.Context, jobID, status string) {
	if n == nil || n.client == nil {
		return
	}

	data, err := json.Marshal(Event{JobID: jobID, Status: status, Timestamp: time.Now()})
	if err != nil {
		n.log.Warn("failed to marshal job event", "job_id", jobID, "error", err)
		return
	}

	if err := n.client.Publish(ctx, eventsChannel, data).Err(); err != nil {
		n.log.Warn("failed to publish job event", "job_id", jobID, "error", err)
	}
}

// Close releases the underlying Redis connection, if any.
func (n *Notifier) Close() error {
	if n == nil || n.client == nil {
		return nil
	}
	return n.client.Close()
}
