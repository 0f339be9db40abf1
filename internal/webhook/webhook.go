/**
 * WebhookSink delivers a job's outcome (the OCR result of a completed
 * job, or the error message of a failed one) to the job's callback
 * URL. Delivery is fire-and-forget: non-2xx responses, timeouts, and
 * transport errors are all logged and swallowed, never retried and
 * never surfaced back to the job's own status (per spec §4.6 — a
 * failed callback does not fail the job).
 *
 * HTTP-client shape (context-bound timeout, explicit status check,
 * structured logging around the call) follows the original worker's
 * ArtifactClient pattern.
 */

package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/adverant/ocrservice/internal/logging"
	"github.com/adverant/ocrservice/internal/model"
)

// Payload is the JSON body POSTed to the callback webhook.
type Payload struct {
	JobID        string        `json:"jobId"`
	Status       model.Status  `json:"status"`
	OCRResult    *model.Result `json:"ocrResult,omitempty"`
	ErrorMessage string        `json:"errorMessage,omitempty"`
}

// Sink delivers webhook notifications.
type Sink struct {
	httpClient *http.Client
	log        *logging.Logger
}

// New creates a Sink with the given delivery timeout budget.
func New(timeout time.Duration) *Sink {
	return &Sink{
		httpClient: &http.Client{Timeout: timeout},
		log:        logging.NewLogger("webhook"),
	}
}

// Deliver posts the job outcome to url. It never returns an error to
// the caller; all failures are logged so the Scheduler can proceed to
// the next job regardless of webhook health.
func (s *Sink) Deliver(ctx context.Context, url string, payload Payload) {
	body, err := json.Marshal(payload)
	if err != nil {
		s.log.Error("failed to marshal webhook payload", "job_id", payload.JobID, "error", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		s.log.Error("failed to build webhook request", "job_id", payload.JobID, "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.log.Warn("webhook delivery failed", "job_id", payload.JobID, "error", err, "duration_ms", time.Since(start).Milliseconds())
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.log.Warn("webhook returned non-2xx", "job_id", payload.JobID, "status", resp.StatusCode)
		return
	}

	s.log.Info("webhook delivered", "job_id", payload.JobID, "status", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds())
}

// DeliverAsync fires Deliver on its own goroutine, bounded by its own
// timeout context, so the worker loop that triggers it never blocks on
// webhook latency.
func (s *Sink) DeliverAsync(url string, payload Payload, timeout time.Duration) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		s.Deliver(ctx, url, payload)
	}()
}
