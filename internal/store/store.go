/**
 * Postgres-backed Store for the OCR service.
 *
 * The store is the dispatch authority: there is no in-memory or
 * external queue. Workers obtain work exclusively through
 * ClaimOldestPending, which uses SELECT ... FOR UPDATE SKIP LOCKED so
 * concurrent workers never race for the same row.
 */

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	apperrors "github.com/adverant/ocrservice/internal/errors"
	"github.com/adverant/ocrservice/internal/model"
)

// Store wraps the connection pool and implements the job dispatch
// protocol described in spec §4.2.
type Store struct {
	db *sql.DB
}

// New opens a connection pool against databaseURL and verifies
// connectivity.
func New(databaseURL string) (*Store, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &Store{db: db}, nil
}

// CreateJob inserts a new PENDING job and returns its generated ID.
func (s *Store) CreateJob(ctx context.Context, j *model.Job) (string, error) {
	if j.ID == "" {
		j.ID = uuid.New().String()
	}

	query := `
		INSERT INTO ocr.jobs (
			id, status, document_type, email, callback_webhook,
			file_data, file_name, mime_type, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
	`
	_, err := s.db.ExecContext(ctx, query,
		j.ID, model.StatusPending, j.DocumentType, j.Email, j.CallbackWebhook,
		j.FileData, j.FileName, j.MimeType,
	)
	if err != nil {
		return "", apperrors.NewStoreUnavailableError(fmt.Errorf("creating job: %w", err))
	}

	return j.ID, nil
}

// GetJob retrieves a job by ID.
func (s *Store) GetJob(ctx context.Context, id string) (*model.Job, error) {
	query := `
		SELECT id, status, document_type, email, callback_webhook,
		       file_data, file_name, mime_type, ocr_result, error_message,
		       created_at, updated_at, processed_at
		FROM ocr.jobs WHERE id = $1
	`
	row := s.db.QueryRowContext(ctx, query, id)
	j, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(id)
	}
	if err != nil {
		return nil, apperrors.NewStoreUnavailableError(fmt.Errorf("getting job %s: %w", id, err))
	}
	return j, nil
}

// ListJobs returns up to limit jobs ordered newest-first, optionally
// filtered by status.
func (s *Store) ListJobs(ctx context.Context, status model.Status, limit, offset int) ([]*model.Job, error) {
	var rows *sql.Rows
	var err error

	if status != "" {
		rows, err = s.db.QueryContext(ctx, `
			SELECT id, status, document_type, email, callback_webhook,
			       file_data, file_name, mime_type, ocr_result, error_message,
			       created_at, updated_at, processed_at
			FROM ocr.jobs WHERE status = $1
			ORDER BY created_at DESC LIMIT $2 OFFSET $3
		`, status, limit, offset)
	} else {
		rows, err = s.db.QueryContext(ctx, `
			SELECT id, status, document_type, email, callback_webhook,
			       file_data, file_name, mime_type, ocr_result, error_message,
			       created_at, updated_at, processed_at
			FROM ocr.jobs
			ORDER BY created_at DESC LIMIT $1 OFFSET $2
		`, limit, offset)
	}
	if err != nil {
		return nil, apperrors.NewStoreUnavailableError(fmt.Errorf("listing jobs: %w", err))
	}
	defer rows.Close()

	var jobs []*model.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, apperrors.NewStoreUnavailableError(fmt.Errorf("scanning job row: %w", err))
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// CountByStatus returns the number of jobs in each status, for the
// admin stats endpoint.
func (s *Store) CountByStatus(ctx context.Context) (map[model.Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM ocr.jobs GROUP BY status`)
	if err != nil {
		return nil, apperrors.NewStoreUnavailableError(fmt.Errorf("counting by status: %w", err))
	}
	defer rows.Close()

	counts := map[model.Status]int{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, apperrors.NewStoreUnavailableError(err)
		}
		counts[model.Status(status)] = count
	}
	return counts, rows.Err()
}

// ClaimOldestPending atomically claims the single oldest PENDING job and
// marks it PROCESSING, so that no two concurrent workers can claim the
// same row. Returns (nil, nil) when no pending job is available.
func (s *Store) ClaimOldestPending(ctx context.Context) (*model.Job, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, apperrors.NewStoreUnavailableError(fmt.Errorf("beginning claim tx: %w", err))
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		SELECT id, status, document_type, email, callback_webhook,
		       file_data, file_name, mime_type, ocr_result, error_message,
		       created_at, updated_at, processed_at
		FROM ocr.jobs
		WHERE status = $1
		ORDER BY created_at ASC
		FOR UPDATE SKIP LOCKED
		LIMIT 1
	`, model.StatusPending)

	j, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewStoreUnavailableError(fmt.Errorf("scanning claim candidate: %w", err))
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE ocr.jobs SET status = $1, updated_at = NOW() WHERE id = $2
	`, model.StatusProcessing, j.ID); err != nil {
		return nil, apperrors.NewStoreUnavailableError(fmt.Errorf("marking job processing: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.NewStoreUnavailableError(fmt.Errorf("committing claim: %w", err))
	}

	j.Status = model.StatusProcessing
	return j, nil
}

// Finalize records a terminal outcome (COMPLETED or FAILED) for a job.
func (s *Store) Finalize(ctx context.Context, id string, status model.Status, result *model.Result, errMsg string) error {
	var resultJSON []byte
	var err error
	if result != nil {
		resultJSON, err = json.Marshal(result)
		if err != nil {
			return fmt.Errorf("marshaling OCR result: %w", err)
		}
		resultJSON = sanitizeJSONForPostgres(resultJSON)
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE ocr.jobs
		SET status = $1, ocr_result = $2, error_message = $3,
		    updated_at = NOW(), processed_at = NOW()
		WHERE id = $4
	`, status, resultJSON, errMsg, id)
	if err != nil {
		return apperrors.NewStoreUnavailableError(fmt.Errorf("finalizing job %s: %w", id, err))
	}
	return nil
}

// ResetToPending resets a stuck PROCESSING job back to PENDING so it
// will be reclaimed on the next poll. Per spec §9, this is a known
// reset/race window: a worker that is in fact still alive and finishes
// after the reset can double-finalize; Finalize is written as an
// idempotent last-write-wins update to tolerate that.
func (s *Store) ResetToPending(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE ocr.jobs SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`, model.StatusPending, id, model.StatusProcessing)
	if err != nil {
		return apperrors.NewStoreUnavailableError(fmt.Errorf("resetting job %s: %w", id, err))
	}
	return nil
}

// StuckJobs returns PROCESSING jobs whose updated_at is older than
// threshold, per the stuck-job definition in the Glossary.
func (s *Store) StuckJobs(ctx context.Context, threshold time.Duration) ([]*model.Job, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, status, document_type, email, callback_webhook,
		       file_data, file_name, mime_type, ocr_result, error_message,
		       created_at, updated_at, processed_at
		FROM ocr.jobs
		WHERE status = $1 AND updated_at < $2
	`, model.StatusProcessing, time.Now().Add(-threshold))
	if err != nil {
		return nil, apperrors.NewStoreUnavailableError(err)
	}
	defer rows.Close()

	var jobs []*model.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, apperrors.NewStoreUnavailableError(err)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// DeleteJob permanently removes a job record.
func (s *Store) DeleteJob(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM ocr.jobs WHERE id = $1`, id)
	if err != nil {
		return apperrors.NewStoreUnavailableError(err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return apperrors.NewNotFoundError(id)
	}
	return nil
}

// Ping checks database connectivity, used by the /healthz endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Stats exposes the connection pool statistics for the admin stats
// endpoint.
func (s *Store) Stats() sql.DBStats {
	return s.db.Stats()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(row rowScanner) (*model.Job, error) {
	var j model.Job
	var status string
	var resultJSON []byte
	var processedAt sql.NullTime
	var errMessage sql.NullString

	err := row.Scan(
		&j.ID, &status, &j.DocumentType, &j.Email, &j.CallbackWebhook,
		&j.FileData, &j.FileName, &j.MimeType, &resultJSON, &errMessage,
		&j.CreatedAt, &j.UpdatedAt, &processedAt,
	)
	if err != nil {
		return nil, err
	}

	j.Status = model.Status(status)
	if errMessage.Valid {
		j.ErrorMessage = errMessage.String
	}
	if processedAt.Valid {
		t := processedAt.Time
		j.ProcessedAt = &t
	}
	if len(resultJSON) > 0 {
		var result model.Result
		if err := json.Unmarshal(resultJSON, &result); err == nil {
			j.OCRResult = &result
		}
	}

	return &j, nil
}
