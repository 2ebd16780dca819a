package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/quarry-labs/quarry/internal/core/domain"
	"github.com/quarry-labs/quarry/internal/core/ports/driven"
)

// jobStore implements driven.JobStore.
type jobStore struct {
	q queryer
}

var _ driven.JobStore = (*jobStore)(nil)

// Enqueue inserts a new PENDING job.
func (s *jobStore) Enqueue(ctx context.Context, job *domain.Job) error {
	now := time.Now().UTC()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now
	if job.Status == "" {
		job.Status = domain.JobPending
	}

	_, err := s.q.ExecContext(ctx, `
		INSERT INTO jobs (id, tenant_id, job_type, file_id, document_id, status, attempts, last_error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, job.ID, job.TenantID, string(job.Type), nullString(job.FileID), nullString(job.DocumentID),
		string(job.Status), job.Attempts, nullString(job.LastError), job.CreatedAt, job.UpdatedAt)

	if err != nil {
		return fmt.Errorf("enqueuing job: %w", err)
	}
	return nil
}

// Claim atomically selects the oldest eligible PENDING job of the given
// type, moves it to IN_PROGRESS and increments its attempt count. SQLite's
// serialised writer guarantees no two callers receive the same job. Returns
// nil when no job is eligible.
func (s *jobStore) Claim(ctx context.Context, jobType domain.JobType, maxAttempts int) (*domain.Job, error) {
	row := s.q.QueryRowContext(ctx, `
		UPDATE jobs
		SET status = ?, attempts = attempts + 1, updated_at = ?
		WHERE id = (
			SELECT id FROM jobs
			WHERE status = ? AND job_type = ? AND attempts < ?
			ORDER BY created_at, id
			LIMIT 1
		)
		RETURNING id, tenant_id, job_type, file_id, document_id, status, attempts, last_error, created_at, updated_at
	`, string(domain.JobInProgress), time.Now().UTC(),
		string(domain.JobPending), string(jobType), maxAttempts)

	job, err := scanJob(row)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil // Nothing eligible
	}
	return job, err
}

// MarkSucceeded records the terminal SUCCEEDED transition.
func (s *jobStore) MarkSucceeded(ctx context.Context, job *domain.Job) error {
	return s.finish(ctx, job, domain.JobSucceeded, "")
}

// MarkFailed records the terminal FAILED transition with the message kept
// verbatim.
func (s *jobStore) MarkFailed(ctx context.Context, job *domain.Job, message string) error {
	return s.finish(ctx, job, domain.JobFailed, message)
}

func (s *jobStore) finish(ctx context.Context, job *domain.Job, status domain.JobStatus, message string) error {
	now := time.Now().UTC()
	_, err := s.q.ExecContext(ctx, `
		UPDATE jobs SET status = ?, last_error = ?, updated_at = ? WHERE id = ?
	`, string(status), nullString(message), now, job.ID)
	if err != nil {
		return fmt.Errorf("finishing job: %w", err)
	}

	job.Status = status
	job.LastError = message
	job.UpdatedAt = now
	return nil
}

// Get retrieves a job by ID.
func (s *jobStore) Get(ctx context.Context, id string) (*domain.Job, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT id, tenant_id, job_type, file_id, document_id, status, attempts, last_error, created_at, updated_at
		FROM jobs WHERE id = ?
	`, id)

	return scanJob(row)
}

// scanJob scans a single job row.
func scanJob(row *sql.Row) (*domain.Job, error) {
	var job domain.Job
	var jobType, status string
	var fileID, documentID, lastError sql.NullString
	var createdAt, updatedAt sql.NullTime

	if err := row.Scan(&job.ID, &job.TenantID, &jobType, &fileID, &documentID,
		&status, &job.Attempts, &lastError, &createdAt, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning job: %w", err)
	}

	job.Type = domain.JobType(jobType)
	job.Status = domain.JobStatus(status)
	job.FileID = fileID.String
	job.DocumentID = documentID.String
	job.LastError = lastError.String
	if createdAt.Valid {
		job.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		job.UpdatedAt = updatedAt.Time
	}

	return &job, nil
}
