package driven

import (
	"context"

	"github.com/quarry-labs/quarry/internal/core/domain"
)

// JobStore persists and claims pipeline jobs.
//
// Claim is the single concurrency-critical primitive in the system: it must
// atomically select the oldest PENDING job of the given type with fewer than
// maxAttempts attempts, transition it to IN_PROGRESS while incrementing its
// attempt count, and guarantee that no two concurrent callers ever receive
// the same job. A claim must not block behind another caller's in-flight
// processing.
type JobStore interface {
	// Enqueue inserts a new PENDING job.
	Enqueue(ctx context.Context, job *domain.Job) error

	// Claim returns the next eligible job, or nil when none exists.
	// Callers must back off before polling again rather than busy-loop.
	Claim(ctx context.Context, jobType domain.JobType, maxAttempts int) (*domain.Job, error)

	// MarkSucceeded records the terminal SUCCEEDED transition. When called
	// on a transaction-scoped store it commits together with the stage's
	// staged writes.
	MarkSucceeded(ctx context.Context, job *domain.Job) error

	// MarkFailed records the terminal FAILED transition, preserving the
	// error message verbatim. FAILED jobs are never re-enqueued.
	MarkFailed(ctx context.Context, job *domain.Job, message string) error

	// Get retrieves a job by ID.
	Get(ctx context.Context, id string) (*domain.Job, error)
}
