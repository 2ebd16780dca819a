package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarry-labs/quarry/internal/core/domain"
	"github.com/quarry-labs/quarry/internal/core/ports/driven"
)

// stubProcessor counts processed jobs and can be told to fail.
type stubProcessor struct {
	jobType domain.JobType
	err     error

	mu        sync.Mutex
	processed []string
}

var _ JobProcessor = (*stubProcessor)(nil)

func (p *stubProcessor) JobType() domain.JobType { return p.jobType }

func (p *stubProcessor) Process(_ context.Context, _ driven.Stores, job *domain.Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.processed = append(p.processed, job.ID)
	return nil
}

func (p *stubProcessor) processedIDs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.processed...)
}

func testWorkerConfig() WorkerConfig {
	return WorkerConfig{PollInterval: 10 * time.Millisecond, MaxAttempts: 3}
}

func enqueueJob(t *testing.T, store driven.Stores, id string, jobType domain.JobType) {
	t.Helper()
	require.NoError(t, store.Jobs().Enqueue(context.Background(), &domain.Job{
		ID:       id,
		TenantID: "tenant-1",
		Type:     jobType,
		FileID:   "file-1",
	}))
}

func waitFor(t *testing.T, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestWorker_ProcessesQueuedJobs(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	processor := &stubProcessor{jobType: domain.JobTypeExtractContent}
	worker := NewWorker(testWorkerConfig(), store, store, processor)

	enqueueJob(t, store, "job-1", domain.JobTypeExtractContent)
	enqueueJob(t, store, "job-2", domain.JobTypeExtractContent)

	go func() { _ = worker.Start(ctx) }()
	defer worker.Stop()

	waitFor(t, func() bool { return len(processor.processedIDs()) == 2 })

	job, err := store.Jobs().Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.JobSucceeded, job.Status)
}

func TestWorker_FailedJobIsTerminal(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	processor := &stubProcessor{jobType: domain.JobTypeExtractContent, err: assert.AnError}
	worker := NewWorker(testWorkerConfig(), store, store, processor)

	enqueueJob(t, store, "job-1", domain.JobTypeExtractContent)

	go func() { _ = worker.Start(ctx) }()
	defer worker.Stop()

	var job *domain.Job
	waitFor(t, func() bool {
		var err error
		job, err = store.Jobs().Get(ctx, "job-1")
		return err == nil && job.Status == domain.JobFailed
	})

	assert.Contains(t, job.LastError, assert.AnError.Error())
}

func TestWorker_RollsBackProcessorWrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Writes something, then fails: the write must not survive.
	writeThenFail := &funcProcessor{
		jobType: domain.JobTypeExtractContent,
		fn: func(ctx context.Context, tx driven.Stores, job *domain.Job) error {
			if err := tx.Jobs().Enqueue(ctx, &domain.Job{
				ID:       "orphan",
				TenantID: "tenant-1",
				Type:     domain.JobTypeEnrichChunks,
				FileID:   "file-1",
			}); err != nil {
				return err
			}
			return assert.AnError
		},
	}
	worker := NewWorker(testWorkerConfig(), store, store, writeThenFail)

	enqueueJob(t, store, "job-1", domain.JobTypeExtractContent)

	go func() { _ = worker.Start(ctx) }()
	defer worker.Stop()

	waitFor(t, func() bool {
		job, err := store.Jobs().Get(ctx, "job-1")
		return err == nil && job.Status == domain.JobFailed
	})

	_, err := store.Jobs().Get(ctx, "orphan")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestWorker_DispatchesByJobType(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	extract := &stubProcessor{jobType: domain.JobTypeExtractContent}
	enrich := &stubProcessor{jobType: domain.JobTypeEnrichChunks}
	worker := NewWorker(testWorkerConfig(), store, store, extract, enrich)

	enqueueJob(t, store, "job-extract", domain.JobTypeExtractContent)
	enqueueJob(t, store, "job-enrich", domain.JobTypeEnrichChunks)

	go func() { _ = worker.Start(ctx) }()
	defer worker.Stop()

	waitFor(t, func() bool {
		return len(extract.processedIDs()) == 1 && len(enrich.processedIDs()) == 1
	})

	assert.Equal(t, []string{"job-extract"}, extract.processedIDs())
	assert.Equal(t, []string{"job-enrich"}, enrich.processedIDs())
}

func TestWorker_SlowJobTypeDoesNotStarveOthers(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// The extraction processor stalls until released. Enrichment jobs must
	// keep flowing through their own loop in the meantime.
	release := make(chan struct{})
	stalled := &funcProcessor{
		jobType: domain.JobTypeExtractContent,
		fn: func(ctx context.Context, _ driven.Stores, _ *domain.Job) error {
			select {
			case <-release:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	}
	enrich := &stubProcessor{jobType: domain.JobTypeEnrichChunks}
	worker := NewWorker(testWorkerConfig(), store, store, stalled, enrich)

	enqueueJob(t, store, "job-extract", domain.JobTypeExtractContent)
	enqueueJob(t, store, "job-enrich", domain.JobTypeEnrichChunks)

	go func() { _ = worker.Start(ctx) }()
	defer worker.Stop()

	waitFor(t, func() bool { return len(enrich.processedIDs()) == 1 })

	job, err := store.Jobs().Get(ctx, "job-extract")
	require.NoError(t, err)
	assert.Equal(t, domain.JobInProgress, job.Status)

	close(release)
	waitFor(t, func() bool {
		job, err := store.Jobs().Get(ctx, "job-extract")
		return err == nil && job.Status == domain.JobSucceeded
	})
}

func TestWorker_StopWaitsForLoop(t *testing.T) {
	store := newTestStore(t)

	worker := NewWorker(testWorkerConfig(), store, store, &stubProcessor{jobType: domain.JobTypeExtractContent})

	done := make(chan error, 1)
	go func() { done <- worker.Start(context.Background()) }()

	// Give the loop a moment to come up, then stop it.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, worker.Stop())

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestWorker_ContextCancellationStopsLoop(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())

	worker := NewWorker(testWorkerConfig(), store, store, &stubProcessor{jobType: domain.JobTypeExtractContent})

	done := make(chan error, 1)
	go func() { done <- worker.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop on cancellation")
	}
}

// funcProcessor adapts a function into a JobProcessor.
type funcProcessor struct {
	jobType domain.JobType
	fn      func(ctx context.Context, tx driven.Stores, job *domain.Job) error
}

var _ JobProcessor = (*funcProcessor)(nil)

func (p *funcProcessor) JobType() domain.JobType { return p.jobType }

func (p *funcProcessor) Process(ctx context.Context, tx driven.Stores, job *domain.Job) error {
	return p.fn(ctx, tx, job)
}
