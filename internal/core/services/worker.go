package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/quarry-labs/quarry/internal/core/domain"
	"github.com/quarry-labs/quarry/internal/core/ports/driven"
	"github.com/quarry-labs/quarry/internal/core/ports/driving"
	"github.com/quarry-labs/quarry/internal/logger"
)

// JobProcessor handles one job type. Process runs inside the worker's
// transaction: its writes and the job's SUCCEEDED transition commit
// together, or not at all.
type JobProcessor interface {
	JobType() domain.JobType
	Process(ctx context.Context, tx driven.Stores, job *domain.Job) error
}

// WorkerConfig tunes the job loop.
type WorkerConfig struct {
	// PollInterval is how long to sleep after a poll that found no work.
	PollInterval time.Duration

	// MaxAttempts is how many claims a job gets before it stops being
	// eligible.
	MaxAttempts int
}

// DefaultWorkerConfig returns the standard worker tuning.
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		PollInterval: 2 * time.Second,
		MaxAttempts:  3,
	}
}

// Ensure Worker implements the interface.
var _ driving.Worker = (*Worker)(nil)

// Worker drains the job queue, running one independent claim loop per
// registered processor so a backlog of one job type never starves the
// others.
type Worker struct {
	config     WorkerConfig
	store      driven.Stores
	uow        driven.UnitOfWork
	processors []JobProcessor

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewWorker creates a worker over the given processors.
func NewWorker(config WorkerConfig, store driven.Stores, uow driven.UnitOfWork, processors ...JobProcessor) *Worker {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultWorkerConfig().PollInterval
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = DefaultWorkerConfig().MaxAttempts
	}

	return &Worker{
		config:     config,
		store:      store,
		uow:        uow,
		processors: processors,
	}
}

// Start spawns one claim loop per processor and blocks until Stop is
// called or the context is cancelled. An infrastructure error in any loop
// tears down the rest.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil // Already running
	}
	w.running = true
	w.stopCh = make(chan struct{})
	stopCh := w.stopCh
	w.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, len(w.processors))
	for _, p := range w.processors {
		w.wg.Add(1)
		go func(p JobProcessor) {
			defer w.wg.Done()
			if err := w.claimLoop(ctx, stopCh, p); err != nil {
				errCh <- err
				cancel()
			}
		}(p)
	}
	w.wg.Wait()

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}

// claimLoop polls one processor's queue until the worker stops.
func (w *Worker) claimLoop(ctx context.Context, stopCh <-chan struct{}, p JobProcessor) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stopCh:
			return nil
		default:
		}

		worked, err := w.pollOnce(ctx, p)
		if err != nil {
			return err
		}
		if worked {
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-time.After(w.config.PollInterval):
		}
	}
}

// Stop gracefully shuts down the worker, waiting for in-flight jobs.
func (w *Worker) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	close(w.stopCh)
	w.mu.Unlock()

	w.wg.Wait()
	return nil
}

// pollOnce tries the processor's queue once. Returns whether a job was
// processed. Claim errors are infrastructure failures and stop the loop;
// processor errors fail the job and the loop keeps going.
func (w *Worker) pollOnce(ctx context.Context, p JobProcessor) (bool, error) {
	job, err := w.store.Jobs().Claim(ctx, p.JobType(), w.config.MaxAttempts)
	if err != nil {
		return false, fmt.Errorf("claiming %s job: %w", p.JobType(), err)
	}
	if job == nil {
		return false, nil
	}

	w.process(ctx, p, job)
	return true, nil
}

// process runs the job inside one transaction. The processor's writes and
// the SUCCEEDED transition commit atomically; on error the transaction
// rolls back and the failure is recorded separately.
func (w *Worker) process(ctx context.Context, p JobProcessor, job *domain.Job) {
	logger.Debug("processing %s job %s (attempt %d)", job.Type, job.ID, job.Attempts)

	err := w.uow.Execute(ctx, func(tx driven.Stores) error {
		if err := p.Process(ctx, tx, job); err != nil {
			return err
		}
		return tx.Jobs().MarkSucceeded(ctx, job)
	})
	if err == nil {
		logger.Debug("%s job %s succeeded", job.Type, job.ID)
		return
	}

	logger.Warn("%s job %s failed: %v", job.Type, job.ID, err)
	if markErr := w.store.Jobs().MarkFailed(ctx, job, err.Error()); markErr != nil {
		logger.Error("recording failure of job %s: %v", job.ID, markErr)
	}
}
