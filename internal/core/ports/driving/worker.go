package driving

import "context"

// Worker runs the background job loop that drains the pipeline queue.
type Worker interface {
	// Start begins claiming and processing jobs.
	// Blocks until context is cancelled or an error occurs.
	Start(ctx context.Context) error

	// Stop gracefully stops the loop, waiting for the in-flight job.
	Stop() error
}
