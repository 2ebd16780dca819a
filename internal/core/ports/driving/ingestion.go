package driving

import (
	"context"

	"github.com/quarry-labs/quarry/internal/core/domain"
)

// IngestionService registers files and queues them for extraction.
type IngestionService interface {
	// RegisterShare creates a share rooted at the given path, or returns
	// the existing share with that name.
	RegisterShare(ctx context.Context, tenantID, name, rootPath string) (*domain.Share, error)

	// IngestFile upserts the file record and enqueues an extraction job
	// for it. Re-ingesting an unchanged file is harmless: the extraction
	// stage detects the identical content hash.
	IngestFile(ctx context.Context, share *domain.Share, relativePath string) (*domain.File, error)
}
