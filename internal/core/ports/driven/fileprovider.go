package driven

import (
	"context"

	"github.com/quarry-labs/quarry/internal/core/domain"
)

// FileContentProvider reads raw file bytes from wherever the share's files
// physically live.
type FileContentProvider interface {
	// Read returns the full content of the file within its share. It
	// returns domain.ErrNotFound when the file no longer exists on disk.
	Read(ctx context.Context, share *domain.Share, file *domain.File) ([]byte, error)
}
