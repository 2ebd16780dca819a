package driven

import (
	"context"

	"github.com/quarry-labs/quarry/internal/core/domain"
)

// FileStore persists shares, files and the access entries attached to them.
type FileStore interface {
	InsertShare(ctx context.Context, share *domain.Share) error
	GetShare(ctx context.Context, id string) (*domain.Share, error)
	ShareByName(ctx context.Context, tenantID, name string) (*domain.Share, error)

	UpsertFile(ctx context.Context, file *domain.File) error
	GetFile(ctx context.Context, id string) (*domain.File, error)
	FileByPath(ctx context.Context, shareID, relativePath string) (*domain.File, error)
}

// AccessStore persists principals and per-file read grants.
type AccessStore interface {
	UpsertPrincipal(ctx context.Context, principal *domain.Principal) error
	GetPrincipal(ctx context.Context, id string) (*domain.Principal, error)

	// Grant records that a principal can read a file. Granting twice is
	// a no-op.
	Grant(ctx context.Context, access *domain.FileAccess) error

	// Readers returns the principals with read access to the file.
	Readers(ctx context.Context, fileID string) ([]*domain.Principal, error)
}
