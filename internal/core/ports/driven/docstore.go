package driven

import (
	"context"

	"github.com/quarry-labs/quarry/internal/core/domain"
)

// DocumentStore persists documents, their version chains and their chunks.
type DocumentStore interface {
	Insert(ctx context.Context, doc *domain.Document) error

	// Update rewrites the mutable document columns (title, doc type,
	// structured fields, content hash, last indexed time).
	Update(ctx context.Context, doc *domain.Document) error

	Get(ctx context.Context, id string) (*domain.Document, error)

	// LatestByFile returns the highest-version document for a file, or
	// domain.ErrNotFound when the file has never been extracted.
	LatestByFile(ctx context.Context, fileID string) (*domain.Document, error)

	// ReplaceChunks deletes all chunks for the document and inserts the
	// given set in a single operation.
	ReplaceChunks(ctx context.Context, documentID string, chunks []*domain.Chunk) error

	Chunks(ctx context.Context, documentID string) ([]*domain.Chunk, error)

	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)

	// UpdateChunkEnrichment sets the redacted and summary texts produced
	// by the enrichment stage.
	UpdateChunkEnrichment(ctx context.Context, chunk *domain.Chunk) error

	// SearchChunks returns chunks whose text matches the query, newest
	// document versions first, capped at limit.
	SearchChunks(ctx context.Context, tenantID, query string, limit int) ([]*domain.Chunk, error)
}

// FindingStore persists sensitivity findings per document version.
type FindingStore interface {
	// Replace deletes existing findings for the document and inserts the
	// given set, so re-enrichment never duplicates findings.
	Replace(ctx context.Context, documentID string, findings []*domain.SensitivityFinding) error

	ByDocument(ctx context.Context, documentID string) ([]*domain.SensitivityFinding, error)
}

// ExposureStore persists the single exposure row per document.
type ExposureStore interface {
	// Upsert inserts or overwrites the exposure for the document.
	Upsert(ctx context.Context, exposure *domain.DocumentExposure) error

	ByDocument(ctx context.Context, documentID string) (*domain.DocumentExposure, error)
}
