package driven

import (
	"context"

	"github.com/quarry-labs/quarry/internal/core/domain"
)

// Intelligence provides the language-model operations the pipeline uses.
// Every method has a deterministic degraded fallback, so an unreachable
// model never fails a job: implementations may wrap a remote model with a
// local heuristic that takes over on error.
type Intelligence interface {
	// ClassifyDocument assigns a document type from the text, or
	// domain.DocTypeOther when nothing matches.
	ClassifyDocument(ctx context.Context, title, text string) (domain.DocType, error)

	// ExtractFields pulls structured key fields from a structured
	// document's text.
	ExtractFields(ctx context.Context, docType domain.DocType, text string) (map[string]any, error)

	// SummariseChunk produces a short sensitive-free summary of a chunk.
	SummariseChunk(ctx context.Context, text string) (string, error)

	// SummariseDiff describes the field changes between two versions in
	// one human-readable sentence.
	SummariseDiff(ctx context.Context, changes []domain.FieldChange) (string, error)
}
