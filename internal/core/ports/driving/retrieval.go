package driving

import (
	"context"

	"github.com/quarry-labs/quarry/internal/core/domain"
)

// RetrievalService answers agent queries over indexed chunks, applying the
// agent's policies to every candidate before anything is returned.
type RetrievalService interface {
	// Retrieve returns the policy-filtered chunks matching the query and
	// records the interaction in the audit log.
	Retrieve(ctx context.Context, agentID, query string, limit int) (*domain.Interaction, error)
}

// DiffService computes and caches semantic diffs between document versions.
type DiffService interface {
	// Diff returns the semantic diff between two versions of the same
	// document, computing and caching it on first request.
	Diff(ctx context.Context, fromVersionID, toVersionID string) (*domain.SemanticDiff, error)
}
