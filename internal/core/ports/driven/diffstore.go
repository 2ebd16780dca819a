package driven

import (
	"context"

	"github.com/quarry-labs/quarry/internal/core/domain"
)

// DiffStore caches computed semantic diffs keyed by version pair.
type DiffStore interface {
	// Insert stores a diff. It returns domain.ErrAlreadyExists when a diff
	// for the same (from, to) pair is already cached, so concurrent
	// computations of the same pair collapse to a single stored result.
	Insert(ctx context.Context, diff *domain.SemanticDiff) error

	// Get returns the cached diff for the version pair, or
	// domain.ErrNotFound.
	Get(ctx context.Context, fromVersionID, toVersionID string) (*domain.SemanticDiff, error)
}

// InteractionStore persists the audit log of agent retrievals and answers.
type InteractionStore interface {
	Insert(ctx context.Context, interaction *domain.Interaction) error

	// ByAgent returns the agent's interactions, newest first, capped at
	// limit.
	ByAgent(ctx context.Context, agentID string, limit int) ([]*domain.Interaction, error)
}
