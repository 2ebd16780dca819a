package driven

import (
	"context"

	"github.com/quarry-labs/quarry/internal/core/domain"
)

// PolicyStore persists policies, agents and the bindings between them.
type PolicyStore interface {
	InsertPolicy(ctx context.Context, policy *domain.Policy) error
	UpdatePolicy(ctx context.Context, policy *domain.Policy) error
	GetPolicy(ctx context.Context, id string) (*domain.Policy, error)

	InsertAgent(ctx context.Context, agent *domain.Agent) error
	GetAgent(ctx context.Context, id string) (*domain.Agent, error)

	// Bind attaches a policy to an agent. Binding twice is a no-op.
	Bind(ctx context.Context, agentID, policyID string) error

	// ActiveForAgent returns the agent's active policies ordered by
	// priority descending, ties broken by creation time.
	ActiveForAgent(ctx context.Context, agentID string) ([]*domain.Policy, error)
}
