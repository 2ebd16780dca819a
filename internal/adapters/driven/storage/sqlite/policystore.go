package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/quarry-labs/quarry/internal/core/domain"
	"github.com/quarry-labs/quarry/internal/core/ports/driven"
)

// policyStore implements driven.PolicyStore.
type policyStore struct {
	q queryer
}

var _ driven.PolicyStore = (*policyStore)(nil)

// InsertPolicy stores a new policy. The config is validated before it is
// persisted, so evaluation never sees a malformed policy.
func (s *policyStore) InsertPolicy(ctx context.Context, policy *domain.Policy) error {
	if err := policy.Config.Validate(); err != nil {
		return err
	}

	configJSON, err := json.Marshal(policy.Config)
	if err != nil {
		return fmt.Errorf("marshalling policy config: %w", err)
	}

	now := time.Now().UTC()
	if policy.CreatedAt.IsZero() {
		policy.CreatedAt = now
	}
	policy.UpdatedAt = now

	_, err = s.q.ExecContext(ctx, `
		INSERT INTO policies (id, tenant_id, name, priority, config, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, policy.ID, policy.TenantID, policy.Name, policy.Priority,
		string(configJSON), policy.Active, policy.CreatedAt, policy.UpdatedAt)

	if err != nil {
		return fmt.Errorf("inserting policy: %w", err)
	}
	return nil
}

// UpdatePolicy rewrites a policy.
func (s *policyStore) UpdatePolicy(ctx context.Context, policy *domain.Policy) error {
	if err := policy.Config.Validate(); err != nil {
		return err
	}

	configJSON, err := json.Marshal(policy.Config)
	if err != nil {
		return fmt.Errorf("marshalling policy config: %w", err)
	}

	policy.UpdatedAt = time.Now().UTC()

	_, err = s.q.ExecContext(ctx, `
		UPDATE policies
		SET name = ?, priority = ?, config = ?, is_active = ?, updated_at = ?
		WHERE id = ?
	`, policy.Name, policy.Priority, string(configJSON), policy.Active,
		policy.UpdatedAt, policy.ID)

	if err != nil {
		return fmt.Errorf("updating policy: %w", err)
	}
	return nil
}

// GetPolicy retrieves a policy by ID.
func (s *policyStore) GetPolicy(ctx context.Context, id string) (*domain.Policy, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT id, tenant_id, name, priority, config, is_active, created_at, updated_at
		FROM policies WHERE id = ?
	`, id)

	var policy domain.Policy
	var configJSON string
	var createdAt, updatedAt sql.NullTime
	if err := row.Scan(&policy.ID, &policy.TenantID, &policy.Name, &policy.Priority,
		&configJSON, &policy.Active, &createdAt, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning policy: %w", err)
	}

	if err := json.Unmarshal([]byte(configJSON), &policy.Config); err != nil {
		return nil, fmt.Errorf("unmarshalling policy config: %w", err)
	}
	if createdAt.Valid {
		policy.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		policy.UpdatedAt = updatedAt.Time
	}

	return &policy, nil
}

// InsertAgent stores a new agent.
func (s *policyStore) InsertAgent(ctx context.Context, agent *domain.Agent) error {
	if agent.CreatedAt.IsZero() {
		agent.CreatedAt = time.Now().UTC()
	}

	_, err := s.q.ExecContext(ctx, `
		INSERT INTO agents (id, tenant_id, name, created_at)
		VALUES (?, ?, ?, ?)
	`, agent.ID, agent.TenantID, agent.Name, agent.CreatedAt)

	if err != nil {
		return fmt.Errorf("inserting agent: %w", err)
	}
	return nil
}

// GetAgent retrieves an agent by ID.
func (s *policyStore) GetAgent(ctx context.Context, id string) (*domain.Agent, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT id, tenant_id, name, created_at
		FROM agents WHERE id = ?
	`, id)

	var agent domain.Agent
	var createdAt sql.NullTime
	if err := row.Scan(&agent.ID, &agent.TenantID, &agent.Name, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning agent: %w", err)
	}
	if createdAt.Valid {
		agent.CreatedAt = createdAt.Time
	}

	return &agent, nil
}

// Bind attaches a policy to an agent; binding twice is a no-op.
func (s *policyStore) Bind(ctx context.Context, agentID, policyID string) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO agent_policies (agent_id, policy_id)
		VALUES (?, ?)
		ON CONFLICT(agent_id, policy_id) DO NOTHING
	`, agentID, policyID)

	if err != nil {
		return fmt.Errorf("binding policy: %w", err)
	}
	return nil
}

// ActiveForAgent returns the agent's active policies ordered by priority
// descending, ties broken by creation time.
func (s *policyStore) ActiveForAgent(ctx context.Context, agentID string) ([]*domain.Policy, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT p.id, p.tenant_id, p.name, p.priority, p.config, p.is_active, p.created_at, p.updated_at
		FROM policies p
		JOIN agent_policies ap ON ap.policy_id = p.id
		WHERE ap.agent_id = ? AND p.is_active = 1
		ORDER BY p.priority DESC, p.created_at
	`, agentID)
	if err != nil {
		return nil, fmt.Errorf("querying agent policies: %w", err)
	}
	defer rows.Close()

	var policies []*domain.Policy //nolint:prealloc // size unknown from query
	for rows.Next() {
		var policy domain.Policy
		var configJSON string
		var createdAt, updatedAt sql.NullTime
		if err := rows.Scan(&policy.ID, &policy.TenantID, &policy.Name, &policy.Priority,
			&configJSON, &policy.Active, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning policy: %w", err)
		}

		if err := json.Unmarshal([]byte(configJSON), &policy.Config); err != nil {
			return nil, fmt.Errorf("unmarshalling policy config: %w", err)
		}
		if createdAt.Valid {
			policy.CreatedAt = createdAt.Time
		}
		if updatedAt.Valid {
			policy.UpdatedAt = updatedAt.Time
		}

		policies = append(policies, &policy)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating policies: %w", err)
	}

	return policies, nil
}
