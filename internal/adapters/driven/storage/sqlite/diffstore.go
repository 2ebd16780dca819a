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

// diffStore implements driven.DiffStore.
type diffStore struct {
	q queryer
}

var _ driven.DiffStore = (*diffStore)(nil)

// Insert stores a computed diff. Returns domain.ErrAlreadyExists when a
// diff for the same version pair is already cached, so concurrent
// computations collapse to one stored result.
func (s *diffStore) Insert(ctx context.Context, diff *domain.SemanticDiff) error {
	fieldJSON, err := json.Marshal(diff.FieldChanges)
	if err != nil {
		return fmt.Errorf("marshalling field changes: %w", err)
	}
	sectionJSON, err := json.Marshal(diff.SectionChanges)
	if err != nil {
		return fmt.Errorf("marshalling section changes: %w", err)
	}

	if diff.CreatedAt.IsZero() {
		diff.CreatedAt = time.Now().UTC()
	}

	_, err = s.q.ExecContext(ctx, `
		INSERT INTO semantic_diffs (from_version_id, to_version_id, field_changes, section_changes, summary, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, diff.FromVersionID, diff.ToVersionID, string(fieldJSON), string(sectionJSON),
		diff.Summary, diff.CreatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("inserting diff: %w", err)
	}
	return nil
}

// Get returns the cached diff for the version pair.
func (s *diffStore) Get(ctx context.Context, fromVersionID, toVersionID string) (*domain.SemanticDiff, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT from_version_id, to_version_id, field_changes, section_changes, summary, created_at
		FROM semantic_diffs WHERE from_version_id = ? AND to_version_id = ?
	`, fromVersionID, toVersionID)

	var diff domain.SemanticDiff
	var fieldJSON, sectionJSON sql.NullString
	var createdAt sql.NullTime
	if err := row.Scan(&diff.FromVersionID, &diff.ToVersionID, &fieldJSON,
		&sectionJSON, &diff.Summary, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning diff: %w", err)
	}

	if fieldJSON.Valid && fieldJSON.String != jsonNull {
		if err := json.Unmarshal([]byte(fieldJSON.String), &diff.FieldChanges); err != nil {
			return nil, fmt.Errorf("unmarshalling field changes: %w", err)
		}
	}
	if sectionJSON.Valid && sectionJSON.String != jsonNull {
		if err := json.Unmarshal([]byte(sectionJSON.String), &diff.SectionChanges); err != nil {
			return nil, fmt.Errorf("unmarshalling section changes: %w", err)
		}
	}
	if createdAt.Valid {
		diff.CreatedAt = createdAt.Time
	}

	return &diff, nil
}

// ==================== Interaction Store ====================

// interactionStore implements driven.InteractionStore.
type interactionStore struct {
	q queryer
}

var _ driven.InteractionStore = (*interactionStore)(nil)

// Insert appends an interaction to the audit log.
func (s *interactionStore) Insert(ctx context.Context, interaction *domain.Interaction) error {
	chunksJSON, err := json.Marshal(interaction.Chunks)
	if err != nil {
		return fmt.Errorf("marshalling interaction chunks: %w", err)
	}

	if interaction.CreatedAt.IsZero() {
		interaction.CreatedAt = time.Now().UTC()
	}

	_, err = s.q.ExecContext(ctx, `
		INSERT INTO interactions (id, tenant_id, agent_id, interaction_type, query, chunks, answer, latency_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, interaction.ID, interaction.TenantID, nullString(interaction.AgentID),
		interaction.Type, interaction.Query, string(chunksJSON),
		nullString(interaction.Answer), interaction.LatencyMS, interaction.CreatedAt)

	if err != nil {
		return fmt.Errorf("inserting interaction: %w", err)
	}
	return nil
}

// ByAgent returns the agent's interactions, newest first.
func (s *interactionStore) ByAgent(ctx context.Context, agentID string, limit int) ([]*domain.Interaction, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, tenant_id, agent_id, interaction_type, query, chunks, answer, latency_ms, created_at
		FROM interactions
		WHERE agent_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, agentID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying interactions: %w", err)
	}
	defer rows.Close()

	var interactions []*domain.Interaction //nolint:prealloc // size unknown from query
	for rows.Next() {
		var in domain.Interaction
		var agentID, query, chunksJSON, answer sql.NullString
		var createdAt sql.NullTime
		if err := rows.Scan(&in.ID, &in.TenantID, &agentID, &in.Type, &query,
			&chunksJSON, &answer, &in.LatencyMS, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning interaction: %w", err)
		}

		in.AgentID = agentID.String
		in.Query = query.String
		in.Answer = answer.String
		if chunksJSON.Valid && chunksJSON.String != jsonNull {
			if err := json.Unmarshal([]byte(chunksJSON.String), &in.Chunks); err != nil {
				return nil, fmt.Errorf("unmarshalling interaction chunks: %w", err)
			}
		}
		if createdAt.Valid {
			in.CreatedAt = createdAt.Time
		}

		interactions = append(interactions, &in)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating interactions: %w", err)
	}

	return interactions, nil
}
