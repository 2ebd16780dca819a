package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarry-labs/quarry/internal/core/domain"
)

func newTestPolicy(id, name string, priority int) *domain.Policy {
	return &domain.Policy{
		ID:       id,
		TenantID: "tenant-1",
		Name:     name,
		Priority: priority,
		Config: domain.PolicyConfig{
			Redaction: domain.RedactionRules{MaskPII: true},
		},
		Active: true,
	}
}

func TestPolicyStore_InsertAndGet(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	policy := newTestPolicy("pol-1", "mask-pii", 10)
	policy.Config.Visibility.ExcludeDocTypes = []string{"CONTRACT"}
	require.NoError(t, store.Policies().InsertPolicy(ctx, policy))

	got, err := store.Policies().GetPolicy(ctx, "pol-1")
	require.NoError(t, err)
	assert.Equal(t, "mask-pii", got.Name)
	assert.Equal(t, 10, got.Priority)
	assert.True(t, got.Active)
	assert.True(t, got.Config.Redaction.MaskPII)
	assert.Equal(t, []string{"CONTRACT"}, got.Config.Visibility.ExcludeDocTypes)
}

func TestPolicyStore_InsertRejectsInvalidConfig(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	policy := newTestPolicy("pol-1", "bad", 0)
	policy.Config.Visibility.IncludeDocTypes = []string{"SPREADSHEET"}

	err := store.Policies().InsertPolicy(ctx, policy)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = store.Policies().GetPolicy(ctx, "pol-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPolicyStore_UpdatePolicy(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	policy := newTestPolicy("pol-1", "mask-pii", 10)
	require.NoError(t, store.Policies().InsertPolicy(ctx, policy))

	policy.Active = false
	policy.Priority = 50
	policy.Config.Redaction.UseSummaries = true
	require.NoError(t, store.Policies().UpdatePolicy(ctx, policy))

	got, err := store.Policies().GetPolicy(ctx, "pol-1")
	require.NoError(t, err)
	assert.False(t, got.Active)
	assert.Equal(t, 50, got.Priority)
	assert.True(t, got.Config.Redaction.UseSummaries)
}

func TestPolicyStore_Agents(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	agent := &domain.Agent{ID: "agent-1", TenantID: "tenant-1", Name: "support-bot"}
	require.NoError(t, store.Policies().InsertAgent(ctx, agent))

	got, err := store.Policies().GetAgent(ctx, "agent-1")
	require.NoError(t, err)
	assert.Equal(t, "support-bot", got.Name)

	_, err = store.Policies().GetAgent(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPolicyStore_ActiveForAgentOrdering(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.Policies().InsertAgent(ctx, &domain.Agent{ID: "agent-1", TenantID: "tenant-1", Name: "bot"}))

	low := newTestPolicy("pol-low", "low", 1)
	high := newTestPolicy("pol-high", "high", 100)
	inactive := newTestPolicy("pol-off", "off", 200)
	inactive.Active = false
	unbound := newTestPolicy("pol-unbound", "unbound", 300)

	for _, p := range []*domain.Policy{low, high, inactive, unbound} {
		require.NoError(t, store.Policies().InsertPolicy(ctx, p))
	}
	for _, id := range []string{"pol-low", "pol-high", "pol-off"} {
		require.NoError(t, store.Policies().Bind(ctx, "agent-1", id))
	}

	active, err := store.Policies().ActiveForAgent(ctx, "agent-1")
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "pol-high", active[0].ID)
	assert.Equal(t, "pol-low", active[1].ID)
}

func TestPolicyStore_ActiveForAgentPriorityTies(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.Policies().InsertAgent(ctx, &domain.Agent{ID: "agent-1", TenantID: "tenant-1", Name: "bot"}))

	older := newTestPolicy("pol-older", "older", 10)
	older.CreatedAt = time.Now().UTC().Add(-time.Hour)
	newer := newTestPolicy("pol-newer", "newer", 10)

	require.NoError(t, store.Policies().InsertPolicy(ctx, older))
	require.NoError(t, store.Policies().InsertPolicy(ctx, newer))
	require.NoError(t, store.Policies().Bind(ctx, "agent-1", "pol-newer"))
	require.NoError(t, store.Policies().Bind(ctx, "agent-1", "pol-older"))

	active, err := store.Policies().ActiveForAgent(ctx, "agent-1")
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "pol-older", active[0].ID)
	assert.Equal(t, "pol-newer", active[1].ID)
}

func TestPolicyStore_BindTwiceIsNoOp(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.Policies().InsertAgent(ctx, &domain.Agent{ID: "agent-1", TenantID: "tenant-1", Name: "bot"}))
	require.NoError(t, store.Policies().InsertPolicy(ctx, newTestPolicy("pol-1", "p", 1)))

	require.NoError(t, store.Policies().Bind(ctx, "agent-1", "pol-1"))
	require.NoError(t, store.Policies().Bind(ctx, "agent-1", "pol-1"))

	active, err := store.Policies().ActiveForAgent(ctx, "agent-1")
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestPolicyStore_ActiveForAgentNoBindings(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.Policies().InsertAgent(ctx, &domain.Agent{ID: "agent-1", TenantID: "tenant-1", Name: "bot"}))

	active, err := store.Policies().ActiveForAgent(ctx, "agent-1")
	require.NoError(t, err)
	assert.Empty(t, active)
}
