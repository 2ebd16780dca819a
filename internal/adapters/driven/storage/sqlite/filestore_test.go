package sqlite

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarry-labs/quarry/internal/core/domain"
)

func TestFileStore_InsertShareAndGet(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	share := &domain.Share{
		ID:       "share-1",
		TenantID: "tenant-1",
		Name:     "Engineering",
		RootPath: "/srv/shares/engineering",
	}
	require.NoError(t, store.Files().InsertShare(ctx, share))

	got, err := store.Files().GetShare(ctx, "share-1")
	require.NoError(t, err)
	assert.Equal(t, "Engineering", got.Name)
	assert.Equal(t, "/srv/shares/engineering", got.RootPath)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestFileStore_InsertShareDuplicateName(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	share := &domain.Share{ID: "share-1", TenantID: "tenant-1", Name: "Engineering", RootPath: "/a"}
	require.NoError(t, store.Files().InsertShare(ctx, share))

	dup := &domain.Share{ID: "share-2", TenantID: "tenant-1", Name: "Engineering", RootPath: "/b"}
	err := store.Files().InsertShare(ctx, dup)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	// Same name under a different tenant is fine.
	other := &domain.Share{ID: "share-3", TenantID: "tenant-2", Name: "Engineering", RootPath: "/c"}
	assert.NoError(t, store.Files().InsertShare(ctx, other))
}

func TestFileStore_ShareByName(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	share := &domain.Share{ID: "share-1", TenantID: "tenant-1", Name: "Legal", RootPath: "/srv/legal"}
	require.NoError(t, store.Files().InsertShare(ctx, share))

	got, err := store.Files().ShareByName(ctx, "tenant-1", "Legal")
	require.NoError(t, err)
	assert.Equal(t, "share-1", got.ID)

	_, err = store.Files().ShareByName(ctx, "tenant-2", "Legal")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFileStore_UpsertFile(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	share := &domain.Share{ID: "share-1", TenantID: "tenant-1", Name: "Legal", RootPath: "/srv/legal"}
	require.NoError(t, store.Files().InsertShare(ctx, share))

	file := &domain.File{
		ID:           "file-1",
		TenantID:     "tenant-1",
		ShareID:      "share-1",
		RelativePath: "contracts/msa.docx",
		Name:         "msa.docx",
		SizeBytes:    4096,
		MIMEType:     "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		ContentHash:  "h1",
	}
	require.NoError(t, store.Files().UpsertFile(ctx, file))

	// Upserting the same path updates the hash in place.
	changed := *file
	changed.ContentHash = "h2"
	changed.SizeBytes = 8192
	require.NoError(t, store.Files().UpsertFile(ctx, &changed))

	got, err := store.Files().FileByPath(ctx, "share-1", "contracts/msa.docx")
	require.NoError(t, err)
	assert.Equal(t, "file-1", got.ID)
	assert.Equal(t, "h2", got.ContentHash)
	assert.Equal(t, int64(8192), got.SizeBytes)
}

func TestFileStore_GetFileNotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := store.Files().GetFile(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func newTestPrincipal(id string, ptype domain.PrincipalType, name string) *domain.Principal {
	return &domain.Principal{
		ID:          id,
		TenantID:    "tenant-1",
		Type:        ptype,
		DisplayName: name,
	}
}

func TestAccessStore_GrantAndReaders(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	createTestFile(t, store, "file-1")

	alice := newTestPrincipal("p-alice", domain.PrincipalUser, "Alice")
	everyone := newTestPrincipal("p-everyone", domain.PrincipalGroup, "Everyone")
	bob := newTestPrincipal("p-bob", domain.PrincipalUser, "Bob")
	for _, p := range []*domain.Principal{alice, everyone, bob} {
		require.NoError(t, store.Access().UpsertPrincipal(ctx, p))
	}

	grant := func(principalID string, canRead bool) {
		require.NoError(t, store.Access().Grant(ctx, &domain.FileAccess{
			ID:          uuid.New().String(),
			TenantID:    "tenant-1",
			FileID:      "file-1",
			PrincipalID: principalID,
			CanRead:     canRead,
		}))
	}
	grant("p-alice", true)
	grant("p-everyone", true)
	grant("p-bob", false)

	readers, err := store.Access().Readers(ctx, "file-1")
	require.NoError(t, err)
	require.Len(t, readers, 2)

	names := make(map[string]bool)
	for _, r := range readers {
		names[r.DisplayName] = true
	}
	assert.True(t, names["Alice"])
	assert.True(t, names["Everyone"])
	assert.False(t, names["Bob"])
}

func TestAccessStore_GrantTwiceUpdatesCanRead(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	createTestFile(t, store, "file-1")
	require.NoError(t, store.Access().UpsertPrincipal(ctx, newTestPrincipal("p-1", domain.PrincipalUser, "Alice")))

	access := &domain.FileAccess{
		ID:          uuid.New().String(),
		TenantID:    "tenant-1",
		FileID:      "file-1",
		PrincipalID: "p-1",
		CanRead:     true,
	}
	require.NoError(t, store.Access().Grant(ctx, access))

	// Revoking replaces the earlier grant for the same pair.
	access.ID = uuid.New().String()
	access.CanRead = false
	require.NoError(t, store.Access().Grant(ctx, access))

	readers, err := store.Access().Readers(ctx, "file-1")
	require.NoError(t, err)
	assert.Empty(t, readers)
}

func TestAccessStore_GetPrincipal(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.Access().UpsertPrincipal(ctx, newTestPrincipal("p-1", domain.PrincipalService, "Indexer")))

	got, err := store.Access().GetPrincipal(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, domain.PrincipalService, got.Type)
	assert.Equal(t, "Indexer", got.DisplayName)

	_, err = store.Access().GetPrincipal(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
