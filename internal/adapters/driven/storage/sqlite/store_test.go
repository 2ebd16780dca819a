package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarry-labs/quarry/internal/core/domain"
	"github.com/quarry-labs/quarry/internal/core/ports/driven"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	// Create a temporary directory for the test database
	tempDir, err := os.MkdirTemp("", "quarry-test-*")
	require.NoError(t, err)

	// Create store in temp directory
	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NotNil(t, store)

	// Return cleanup function
	cleanup := func() {
		assert.NoError(t, store.Close())
		assert.NoError(t, os.RemoveAll(tempDir))
	}

	return store, cleanup
}

// createTestFile creates a share and file to satisfy foreign key constraints.
func createTestFile(t *testing.T, store *Store, fileID string) {
	t.Helper()
	ctx := context.Background()

	share := &domain.Share{
		ID:       "share-" + fileID,
		TenantID: "tenant-1",
		Name:     "Share " + fileID,
		RootPath: "/srv/shares/" + fileID,
	}
	require.NoError(t, store.Files().InsertShare(ctx, share))

	file := &domain.File{
		ID:           fileID,
		TenantID:     "tenant-1",
		ShareID:      share.ID,
		RelativePath: "docs/" + fileID + ".txt",
		Name:         fileID + ".txt",
		MIMEType:     "text/plain",
		ContentHash:  "hash-" + fileID,
	}
	require.NoError(t, store.Files().UpsertFile(ctx, file))
}

// createTestDocument creates a document to satisfy foreign key constraints.
func createTestDocument(t *testing.T, store *Store, docID, fileID string, version int) {
	t.Helper()
	ctx := context.Background()

	doc := &domain.Document{
		ID:            docID,
		TenantID:      "tenant-1",
		FileID:        fileID,
		Title:         "Test Document " + docID,
		MIMEType:      "text/plain",
		VersionNumber: version,
		ContentHash:   "hash-" + docID,
	}
	require.NoError(t, store.Documents().Insert(ctx, doc))
}

// ==================== Store Creation Tests ====================

func TestNewStore_Success(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "quarry-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NotNil(t, store)
	defer store.Close()

	// Verify database file was created
	dbPath := filepath.Join(tempDir, "quarry.db")
	assert.Equal(t, dbPath, store.Path())
	assert.FileExists(t, dbPath)

	// Verify database connection is working
	err = store.db.Ping()
	assert.NoError(t, err)
}

func TestNewStore_ErrorHandling(t *testing.T) {
	_, err := NewStore("/invalid\x00path")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "creating data directory")
}

func TestNewStore_MigrationsAreIdempotent(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "quarry-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Reopening runs migrate again against the same file.
	store, err = NewStore(tempDir)
	require.NoError(t, err)
	assert.NoError(t, store.Close())
}

// ==================== Job Store Tests ====================

func newTestJob(jobType domain.JobType) *domain.Job {
	return &domain.Job{
		ID:       uuid.New().String(),
		TenantID: "tenant-1",
		Type:     jobType,
		FileID:   "file-1",
		Status:   domain.JobPending,
	}
}

func TestJobStore_EnqueueAndGet(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	job := newTestJob(domain.JobTypeExtractContent)
	require.NoError(t, store.Jobs().Enqueue(ctx, job))

	got, err := store.Jobs().Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)
	assert.Equal(t, domain.JobTypeExtractContent, got.Type)
	assert.Equal(t, domain.JobPending, got.Status)
	assert.Equal(t, 0, got.Attempts)
	assert.Equal(t, "file-1", got.FileID)
}

func TestJobStore_GetNotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := store.Jobs().Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestJobStore_Claim(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	job := newTestJob(domain.JobTypeExtractContent)
	require.NoError(t, store.Jobs().Enqueue(ctx, job))

	claimed, err := store.Jobs().Claim(ctx, domain.JobTypeExtractContent, 3)
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, job.ID, claimed.ID)
	assert.Equal(t, domain.JobInProgress, claimed.Status)
	assert.Equal(t, 1, claimed.Attempts)

	// The job is no longer claimable.
	again, err := store.Jobs().Claim(ctx, domain.JobTypeExtractContent, 3)
	require.NoError(t, err)
	assert.Nil(t, again)
}

func TestJobStore_ClaimEmptyQueue(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	claimed, err := store.Jobs().Claim(context.Background(), domain.JobTypeExtractContent, 3)
	require.NoError(t, err)
	assert.Nil(t, claimed)
}

func TestJobStore_ClaimFiltersByType(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	job := newTestJob(domain.JobTypeEnrichChunks)
	require.NoError(t, store.Jobs().Enqueue(ctx, job))

	claimed, err := store.Jobs().Claim(ctx, domain.JobTypeExtractContent, 3)
	require.NoError(t, err)
	assert.Nil(t, claimed)
}

func TestJobStore_ClaimOldestFirst(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	first := newTestJob(domain.JobTypeExtractContent)
	first.CreatedAt = time.Now().UTC().Add(-time.Hour)
	require.NoError(t, store.Jobs().Enqueue(ctx, first))

	second := newTestJob(domain.JobTypeExtractContent)
	require.NoError(t, store.Jobs().Enqueue(ctx, second))

	claimed, err := store.Jobs().Claim(ctx, domain.JobTypeExtractContent, 3)
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, first.ID, claimed.ID)
}

func TestJobStore_ClaimRespectsMaxAttempts(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	job := newTestJob(domain.JobTypeExtractContent)
	job.Attempts = 3
	require.NoError(t, store.Jobs().Enqueue(ctx, job))

	claimed, err := store.Jobs().Claim(ctx, domain.JobTypeExtractContent, 3)
	require.NoError(t, err)
	assert.Nil(t, claimed)
}

func TestJobStore_ClaimIsExclusive(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	const jobCount = 10
	for i := 0; i < jobCount; i++ {
		require.NoError(t, store.Jobs().Enqueue(ctx, newTestJob(domain.JobTypeExtractContent)))
	}

	// Claim concurrently from several goroutines; every job must be
	// delivered exactly once.
	const workers = 4
	results := make(chan string, jobCount*workers)
	done := make(chan struct{})

	for w := 0; w < workers; w++ {
		go func() {
			for {
				job, err := store.Jobs().Claim(ctx, domain.JobTypeExtractContent, 3)
				if err != nil || job == nil {
					done <- struct{}{}
					return
				}
				results <- job.ID
			}
		}()
	}

	for w := 0; w < workers; w++ {
		<-done
	}
	close(results)

	seen := make(map[string]bool)
	for id := range results {
		assert.False(t, seen[id], "job %s claimed twice", id)
		seen[id] = true
	}
	assert.Len(t, seen, jobCount)
}

func TestJobStore_MarkSucceeded(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	job := newTestJob(domain.JobTypeExtractContent)
	require.NoError(t, store.Jobs().Enqueue(ctx, job))

	claimed, err := store.Jobs().Claim(ctx, domain.JobTypeExtractContent, 3)
	require.NoError(t, err)
	require.NoError(t, store.Jobs().MarkSucceeded(ctx, claimed))

	got, err := store.Jobs().Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobSucceeded, got.Status)
	assert.Empty(t, got.LastError)
}

func TestJobStore_MarkFailedKeepsMessageVerbatim(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	job := newTestJob(domain.JobTypeExtractContent)
	require.NoError(t, store.Jobs().Enqueue(ctx, job))

	claimed, err := store.Jobs().Claim(ctx, domain.JobTypeExtractContent, 3)
	require.NoError(t, err)

	message := `extracting file "a.txt": unsupported type`
	require.NoError(t, store.Jobs().MarkFailed(ctx, claimed, message))

	got, err := store.Jobs().Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobFailed, got.Status)
	assert.Equal(t, message, got.LastError)
}

// ==================== UnitOfWork Tests ====================

func TestExecute_CommitsOnSuccess(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	job := newTestJob(domain.JobTypeExtractContent)
	err := store.Execute(ctx, func(tx driven.Stores) error {
		return tx.Jobs().Enqueue(ctx, job)
	})
	require.NoError(t, err)

	got, err := store.Jobs().Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)
}

func TestExecute_RollsBackOnError(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	job := newTestJob(domain.JobTypeExtractContent)
	boom := assert.AnError

	err := store.Execute(ctx, func(tx driven.Stores) error {
		if err := tx.Jobs().Enqueue(ctx, job); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = store.Jobs().Get(ctx, job.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
