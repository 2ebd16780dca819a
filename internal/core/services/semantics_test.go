package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarry-labs/quarry/internal/core/domain"
)

func semanticsJob(docID string) *domain.Job {
	return &domain.Job{
		ID:         "job-" + docID,
		TenantID:   "tenant-1",
		Type:       domain.JobTypeExtractSemantics,
		DocumentID: docID,
	}
}

func TestSemanticsProcess_StoresExtractedFields(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	file := seedFile(t, store, "file-1", "sha256:v1")
	doc := seedDocument(t, store, "doc-1", file.ID, 1, domain.DocTypeContract)
	seedChunks(t, store, doc.ID, "This Agreement is between Acme Corp and Initech.")

	fields := map[string]any{
		"parties":        []any{"Acme Corp", "Initech"},
		"effective_date": "2026-01-01",
	}
	intelligence := &mockIntelligence{fields: fields}
	processor := NewSemanticsProcessor(intelligence)

	err := processor.Process(ctx, store, semanticsJob(doc.ID))
	require.NoError(t, err)

	updated, err := store.Documents().Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, fields, updated.StructuredFields)
	assert.Equal(t, 1, intelligence.extractCalls)
}

func TestSemanticsProcess_SkipsUnstructuredDocument(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	file := seedFile(t, store, "file-1", "sha256:v1")
	doc := seedDocument(t, store, "doc-1", file.ID, 1, domain.DocTypeOther)
	seedChunks(t, store, doc.ID, "Just notes.")

	intelligence := &mockIntelligence{fields: map[string]any{"parties": []any{"x"}}}
	processor := NewSemanticsProcessor(intelligence)

	err := processor.Process(ctx, store, semanticsJob(doc.ID))
	require.NoError(t, err)

	updated, err := store.Documents().Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Nil(t, updated.StructuredFields)
	assert.Equal(t, 0, intelligence.extractCalls)
}

func TestSemanticsProcess_ExtractErrorFailsJob(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	file := seedFile(t, store, "file-1", "sha256:v1")
	doc := seedDocument(t, store, "doc-1", file.ID, 1, domain.DocTypeRFC)
	seedChunks(t, store, doc.ID, "RFC body text.")

	processor := NewSemanticsProcessor(&mockIntelligence{extractErr: assert.AnError})
	err := processor.Process(ctx, store, semanticsJob(doc.ID))

	assert.ErrorIs(t, err, assert.AnError)
}

func TestSemanticsProcess_MissingDocumentReference(t *testing.T) {
	store := newTestStore(t)

	processor := NewSemanticsProcessor(&mockIntelligence{})
	err := processor.Process(context.Background(), store, &domain.Job{
		ID:       "job-1",
		TenantID: "tenant-1",
		Type:     domain.JobTypeExtractSemantics,
	})

	assert.ErrorIs(t, err, domain.ErrMissingReference)
}

func TestAssembleText_DropsOverlap(t *testing.T) {
	chunks := []*domain.Chunk{
		{Text: "abcdef", Start: 0, End: 6},
		{Text: "defghi", Start: 3, End: 9},
		{Text: "ghijkl", Start: 6, End: 12},
	}

	assert.Equal(t, "abcdefghijkl", assembleText(chunks))
}

func TestAssembleText_ContiguousChunks(t *testing.T) {
	chunks := []*domain.Chunk{
		{Text: "abc", Start: 0, End: 3},
		{Text: "def", Start: 3, End: 6},
	}

	assert.Equal(t, "abcdef", assembleText(chunks))
}

func TestAssembleText_Empty(t *testing.T) {
	assert.Equal(t, "", assembleText(nil))
}

func TestAssembleText_TrimmedChunkShorterThanOverlap(t *testing.T) {
	// Structure-aware splitting trims whitespace from a chunk's text while
	// keeping the untrimmed offsets, so a chunk can carry fewer characters
	// than its window overlaps with the previous chunk.
	chunks := []*domain.Chunk{
		{Text: "first section body", Start: 0, End: 1000},
		{Text: "tail", Start: 800, End: 1001},
	}

	assert.NotPanics(t, func() {
		assert.Equal(t, "first section body", assembleText(chunks))
	})
}
