package services

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quarry-labs/quarry/internal/adapters/driven/storage/sqlite"
	"github.com/quarry-labs/quarry/internal/core/domain"
	"github.com/quarry-labs/quarry/internal/core/ports/driven"
)

// --- Shared fixtures ---

// newTestStore creates a temporary SQLite store for service tests.
func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	dir, err := os.MkdirTemp("", "quarry-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	store, err := sqlite.NewStore(dir)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

// seedFile inserts a share and a file with the given content hash and
// returns the file.
func seedFile(t *testing.T, store driven.Stores, fileID, contentHash string) *domain.File {
	t.Helper()
	ctx := context.Background()

	share := &domain.Share{
		ID:       "share-" + fileID,
		TenantID: "tenant-1",
		Name:     "share-" + fileID,
		RootPath: "/srv/shares/" + fileID,
	}
	require.NoError(t, store.Files().InsertShare(ctx, share))

	file := &domain.File{
		ID:           fileID,
		TenantID:     "tenant-1",
		ShareID:      share.ID,
		RelativePath: "docs/" + fileID + ".txt",
		Name:         fileID + ".txt",
		SizeBytes:    42,
		MIMEType:     "text/plain",
		ContentHash:  contentHash,
	}
	require.NoError(t, store.Files().UpsertFile(ctx, file))
	return file
}

// seedDocument inserts a document version for the file.
func seedDocument(t *testing.T, store driven.Stores, docID, fileID string, version int, docType domain.DocType) *domain.Document {
	t.Helper()

	doc := &domain.Document{
		ID:            docID,
		TenantID:      "tenant-1",
		FileID:        fileID,
		Title:         "Document " + docID,
		MIMEType:      "text/plain",
		DocType:       docType,
		VersionNumber: version,
		ContentHash:   fmt.Sprintf("sha256:%s-v%d", fileID, version),
	}
	require.NoError(t, store.Documents().Insert(context.Background(), doc))
	return doc
}

// --- Mock implementations ---

// mockIntelligence implements driven.Intelligence with canned responses and
// call counters.
type mockIntelligence struct {
	docType domain.DocType
	fields  map[string]any
	summary string

	classifyErr  error
	extractErr   error
	summariseErr error

	classifyCalls  int
	extractCalls   int
	summariseCalls int
	diffCalls      int
}

var _ driven.Intelligence = (*mockIntelligence)(nil)

func (m *mockIntelligence) ClassifyDocument(_ context.Context, _, _ string) (domain.DocType, error) {
	m.classifyCalls++
	if m.classifyErr != nil {
		return "", m.classifyErr
	}
	if m.docType == "" {
		return domain.DocTypeOther, nil
	}
	return m.docType, nil
}

func (m *mockIntelligence) ExtractFields(_ context.Context, _ domain.DocType, _ string) (map[string]any, error) {
	m.extractCalls++
	if m.extractErr != nil {
		return nil, m.extractErr
	}
	return m.fields, nil
}

func (m *mockIntelligence) SummariseChunk(_ context.Context, _ string) (string, error) {
	m.summariseCalls++
	if m.summariseErr != nil {
		return "", m.summariseErr
	}
	if m.summary == "" {
		return "a summary", nil
	}
	return m.summary, nil
}

func (m *mockIntelligence) SummariseDiff(_ context.Context, changes []domain.FieldChange) (string, error) {
	m.diffCalls++
	return fmt.Sprintf("%d change(s)", len(changes)), nil
}

// mockProvider implements driven.FileContentProvider from a path-keyed map.
type mockProvider struct {
	content map[string][]byte
	err     error
}

var _ driven.FileContentProvider = (*mockProvider)(nil)

func (m *mockProvider) Read(_ context.Context, _ *domain.Share, file *domain.File) ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	content, ok := m.content[file.RelativePath]
	if !ok {
		return nil, fmt.Errorf("reading %q: %w", file.RelativePath, domain.ErrNotFound)
	}
	return content, nil
}

// mockExtractor implements driven.Extractor, returning the content verbatim.
type mockExtractor struct {
	title string
	err   error
}

var _ driven.Extractor = (*mockExtractor)(nil)

func (m *mockExtractor) MIMETypes() []string { return []string{"text/plain"} }

func (m *mockExtractor) Extract(_ context.Context, content []byte) (*driven.ExtractResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &driven.ExtractResult{Title: m.title, Text: string(content)}, nil
}

// mockRegistry implements driven.ExtractorRegistry over one extractor.
type mockRegistry struct {
	extractor driven.Extractor
	err       error
}

var _ driven.ExtractorRegistry = (*mockRegistry)(nil)

func (m *mockRegistry) Resolve(_, _ string) (driven.Extractor, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.extractor, nil
}
