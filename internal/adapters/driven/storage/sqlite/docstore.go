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

// documentStore implements driven.DocumentStore.
type documentStore struct {
	q queryer
}

var _ driven.DocumentStore = (*documentStore)(nil)

const documentColumns = `id, tenant_id, file_id, title, mime_type, size_bytes, doc_type,
	version_number, previous_version_id, content_hash, structured_fields, last_indexed_at, created_at`

// Insert stores a new document version.
func (s *documentStore) Insert(ctx context.Context, doc *domain.Document) error {
	fieldsJSON, err := marshalFields(doc.StructuredFields)
	if err != nil {
		return err
	}

	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	_, err = s.q.ExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, doc.ID, doc.TenantID, doc.FileID, doc.Title, doc.MIMEType, doc.SizeBytes,
		nullString(string(doc.DocType)), doc.VersionNumber, nullString(doc.PreviousVersionID),
		doc.ContentHash, fieldsJSON, nullTime(doc.LastIndexedAt), doc.CreatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("document version %d for file %s: %w",
				doc.VersionNumber, doc.FileID, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("inserting document: %w", err)
	}
	return nil
}

// Update rewrites the mutable document columns.
func (s *documentStore) Update(ctx context.Context, doc *domain.Document) error {
	fieldsJSON, err := marshalFields(doc.StructuredFields)
	if err != nil {
		return err
	}

	_, err = s.q.ExecContext(ctx, `
		UPDATE documents
		SET title = ?, mime_type = ?, size_bytes = ?, doc_type = ?, content_hash = ?,
			structured_fields = ?, last_indexed_at = ?
		WHERE id = ?
	`, doc.Title, doc.MIMEType, doc.SizeBytes, nullString(string(doc.DocType)),
		doc.ContentHash, fieldsJSON, nullTime(doc.LastIndexedAt), doc.ID)

	if err != nil {
		return fmt.Errorf("updating document: %w", err)
	}
	return nil
}

// Get retrieves a document by ID.
func (s *documentStore) Get(ctx context.Context, id string) (*domain.Document, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)

	return scanDocument(row)
}

// LatestByFile returns the highest-version document for a file.
func (s *documentStore) LatestByFile(ctx context.Context, fileID string) (*domain.Document, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT `+documentColumns+` FROM documents
		WHERE file_id = ?
		ORDER BY version_number DESC
		LIMIT 1
	`, fileID)

	return scanDocument(row)
}

// ReplaceChunks deletes all chunks for the document and inserts the given
// set.
func (s *documentStore) ReplaceChunks(ctx context.Context, documentID string, chunks []*domain.Chunk) error {
	if _, err := s.q.ExecContext(ctx,
		"DELETE FROM chunks WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}

	for _, chunk := range chunks {
		pathJSON, err := marshalSectionPath(chunk.SectionPath)
		if err != nil {
			return err
		}

		if _, err := s.q.ExecContext(ctx, `
			INSERT INTO chunks (id, tenant_id, document_id, chunk_index, text, char_start, char_end, section_path, redacted_text, summary_text)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, chunk.ID, chunk.TenantID, chunk.DocumentID, chunk.Index, chunk.Text,
			chunk.Start, chunk.End, pathJSON,
			nullString(chunk.RedactedText), nullString(chunk.SummaryText)); err != nil {
			return fmt.Errorf("inserting chunk: %w", err)
		}
	}

	return nil
}

const chunkColumns = `id, tenant_id, document_id, chunk_index, text, char_start, char_end,
	section_path, redacted_text, summary_text`

// Chunks retrieves all chunks for a document in index order.
func (s *documentStore) Chunks(ctx context.Context, documentID string) ([]*domain.Chunk, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT `+chunkColumns+` FROM chunks
		WHERE document_id = ?
		ORDER BY chunk_index
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	return scanChunkRows(rows)
}

// GetChunk retrieves a specific chunk by ID.
func (s *documentStore) GetChunk(ctx context.Context, id string) (*domain.Chunk, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+chunkColumns+` FROM chunks WHERE id = ?`, id)

	return scanChunk(row)
}

// UpdateChunkEnrichment sets the redacted and summary texts.
func (s *documentStore) UpdateChunkEnrichment(ctx context.Context, chunk *domain.Chunk) error {
	_, err := s.q.ExecContext(ctx, `
		UPDATE chunks SET redacted_text = ?, summary_text = ? WHERE id = ?
	`, nullString(chunk.RedactedText), nullString(chunk.SummaryText), chunk.ID)
	if err != nil {
		return fmt.Errorf("updating chunk enrichment: %w", err)
	}
	return nil
}

// SearchChunks returns chunks whose text matches the query, newest document
// versions first.
func (s *documentStore) SearchChunks(ctx context.Context, tenantID, query string, limit int) ([]*domain.Chunk, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT c.id, c.tenant_id, c.document_id, c.chunk_index, c.text, c.char_start, c.char_end,
			c.section_path, c.redacted_text, c.summary_text
		FROM chunks c
		JOIN documents d ON d.id = c.document_id
		WHERE c.tenant_id = ? AND c.text LIKE '%' || ? || '%'
		ORDER BY d.version_number DESC, d.created_at DESC, c.chunk_index
		LIMIT ?
	`, tenantID, query, limit)
	if err != nil {
		return nil, fmt.Errorf("searching chunks: %w", err)
	}
	defer rows.Close()

	return scanChunkRows(rows)
}

// ==================== Finding Store ====================

// findingStore implements driven.FindingStore.
type findingStore struct {
	q queryer
}

var _ driven.FindingStore = (*findingStore)(nil)

// Replace deletes existing findings for the document and inserts the given
// set.
func (s *findingStore) Replace(ctx context.Context, documentID string, findings []*domain.SensitivityFinding) error {
	if _, err := s.q.ExecContext(ctx,
		"DELETE FROM sensitivity_findings WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("deleting findings: %w", err)
	}

	for _, f := range findings {
		if _, err := s.q.ExecContext(ctx, `
			INSERT INTO sensitivity_findings (id, tenant_id, document_id, chunk_id, sensitivity_type, sensitivity_level, snippet)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, f.ID, f.TenantID, f.DocumentID, nullString(f.ChunkID),
			string(f.Type), string(f.Level), f.Snippet); err != nil {
			return fmt.Errorf("inserting finding: %w", err)
		}
	}

	return nil
}

// ByDocument returns the document's findings.
func (s *findingStore) ByDocument(ctx context.Context, documentID string) ([]*domain.SensitivityFinding, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, tenant_id, document_id, chunk_id, sensitivity_type, sensitivity_level, snippet
		FROM sensitivity_findings WHERE document_id = ?
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying findings: %w", err)
	}
	defer rows.Close()

	var findings []*domain.SensitivityFinding //nolint:prealloc // size unknown from query
	for rows.Next() {
		var f domain.SensitivityFinding
		var chunkID sql.NullString
		var typ, level string
		if err := rows.Scan(&f.ID, &f.TenantID, &f.DocumentID, &chunkID,
			&typ, &level, &f.Snippet); err != nil {
			return nil, fmt.Errorf("scanning finding: %w", err)
		}
		f.ChunkID = chunkID.String
		f.Type = domain.SensitivityType(typ)
		f.Level = domain.SensitivityLevel(level)
		findings = append(findings, &f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating findings: %w", err)
	}

	return findings, nil
}

// ==================== Exposure Store ====================

// exposureStore implements driven.ExposureStore.
type exposureStore struct {
	q queryer
}

var _ driven.ExposureStore = (*exposureStore)(nil)

// Upsert inserts or overwrites the exposure for the document.
func (s *exposureStore) Upsert(ctx context.Context, exposure *domain.DocumentExposure) error {
	summaryJSON, err := json.Marshal(exposure.Summary)
	if err != nil {
		return fmt.Errorf("marshalling access summary: %w", err)
	}

	_, err = s.q.ExecContext(ctx, `
		INSERT INTO document_exposure (id, tenant_id, document_id, exposure_level, exposure_score, access_summary)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(document_id) DO UPDATE SET
			exposure_level = excluded.exposure_level,
			exposure_score = excluded.exposure_score,
			access_summary = excluded.access_summary
	`, exposure.ID, exposure.TenantID, exposure.DocumentID,
		string(exposure.Level), exposure.Score, string(summaryJSON))

	if err != nil {
		return fmt.Errorf("upserting exposure: %w", err)
	}
	return nil
}

// ByDocument returns the exposure for the document.
func (s *exposureStore) ByDocument(ctx context.Context, documentID string) (*domain.DocumentExposure, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT id, tenant_id, document_id, exposure_level, exposure_score, access_summary
		FROM document_exposure WHERE document_id = ?
	`, documentID)

	var e domain.DocumentExposure
	var level string
	var summaryJSON sql.NullString
	if err := row.Scan(&e.ID, &e.TenantID, &e.DocumentID, &level, &e.Score, &summaryJSON); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning exposure: %w", err)
	}

	e.Level = domain.ExposureLevel(level)
	if summaryJSON.Valid && summaryJSON.String != jsonNull {
		if err := json.Unmarshal([]byte(summaryJSON.String), &e.Summary); err != nil {
			return nil, fmt.Errorf("unmarshalling access summary: %w", err)
		}
	}

	return &e, nil
}

// ==================== Helper Functions ====================

// marshalFields encodes structured fields as JSON, nil maps as NULL.
func marshalFields(fields map[string]any) (any, error) {
	if fields == nil {
		return nil, nil
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("marshalling structured fields: %w", err)
	}
	return string(data), nil
}

// marshalSectionPath encodes a section path as JSON, nil paths as NULL.
func marshalSectionPath(path []string) (any, error) {
	if path == nil {
		return nil, nil
	}
	data, err := json.Marshal(path)
	if err != nil {
		return nil, fmt.Errorf("marshalling section path: %w", err)
	}
	return string(data), nil
}

// nullTime returns nil for zero times, otherwise the time.
func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

// scanDocument scans a single document row.
func scanDocument(row *sql.Row) (*domain.Document, error) {
	var doc domain.Document
	var docType, previousVersionID, fieldsJSON sql.NullString
	var lastIndexedAt, createdAt sql.NullTime

	if err := row.Scan(&doc.ID, &doc.TenantID, &doc.FileID, &doc.Title, &doc.MIMEType,
		&doc.SizeBytes, &docType, &doc.VersionNumber, &previousVersionID,
		&doc.ContentHash, &fieldsJSON, &lastIndexedAt, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.DocType = domain.DocType(docType.String)
	doc.PreviousVersionID = previousVersionID.String
	if fieldsJSON.Valid && fieldsJSON.String != jsonNull {
		if err := json.Unmarshal([]byte(fieldsJSON.String), &doc.StructuredFields); err != nil {
			return nil, fmt.Errorf("unmarshalling structured fields: %w", err)
		}
	}
	if lastIndexedAt.Valid {
		doc.LastIndexedAt = lastIndexedAt.Time
	}
	if createdAt.Valid {
		doc.CreatedAt = createdAt.Time
	}

	return &doc, nil
}

// scanChunk scans a chunk from *sql.Row.
func scanChunk(row *sql.Row) (*domain.Chunk, error) {
	var chunk domain.Chunk
	var pathJSON, redacted, summary sql.NullString

	if err := row.Scan(&chunk.ID, &chunk.TenantID, &chunk.DocumentID, &chunk.Index,
		&chunk.Text, &chunk.Start, &chunk.End, &pathJSON, &redacted, &summary); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}

	if pathJSON.Valid && pathJSON.String != jsonNull {
		if err := json.Unmarshal([]byte(pathJSON.String), &chunk.SectionPath); err != nil {
			return nil, fmt.Errorf("unmarshalling section path: %w", err)
		}
	}
	chunk.RedactedText = redacted.String
	chunk.SummaryText = summary.String

	return &chunk, nil
}

// scanChunkRows scans all chunks from *sql.Rows.
func scanChunkRows(rows *sql.Rows) ([]*domain.Chunk, error) {
	var chunks []*domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		var chunk domain.Chunk
		var pathJSON, redacted, summary sql.NullString
		if err := rows.Scan(&chunk.ID, &chunk.TenantID, &chunk.DocumentID, &chunk.Index,
			&chunk.Text, &chunk.Start, &chunk.End, &pathJSON, &redacted, &summary); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}

		if pathJSON.Valid && pathJSON.String != jsonNull {
			if err := json.Unmarshal([]byte(pathJSON.String), &chunk.SectionPath); err != nil {
				return nil, fmt.Errorf("unmarshalling section path: %w", err)
			}
		}
		chunk.RedactedText = redacted.String
		chunk.SummaryText = summary.String
		chunks = append(chunks, &chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return chunks, nil
}
