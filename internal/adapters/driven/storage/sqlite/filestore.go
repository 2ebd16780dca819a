package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/quarry-labs/quarry/internal/core/domain"
	"github.com/quarry-labs/quarry/internal/core/ports/driven"
)

// fileStore implements driven.FileStore.
type fileStore struct {
	q queryer
}

var _ driven.FileStore = (*fileStore)(nil)

// InsertShare stores a new share.
func (s *fileStore) InsertShare(ctx context.Context, share *domain.Share) error {
	if share.CreatedAt.IsZero() {
		share.CreatedAt = time.Now().UTC()
	}

	_, err := s.q.ExecContext(ctx, `
		INSERT INTO shares (id, tenant_id, name, root_path, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, share.ID, share.TenantID, share.Name, share.RootPath, share.CreatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("inserting share: %w", err)
	}
	return nil
}

// GetShare retrieves a share by ID.
func (s *fileStore) GetShare(ctx context.Context, id string) (*domain.Share, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT id, tenant_id, name, root_path, created_at
		FROM shares WHERE id = ?
	`, id)

	return scanShare(row)
}

// ShareByName retrieves a tenant's share by name.
func (s *fileStore) ShareByName(ctx context.Context, tenantID, name string) (*domain.Share, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT id, tenant_id, name, root_path, created_at
		FROM shares WHERE tenant_id = ? AND name = ?
	`, tenantID, name)

	return scanShare(row)
}

// UpsertFile stores or updates a file record, keyed by (share, path).
func (s *fileStore) UpsertFile(ctx context.Context, file *domain.File) error {
	now := time.Now().UTC()
	if file.CreatedAt.IsZero() {
		file.CreatedAt = now
	}
	file.UpdatedAt = now

	_, err := s.q.ExecContext(ctx, `
		INSERT INTO files (id, tenant_id, share_id, relative_path, name, size_bytes, mime_type, content_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(share_id, relative_path) DO UPDATE SET
			name = excluded.name,
			size_bytes = excluded.size_bytes,
			mime_type = excluded.mime_type,
			content_hash = excluded.content_hash,
			updated_at = excluded.updated_at
	`, file.ID, file.TenantID, file.ShareID, file.RelativePath, file.Name,
		file.SizeBytes, file.MIMEType, file.ContentHash, file.CreatedAt, file.UpdatedAt)

	if err != nil {
		return fmt.Errorf("upserting file: %w", err)
	}
	return nil
}

// GetFile retrieves a file by ID.
func (s *fileStore) GetFile(ctx context.Context, id string) (*domain.File, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT id, tenant_id, share_id, relative_path, name, size_bytes, mime_type, content_hash, created_at, updated_at
		FROM files WHERE id = ?
	`, id)

	return scanFile(row)
}

// FileByPath retrieves a file by its share and relative path.
func (s *fileStore) FileByPath(ctx context.Context, shareID, relativePath string) (*domain.File, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT id, tenant_id, share_id, relative_path, name, size_bytes, mime_type, content_hash, created_at, updated_at
		FROM files WHERE share_id = ? AND relative_path = ?
	`, shareID, relativePath)

	return scanFile(row)
}

// scanShare scans a single share row.
func scanShare(row *sql.Row) (*domain.Share, error) {
	var share domain.Share
	var createdAt sql.NullTime
	if err := row.Scan(&share.ID, &share.TenantID, &share.Name, &share.RootPath, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning share: %w", err)
	}
	if createdAt.Valid {
		share.CreatedAt = createdAt.Time
	}
	return &share, nil
}

// scanFile scans a single file row.
func scanFile(row *sql.Row) (*domain.File, error) {
	var file domain.File
	var createdAt, updatedAt sql.NullTime
	if err := row.Scan(&file.ID, &file.TenantID, &file.ShareID, &file.RelativePath,
		&file.Name, &file.SizeBytes, &file.MIMEType, &file.ContentHash,
		&createdAt, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning file: %w", err)
	}
	if createdAt.Valid {
		file.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		file.UpdatedAt = updatedAt.Time
	}
	return &file, nil
}

// ==================== Access Store ====================

// accessStore implements driven.AccessStore.
type accessStore struct {
	q queryer
}

var _ driven.AccessStore = (*accessStore)(nil)

// UpsertPrincipal stores or updates a principal.
func (s *accessStore) UpsertPrincipal(ctx context.Context, principal *domain.Principal) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO principals (id, tenant_id, principal_type, display_name)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			principal_type = excluded.principal_type,
			display_name = excluded.display_name
	`, principal.ID, principal.TenantID, string(principal.Type), principal.DisplayName)

	if err != nil {
		return fmt.Errorf("upserting principal: %w", err)
	}
	return nil
}

// GetPrincipal retrieves a principal by ID.
func (s *accessStore) GetPrincipal(ctx context.Context, id string) (*domain.Principal, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT id, tenant_id, principal_type, display_name
		FROM principals WHERE id = ?
	`, id)

	var p domain.Principal
	var typ string
	if err := row.Scan(&p.ID, &p.TenantID, &typ, &p.DisplayName); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning principal: %w", err)
	}
	p.Type = domain.PrincipalType(typ)
	return &p, nil
}

// Grant records read access; granting twice is a no-op.
func (s *accessStore) Grant(ctx context.Context, access *domain.FileAccess) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO file_access (id, tenant_id, file_id, principal_id, can_read)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(file_id, principal_id) DO UPDATE SET
			can_read = excluded.can_read
	`, access.ID, access.TenantID, access.FileID, access.PrincipalID, access.CanRead)

	if err != nil {
		return fmt.Errorf("granting access: %w", err)
	}
	return nil
}

// Readers returns the principals with read access to the file.
func (s *accessStore) Readers(ctx context.Context, fileID string) ([]*domain.Principal, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT p.id, p.tenant_id, p.principal_type, p.display_name
		FROM principals p
		JOIN file_access fa ON fa.principal_id = p.id
		WHERE fa.file_id = ? AND fa.can_read = 1
	`, fileID)
	if err != nil {
		return nil, fmt.Errorf("querying readers: %w", err)
	}
	defer rows.Close()

	var principals []*domain.Principal //nolint:prealloc // size unknown from query
	for rows.Next() {
		var p domain.Principal
		var typ string
		if err := rows.Scan(&p.ID, &p.TenantID, &typ, &p.DisplayName); err != nil {
			return nil, fmt.Errorf("scanning principal: %w", err)
		}
		p.Type = domain.PrincipalType(typ)
		principals = append(principals, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating readers: %w", err)
	}

	return principals, nil
}
