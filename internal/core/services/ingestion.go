package services

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/quarry-labs/quarry/internal/core/domain"
	"github.com/quarry-labs/quarry/internal/core/ports/driven"
	"github.com/quarry-labs/quarry/internal/core/ports/driving"
	"github.com/quarry-labs/quarry/internal/logger"
)

// Ensure IngestionService implements the interface.
var _ driving.IngestionService = (*IngestionService)(nil)

// IngestionService registers shares and queues discovered files for
// extraction.
type IngestionService struct {
	store driven.Stores
}

// NewIngestionService creates an ingestion service.
func NewIngestionService(store driven.Stores) *IngestionService {
	return &IngestionService{store: store}
}

// RegisterShare creates the share, or returns the existing share with the
// same name.
func (s *IngestionService) RegisterShare(ctx context.Context, tenantID, name, rootPath string) (*domain.Share, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: share name is required", domain.ErrInvalidInput)
	}
	absRoot, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("resolving share root: %w", err)
	}
	if info, err := os.Stat(absRoot); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: share root %q is not a directory", domain.ErrInvalidInput, absRoot)
	}

	share := &domain.Share{
		ID:       uuid.New().String(),
		TenantID: tenantID,
		Name:     name,
		RootPath: absRoot,
	}

	err = s.store.Files().InsertShare(ctx, share)
	if errors.Is(err, domain.ErrAlreadyExists) {
		return s.store.Files().ShareByName(ctx, tenantID, name)
	}
	if err != nil {
		return nil, fmt.Errorf("registering share %q: %w", name, err)
	}

	logger.Info("registered share %q at %s", name, absRoot)
	return share, nil
}

// IngestFile upserts the file record with its current size, MIME type and
// content hash, then enqueues extraction. Unchanged files are re-enqueued
// harmlessly: extraction compares hashes before creating a version.
func (s *IngestionService) IngestFile(ctx context.Context, share *domain.Share, relativePath string) (*domain.File, error) {
	file := &domain.File{
		ID:           uuid.New().String(),
		TenantID:     share.TenantID,
		ShareID:      share.ID,
		RelativePath: relativePath,
		Name:         path.Base(relativePath),
		MIMEType:     detectMIMEType(relativePath),
	}

	fullPath := file.PathUnder(share)
	content, err := os.ReadFile(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("reading %q: %w", fullPath, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("reading %q: %w", fullPath, err)
	}
	file.SizeBytes = int64(len(content))
	file.ContentHash = fmt.Sprintf("sha256:%x", sha256.Sum256(content))

	// Keep the existing ID when the path is already known
	existing, err := s.store.Files().FileByPath(ctx, share.ID, relativePath)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("looking up file %q: %w", relativePath, err)
	}
	if existing != nil {
		file.ID = existing.ID
		file.CreatedAt = existing.CreatedAt
	}

	if err := s.store.Files().UpsertFile(ctx, file); err != nil {
		return nil, fmt.Errorf("upserting file %q: %w", relativePath, err)
	}

	job := &domain.Job{
		ID:       uuid.New().String(),
		TenantID: share.TenantID,
		Type:     domain.JobTypeExtractContent,
		FileID:   file.ID,
	}
	if err := s.store.Jobs().Enqueue(ctx, job); err != nil {
		return nil, fmt.Errorf("enqueuing extraction for %q: %w", relativePath, err)
	}

	logger.Debug("ingested %q (%d bytes)", relativePath, file.SizeBytes)
	return file, nil
}

// detectMIMEType maps the filename extension to a MIME type, defaulting to
// octet-stream for unknown extensions.
func detectMIMEType(name string) string {
	ext := path.Ext(name)
	if ext == "" {
		return "application/octet-stream"
	}
	if mimeType := mime.TypeByExtension(ext); mimeType != "" {
		// Drop parameters like "; charset=utf-8"
		if i := strings.Index(mimeType, ";"); i >= 0 {
			mimeType = strings.TrimSpace(mimeType[:i])
		}
		return mimeType
	}
	return "application/octet-stream"
}
