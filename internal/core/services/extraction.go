package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quarry-labs/quarry/internal/chunking"
	"github.com/quarry-labs/quarry/internal/core/domain"
	"github.com/quarry-labs/quarry/internal/core/ports/driven"
	"github.com/quarry-labs/quarry/internal/logger"
)

// Ensure ExtractionProcessor implements the interface.
var _ JobProcessor = (*ExtractionProcessor)(nil)

// ExtractionProcessor handles EXTRACT_CONTENT jobs: it reads the file,
// extracts and chunks the text, classifies the document, and queues the
// follow-on pipeline stages.
type ExtractionProcessor struct {
	provider     driven.FileContentProvider
	extractors   driven.ExtractorRegistry
	intelligence driven.Intelligence
	engine       *chunking.Engine
	structured   *chunking.Engine
}

// NewExtractionProcessor creates the EXTRACT_CONTENT processor. The given
// engine chunks unstructured text; structured types get a coarser engine
// so sections survive in fewer, larger chunks.
func NewExtractionProcessor(
	provider driven.FileContentProvider,
	extractors driven.ExtractorRegistry,
	intelligence driven.Intelligence,
	engine *chunking.Engine,
) *ExtractionProcessor {
	return &ExtractionProcessor{
		provider:     provider,
		extractors:   extractors,
		intelligence: intelligence,
		engine:       engine,
		structured: chunking.New(
			chunking.WithChunkSize(chunking.StructuredChunkSize),
			chunking.WithOverlap(chunking.StructuredOverlap),
		),
	}
}

func (p *ExtractionProcessor) JobType() domain.JobType {
	return domain.JobTypeExtractContent
}

// Process extracts the file's content into a document version with chunks.
// An unchanged content hash re-chunks the existing version in place; a
// changed hash appends a new version to the chain.
func (p *ExtractionProcessor) Process(ctx context.Context, tx driven.Stores, job *domain.Job) error {
	if job.FileID == "" {
		return fmt.Errorf("%w: EXTRACT_CONTENT requires a file", domain.ErrMissingReference)
	}

	file, err := tx.Files().GetFile(ctx, job.FileID)
	if err != nil {
		return fmt.Errorf("loading file %s: %w", job.FileID, err)
	}
	share, err := tx.Files().GetShare(ctx, file.ShareID)
	if err != nil {
		return fmt.Errorf("loading share %s: %w", file.ShareID, err)
	}

	content, err := p.provider.Read(ctx, share, file)
	if err != nil {
		return fmt.Errorf("reading file %s: %w", file.RelativePath, err)
	}

	extractor, err := p.extractors.Resolve(file.MIMEType, file.Name)
	if err != nil {
		return fmt.Errorf("resolving extractor for %s: %w", file.RelativePath, err)
	}
	extracted, err := extractor.Extract(ctx, content)
	if err != nil {
		return fmt.Errorf("extracting %s: %w", file.RelativePath, err)
	}

	title := extracted.Title
	if title == "" {
		title = titleFromFilename(file.Name)
	}

	text := chunking.Normalize(extracted.Text)
	logger.Debug("extracted %d characters from %s", len(text), file.Name)

	// Classification never fails the job: the fallback decorator absorbs
	// remote errors, and anything else degrades to OTHER.
	docType, err := p.intelligence.ClassifyDocument(ctx, title, text)
	if err != nil {
		logger.Warn("classifying %s: %v", file.Name, err)
		docType = domain.DocTypeOther
	}

	document, err := p.upsertVersion(ctx, tx, job, file, title, docType)
	if err != nil {
		return err
	}

	var specs []chunking.Spec
	if docType.Structured() {
		specs = p.structured.SplitStructured(text, docType)
	} else {
		specs = p.engine.Split(text)
	}

	chunks := make([]*domain.Chunk, len(specs))
	for i, spec := range specs {
		chunks[i] = &domain.Chunk{
			ID:          uuid.New().String(),
			TenantID:    job.TenantID,
			DocumentID:  document.ID,
			Index:       spec.Index,
			Text:        spec.Text,
			Start:       spec.Start,
			End:         spec.End,
			SectionPath: spec.SectionPath,
		}
	}
	if err := tx.Documents().ReplaceChunks(ctx, document.ID, chunks); err != nil {
		return fmt.Errorf("storing chunks for %s: %w", document.ID, err)
	}
	logger.Debug("created %d chunks for document %s", len(chunks), document.ID)

	enrich := &domain.Job{
		ID:         uuid.New().String(),
		TenantID:   job.TenantID,
		Type:       domain.JobTypeEnrichChunks,
		DocumentID: document.ID,
	}
	if err := tx.Jobs().Enqueue(ctx, enrich); err != nil {
		return fmt.Errorf("enqueuing enrichment: %w", err)
	}

	if docType.Structured() {
		semantics := &domain.Job{
			ID:         uuid.New().String(),
			TenantID:   job.TenantID,
			Type:       domain.JobTypeExtractSemantics,
			DocumentID: document.ID,
		}
		if err := tx.Jobs().Enqueue(ctx, semantics); err != nil {
			return fmt.Errorf("enqueuing semantic extraction: %w", err)
		}
	}

	return nil
}

// upsertVersion applies the versioning rule: no prior document creates v1,
// a changed content hash creates version n+1 linked to its predecessor, an
// unchanged hash updates the latest version's metadata in place.
func (p *ExtractionProcessor) upsertVersion(
	ctx context.Context,
	tx driven.Stores,
	job *domain.Job,
	file *domain.File,
	title string,
	docType domain.DocType,
) (*domain.Document, error) {
	now := time.Now().UTC()

	latest, err := tx.Documents().LatestByFile(ctx, file.ID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("loading latest version for file %s: %w", file.ID, err)
	}

	if latest != nil && latest.ContentHash == file.ContentHash {
		latest.Title = title
		latest.MIMEType = file.MIMEType
		latest.SizeBytes = file.SizeBytes
		latest.DocType = docType
		latest.LastIndexedAt = now
		if err := tx.Documents().Update(ctx, latest); err != nil {
			return nil, fmt.Errorf("updating document %s: %w", latest.ID, err)
		}
		return latest, nil
	}

	document := &domain.Document{
		ID:            uuid.New().String(),
		TenantID:      job.TenantID,
		FileID:        file.ID,
		Title:         title,
		MIMEType:      file.MIMEType,
		SizeBytes:     file.SizeBytes,
		DocType:       docType,
		VersionNumber: 1,
		ContentHash:   file.ContentHash,
		LastIndexedAt: now,
	}
	if latest != nil {
		document.VersionNumber = latest.VersionNumber + 1
		document.PreviousVersionID = latest.ID
		logger.Debug("new version %d for file %s (previous %s)", document.VersionNumber, file.ID, latest.ID)
	}

	if err := tx.Documents().Insert(ctx, document); err != nil {
		return nil, fmt.Errorf("inserting document version: %w", err)
	}
	return document, nil
}

// titleFromFilename strips the extension to form a fallback title.
func titleFromFilename(name string) string {
	if i := strings.LastIndex(name, "."); i > 0 {
		return name[:i]
	}
	return name
}
