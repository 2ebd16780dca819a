package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/quarry-labs/quarry/internal/core/domain"
	"github.com/quarry-labs/quarry/internal/core/ports/driven"
	"github.com/quarry-labs/quarry/internal/exposure"
	"github.com/quarry-labs/quarry/internal/logger"
	"github.com/quarry-labs/quarry/internal/sensitivity"
)

var _ JobProcessor = (*EnrichmentProcessor)(nil)

// EnrichmentProcessor handles ENRICH_CHUNKS jobs: it scans a document's
// chunks for sensitive content, prepares redacted and summary views for
// chunks that need them, and recomputes the document's exposure.
type EnrichmentProcessor struct {
	intelligence driven.Intelligence
	broadGroups  map[string]bool
}

// NewEnrichmentProcessor creates the ENRICH_CHUNKS processor. broadGroups
// names the principal display names treated as broad access (for example
// "Everyone") when scoring exposure.
func NewEnrichmentProcessor(intelligence driven.Intelligence, broadGroups []string) *EnrichmentProcessor {
	known := make(map[string]bool, len(broadGroups))
	for _, name := range broadGroups {
		known[name] = true
	}
	return &EnrichmentProcessor{
		intelligence: intelligence,
		broadGroups:  known,
	}
}

func (p *EnrichmentProcessor) JobType() domain.JobType {
	return domain.JobTypeEnrichChunks
}

// Process detects sensitive content per chunk, replaces the document's
// findings wholesale, redacts and summarises affected chunks, and upserts
// the exposure assessment.
func (p *EnrichmentProcessor) Process(ctx context.Context, tx driven.Stores, job *domain.Job) error {
	if job.DocumentID == "" {
		return fmt.Errorf("%w: ENRICH_CHUNKS requires a document", domain.ErrMissingReference)
	}

	document, err := tx.Documents().Get(ctx, job.DocumentID)
	if err != nil {
		return fmt.Errorf("loading document %s: %w", job.DocumentID, err)
	}
	chunks, err := tx.Documents().Chunks(ctx, document.ID)
	if err != nil {
		return fmt.Errorf("loading chunks for %s: %w", document.ID, err)
	}

	//nolint:prealloc // finding count is unknown until every chunk is scanned
	var findings []*domain.SensitivityFinding
	for _, chunk := range chunks {
		matches := sensitivity.Detect(chunk.Text, chunk.Start)
		for _, match := range matches {
			findings = append(findings, &domain.SensitivityFinding{
				ID:         uuid.New().String(),
				TenantID:   document.TenantID,
				DocumentID: document.ID,
				ChunkID:    chunk.ID,
				Type:       match.Type,
				Level:      match.Level,
				Snippet:    match.Snippet,
			})
		}

		if len(matches) == 0 {
			continue
		}
		chunk.RedactedText = sensitivity.Redact(chunk.Text, true, true)
		summary, err := p.intelligence.SummariseChunk(ctx, chunk.RedactedText)
		if err != nil {
			return fmt.Errorf("summarising chunk %s: %w", chunk.ID, err)
		}
		chunk.SummaryText = summary
		if err := tx.Documents().UpdateChunkEnrichment(ctx, chunk); err != nil {
			return fmt.Errorf("storing enrichment for chunk %s: %w", chunk.ID, err)
		}
	}

	if err := tx.Findings().Replace(ctx, document.ID, findings); err != nil {
		return fmt.Errorf("replacing findings for %s: %w", document.ID, err)
	}
	logger.Debug("recorded %d findings for document %s", len(findings), document.ID)

	return p.updateExposure(ctx, tx, document, findings)
}

// updateExposure recomputes the document's exposure from who can read the
// file and what the scan found.
func (p *EnrichmentProcessor) updateExposure(
	ctx context.Context,
	tx driven.Stores,
	document *domain.Document,
	findings []*domain.SensitivityFinding,
) error {
	readers, err := tx.Access().Readers(ctx, document.FileID)
	if err != nil {
		return fmt.Errorf("loading readers for file %s: %w", document.FileID, err)
	}

	//nolint:prealloc // most files grant no broad groups at all
	var broad []string
	for _, reader := range readers {
		if p.broadGroups[reader.DisplayName] {
			broad = append(broad, reader.DisplayName)
		}
	}

	result := exposure.Score(exposure.Input{
		PrincipalCount: len(readers),
		BroadGroups:    broad,
		Findings:       findings,
	})
	record := &domain.DocumentExposure{
		ID:         uuid.New().String(),
		TenantID:   document.TenantID,
		DocumentID: document.ID,
		Level:      result.Level,
		Score:      result.Score,
		Summary:    result.Summary,
	}
	if err := tx.Exposures().Upsert(ctx, record); err != nil {
		return fmt.Errorf("storing exposure for %s: %w", document.ID, err)
	}
	logger.Debug("exposure for document %s: %s (%d)", document.ID, result.Level, result.Score)
	return nil
}
