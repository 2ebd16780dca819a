package services

import (
	"context"
	"fmt"
	"time"

	"github.com/quarry-labs/quarry/internal/core/domain"
	"github.com/quarry-labs/quarry/internal/core/ports/driven"
	"github.com/quarry-labs/quarry/internal/logger"
)

var _ JobProcessor = (*SemanticsProcessor)(nil)

// SemanticsProcessor handles EXTRACT_SEMANTICS jobs: it pulls type-specific
// structured fields out of a structured document's text.
type SemanticsProcessor struct {
	intelligence driven.Intelligence
}

func NewSemanticsProcessor(intelligence driven.Intelligence) *SemanticsProcessor {
	return &SemanticsProcessor{intelligence: intelligence}
}

func (p *SemanticsProcessor) JobType() domain.JobType {
	return domain.JobTypeExtractSemantics
}

// Process extracts structured fields from the document's chunk text and
// stores them on the document. Unstructured documents are skipped rather
// than failed, since a re-classification can demote a document after the
// job was queued.
func (p *SemanticsProcessor) Process(ctx context.Context, tx driven.Stores, job *domain.Job) error {
	if job.DocumentID == "" {
		return fmt.Errorf("%w: EXTRACT_SEMANTICS requires a document", domain.ErrMissingReference)
	}

	document, err := tx.Documents().Get(ctx, job.DocumentID)
	if err != nil {
		return fmt.Errorf("loading document %s: %w", job.DocumentID, err)
	}
	if !document.DocType.Structured() {
		logger.Debug("document %s is %s, skipping semantic extraction", document.ID, document.DocType)
		return nil
	}

	chunks, err := tx.Documents().Chunks(ctx, document.ID)
	if err != nil {
		return fmt.Errorf("loading chunks for %s: %w", document.ID, err)
	}

	fields, err := p.intelligence.ExtractFields(ctx, document.DocType, assembleText(chunks))
	if err != nil {
		return fmt.Errorf("extracting fields from %s: %w", document.ID, err)
	}

	document.StructuredFields = fields
	document.LastIndexedAt = time.Now().UTC()
	if err := tx.Documents().Update(ctx, document); err != nil {
		return fmt.Errorf("storing fields for %s: %w", document.ID, err)
	}
	logger.Debug("extracted %d structured fields for document %s", len(fields), document.ID)
	return nil
}

// assembleText rebuilds the document text from its chunks, dropping each
// chunk's overlap with its predecessor using the recorded offsets. Chunk
// text can be shorter than its offset window: structure-aware splitting
// trims whitespace from the text but keeps the untrimmed offsets, so the
// overlap cut is clamped to the text that is actually there.
func assembleText(chunks []*domain.Chunk) string {
	var b []byte
	covered := 0
	for _, chunk := range chunks {
		if chunk.End <= covered {
			continue
		}
		text := chunk.Text
		if chunk.Start < covered {
			cut := covered - chunk.Start
			if cut > len(text) {
				cut = len(text)
			}
			text = text[cut:]
		}
		b = append(b, text...)
		covered = chunk.End
	}
	return string(b)
}
