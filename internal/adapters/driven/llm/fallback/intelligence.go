// Package fallback decorates a remote Intelligence with a deterministic
// local one. Remote failures are absorbed and logged, so an unreachable or
// misbehaving model degrades results instead of failing pipeline jobs.
package fallback

import (
	"context"

	"github.com/quarry-labs/quarry/internal/core/domain"
	"github.com/quarry-labs/quarry/internal/core/ports/driven"
	"github.com/quarry-labs/quarry/internal/logger"
)

// Ensure Intelligence implements the interface.
var _ driven.Intelligence = (*Intelligence)(nil)

// Intelligence tries the primary first and delegates to the local fallback
// on any error.
type Intelligence struct {
	primary driven.Intelligence
	local   driven.Intelligence
}

// New creates a fallback decorator. primary may be nil, in which case every
// call goes straight to local.
func New(primary, local driven.Intelligence) *Intelligence {
	return &Intelligence{primary: primary, local: local}
}

func (f *Intelligence) ClassifyDocument(ctx context.Context, title, text string) (domain.DocType, error) {
	if f.primary != nil {
		docType, err := f.primary.ClassifyDocument(ctx, title, text)
		if err == nil {
			return docType, nil
		}
		logger.Warn("remote classification failed, using local fallback: %v", err)
	}
	return f.local.ClassifyDocument(ctx, title, text)
}

func (f *Intelligence) ExtractFields(ctx context.Context, docType domain.DocType, text string) (map[string]any, error) {
	if f.primary != nil {
		fields, err := f.primary.ExtractFields(ctx, docType, text)
		if err == nil {
			return fields, nil
		}
		logger.Warn("remote field extraction failed, using local fallback: %v", err)
	}
	return f.local.ExtractFields(ctx, docType, text)
}

func (f *Intelligence) SummariseChunk(ctx context.Context, text string) (string, error) {
	if f.primary != nil {
		summary, err := f.primary.SummariseChunk(ctx, text)
		if err == nil {
			return summary, nil
		}
		logger.Warn("remote chunk summary failed, using local fallback: %v", err)
	}
	return f.local.SummariseChunk(ctx, text)
}

func (f *Intelligence) SummariseDiff(ctx context.Context, changes []domain.FieldChange) (string, error) {
	if f.primary != nil {
		summary, err := f.primary.SummariseDiff(ctx, changes)
		if err == nil {
			return summary, nil
		}
		logger.Warn("remote diff summary failed, using local fallback: %v", err)
	}
	return f.local.SummariseDiff(ctx, changes)
}
