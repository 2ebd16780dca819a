package extractors

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/quarry-labs/quarry/internal/core/domain"
	"github.com/quarry-labs/quarry/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// extensionMIME maps file extensions to MIME types for files whose recorded
// MIME type is missing or unrecognised.
var extensionMIME = map[string]string{
	".txt":  "text/plain",
	".md":   "text/plain",
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
}

// Registry resolves extractors by MIME type.
type Registry struct {
	byMIME map[string]driven.Extractor
}

// NewRegistry creates a registry with the given extractors.
func NewRegistry(extractors ...driven.Extractor) *Registry {
	r := &Registry{byMIME: make(map[string]driven.Extractor)}
	for _, e := range extractors {
		r.Register(e)
	}
	return r
}

// Register adds an extractor for each of its MIME types. A later
// registration for the same MIME type replaces the earlier one.
func (r *Registry) Register(e driven.Extractor) {
	for _, mimeType := range e.MIMETypes() {
		r.byMIME[mimeType] = e
	}
}

// Resolve returns the extractor for the MIME type, trying the filename's
// extension when the MIME type is unknown.
func (r *Registry) Resolve(mimeType, filename string) (driven.Extractor, error) {
	if e, ok := r.byMIME[mimeType]; ok {
		return e, nil
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if fallback, ok := extensionMIME[ext]; ok {
		if e, ok := r.byMIME[fallback]; ok {
			return e, nil
		}
	}

	return nil, fmt.Errorf("no extractor for %q (%s): %w", filename, mimeType, domain.ErrUnsupportedType)
}
