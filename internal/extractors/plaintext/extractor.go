package plaintext

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/quarry-labs/quarry/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles plain text and markdown files.
type Extractor struct{}

// New creates a new plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// MIMETypes returns the MIME types this extractor handles.
func (e *Extractor) MIMETypes() []string {
	return []string{
		"text/plain",
		"text/markdown",
	}
}

// Extract decodes the content as UTF-8, falling back to Latin-1 for files
// with other single-byte encodings.
func (e *Extractor) Extract(_ context.Context, content []byte) (*driven.ExtractResult, error) {
	return &driven.ExtractResult{Text: decode(content)}, nil
}

// decode returns the content as a string. Invalid UTF-8 is reinterpreted as
// Latin-1, which accepts every byte value.
func decode(content []byte) string {
	if utf8.Valid(content) {
		return string(content)
	}

	var sb strings.Builder
	sb.Grow(len(content))
	for _, b := range content {
		sb.WriteRune(rune(b))
	}
	return sb.String()
}
