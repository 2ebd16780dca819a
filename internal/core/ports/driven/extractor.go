package driven

import "context"

// ExtractResult is the plain-text content pulled out of a file. Title may be
// empty when the format carries no title of its own; callers fall back to
// the filename.
type ExtractResult struct {
	Title string
	Text  string
}

// Extractor turns one file format's raw bytes into plain text.
type Extractor interface {
	// MIMETypes lists the MIME types this extractor handles.
	MIMETypes() []string

	// Extract returns the plain-text content of the file.
	Extract(ctx context.Context, content []byte) (*ExtractResult, error)
}

// ExtractorRegistry resolves the extractor for a file. Resolution goes by
// MIME type first and falls back to the file extension, returning
// domain.ErrUnsupportedType when neither matches.
type ExtractorRegistry interface {
	Resolve(mimeType, filename string) (Extractor, error)
}
