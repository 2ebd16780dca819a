package domain

import "time"

// DocType is the classified type of a document's content.
type DocType string

const (
	DocTypeContract DocType = "CONTRACT"
	DocTypePolicy   DocType = "POLICY"
	DocTypeRFC      DocType = "RFC"
	DocTypeOther    DocType = "OTHER"
)

// Structured reports whether the type supports structured field extraction
// and structure-aware chunking.
func (t DocType) Structured() bool {
	switch t {
	case DocTypeContract, DocTypePolicy, DocTypeRFC:
		return true
	default:
		return false
	}
}

// Document represents one extracted, classified version of a file's content.
// A new Document row is created, never mutated, whenever a file's content
// hash changes; PreviousVersionID threads a singly linked version chain with
// strictly increasing VersionNumber.
type Document struct {
	// ID is the unique identifier for this version.
	ID string

	// TenantID scopes the document to a tenant.
	TenantID string

	// FileID links to the file this content was extracted from.
	FileID string

	// Title is the human-readable title from document metadata or filename.
	Title string

	// MIMEType is the declared type the content was extracted as.
	MIMEType string

	// SizeBytes is the size of the source file at extraction time.
	SizeBytes int64

	// DocType is the classified document type; empty until classified.
	DocType DocType

	// VersionNumber starts at 1 and increases along the version chain.
	VersionNumber int

	// PreviousVersionID points at the prior version, empty for v1.
	PreviousVersionID string

	// ContentHash is the hash of the source content this version was
	// extracted from. Unchanged hash means re-chunk in place.
	ContentHash string

	// StructuredFields holds type-specific fields pulled by semantic
	// extraction; nil until extracted.
	StructuredFields map[string]any

	// LastIndexedAt is when this version was last (re-)processed.
	LastIndexedAt time.Time

	CreatedAt time.Time
}

// Chunk is a bounded, positioned span of a document's text - the unit of
// retrieval. Chunks are created in a batch by extraction and fully replaced
// on re-chunking; ChunkIndex values are contiguous 0..n-1 per document.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// TenantID scopes the chunk to a tenant.
	TenantID string

	// DocumentID links to the owning document version.
	DocumentID string

	// Index is the 0-based ordinal within the document.
	Index int

	// Text is the raw chunk text.
	Text string

	// Start and End are absolute character offsets into the normalised
	// document text; the window is [Start, End).
	Start int
	End   int

	// SectionPath is the ordered heading path (root to self) for chunks
	// produced by structure-aware chunking; nil otherwise.
	SectionPath []string

	// RedactedText is the chunk text with sensitive matches masked;
	// empty when nothing was redacted or enrichment has not run.
	RedactedText string

	// SummaryText is an LLM-safe summary of the chunk; empty until
	// enrichment generates one.
	SummaryText string
}

// ViewType selects which text representation of a chunk an agent receives.
type ViewType string

const (
	ViewRaw      ViewType = "raw"
	ViewRedacted ViewType = "redacted"
	ViewSummary  ViewType = "summary"
)

// TextForView returns the chunk text for the given view type, falling back
// to the raw text when the specialised representation is absent.
func (c *Chunk) TextForView(view ViewType) string {
	switch view {
	case ViewSummary:
		if c.SummaryText != "" {
			return c.SummaryText
		}
	case ViewRedacted:
		if c.RedactedText != "" {
			return c.RedactedText
		}
	}
	return c.Text
}
