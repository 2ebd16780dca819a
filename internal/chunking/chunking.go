// Package chunking splits extracted document text into overlapping chunks.
//
// The Engine supports two strategies: uniform splitting with sentence-aware
// boundaries, and structure-aware splitting that detects section headings
// for contract, policy and RFC documents and tags each chunk with its
// hierarchical section path. Structure-aware splitting falls back to uniform
// splitting when no sections are detected.
package chunking

import (
	"regexp"
	"strings"

	"github.com/quarry-labs/quarry/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultOverlap is the default number of overlapping characters.
const DefaultOverlap = 200

// StructuredChunkSize is the default chunk size for structure-aware
// splitting, sized for roughly 300-600 tokens.
const StructuredChunkSize = 1800

// StructuredOverlap is the default overlap for structure-aware splitting.
const StructuredOverlap = 300

// Spec describes a single chunk of text. Start and End are offsets into the
// normalised text.
type Spec struct {
	Index       int
	Text        string
	Start       int
	End         int
	SectionPath []string
}

var (
	spacesRe   = regexp.MustCompile(`[ \t]+`)
	newlinesRe = regexp.MustCompile(`\n{3,}`)
)

// Normalize collapses runs of spaces and tabs to a single space, runs of
// three or more newlines to a blank line, and trims surrounding whitespace.
func Normalize(text string) string {
	text = spacesRe.ReplaceAllString(text, " ")
	text = newlinesRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// Engine splits text into chunks.
type Engine struct {
	chunkSize int
	overlap   int
}

// Option configures the engine.
type Option func(*Engine)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(e *Engine) {
		if size > 0 {
			e.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(e *Engine) {
		if overlap >= 0 {
			e.overlap = overlap
		}
	}
}

// New creates an engine with the given options.
func New(opts ...Option) *Engine {
	e := &Engine{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultOverlap,
	}

	for _, opt := range opts {
		opt(e)
	}

	// Ensure overlap doesn't exceed chunk size
	if e.overlap >= e.chunkSize {
		e.overlap = e.chunkSize / 4
	}

	return e
}

// Split normalises the text and cuts it into overlapping chunks. Each chunk
// ends at a sentence boundary when one falls within the last 20% of the
// chunk window. Empty text produces no chunks.
func (e *Engine) Split(text string) []Spec {
	text = Normalize(text)
	if text == "" {
		return nil
	}

	//nolint:prealloc // chunk count depends on boundary placement
	var chunks []Spec
	start := 0
	index := 0

	for start < len(text) {
		end := start + e.chunkSize
		if end > len(text) {
			end = len(text)
		}

		if end < len(text) {
			end = sentenceBoundary(text, start, end, 0.8, e.chunkSize)
		}

		chunks = append(chunks, Spec{
			Index: index,
			Text:  text[start:end],
			Start: start,
			End:   end,
		})
		index++

		// Move forward, guaranteeing progress even with large overlap.
		next := end - e.overlap
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks
}

// SplitStructured cuts the text along detected section boundaries for the
// given document type, tagging each chunk with the section's hierarchical
// path. Unstructured types, and structured text where no section is
// detected, fall back to Split.
func (e *Engine) SplitStructured(text string, docType domain.DocType) []Spec {
	normalised := Normalize(text)
	if normalised == "" {
		return nil
	}

	patterns := sectionPatterns(docType)
	if len(patterns) == 0 {
		return e.Split(normalised)
	}

	sections := detectSections(normalised, patterns)
	if len(sections) == 0 {
		return e.Split(normalised)
	}

	//nolint:prealloc // per-section chunk counts are unknown up front
	var chunks []Spec
	for _, section := range sections {
		for _, spec := range e.splitSection(section) {
			spec.Index = len(chunks)
			chunks = append(chunks, spec)
		}
	}

	if len(chunks) == 0 {
		return e.Split(normalised)
	}
	return chunks
}

// splitSection chunks a single section's content, stamping every chunk with
// the section path. Content that fits the chunk window stays whole.
func (e *Engine) splitSection(section *section) []Spec {
	content := section.Content
	path := section.path()

	if strings.TrimSpace(content) == "" {
		return nil
	}

	if len(content) <= e.chunkSize {
		return []Spec{{
			Text:        content,
			Start:       section.Start,
			End:         section.End,
			SectionPath: path,
		}}
	}

	//nolint:prealloc // chunk count depends on boundary placement
	var chunks []Spec
	start := 0

	for start < len(content) {
		end := start + e.chunkSize
		if end > len(content) {
			end = len(content)
		}

		if end < len(content) {
			end = sentenceBoundary(content, start, end, 0.7, e.chunkSize)
		}

		if piece := strings.TrimSpace(content[start:end]); piece != "" {
			chunks = append(chunks, Spec{
				Text:        piece,
				Start:       section.Start + start,
				End:         section.Start + end,
				SectionPath: path,
			})
		}

		next := end - e.overlap
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks
}

// sentenceBoundary scans backwards from end for a sentence terminator,
// giving up once it leaves the trailing window fraction of the chunk.
func sentenceBoundary(text string, start, end int, window float64, chunkSize int) int {
	searchStart := start + int(float64(chunkSize)*window)
	for i := end; i > searchStart; i-- {
		switch text[i-1] {
		case '.', '!', '?', '\n':
			return i
		}
	}
	return end
}
