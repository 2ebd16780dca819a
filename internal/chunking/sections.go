package chunking

import (
	"regexp"
	"sort"
	"strings"

	"github.com/quarry-labs/quarry/internal/core/domain"
)

// Section boundary patterns per document type. Two-group patterns capture a
// numbering marker and a title; one-group patterns capture a bare heading.
var (
	contractSectionPatterns = []*regexp.Regexp{
		// Numbered clauses: "1.", "1.1", "Article 1", "Section 1"
		regexp.MustCompile(`(?mi)^(?:article|section|clause)?\s*(\d+(?:\.\d+)*\.?)\s+(.+)`),
		// Roman numerals: "I.", "II.", "III."
		regexp.MustCompile(`(?m)^((?:X{0,3})?(?:IX|IV|V?I{0,3})\.)\s+(.+)`),
		// Lettered clauses: "(a)", "(b)", "(i)", "(ii)"
		regexp.MustCompile(`(?mi)^\(([a-z]|[ivx]+)\)\s+(.+)`),
	}

	rfcSectionPatterns = []*regexp.Regexp{
		// Markdown headings: "# Title", "## Section"
		regexp.MustCompile(`(?m)^(#{1,6})\s+(.+)`),
		// Numbered sections: "1. Introduction", "1.1 Background"
		regexp.MustCompile(`(?m)^(\d+(?:\.\d+)*\.?)\s+([A-Z].+)`),
		// ALL CAPS headings
		regexp.MustCompile(`(?m)^([A-Z][A-Z\s]{4,})$`),
	}

	policySectionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?m)^(\d+(?:\.\d+)*\.?)\s+(.+)`),
		regexp.MustCompile(`(?m)^(#{1,6})\s+(.+)`),
		regexp.MustCompile(`(?m)^([A-Z][A-Z\s]{4,})$`),
	}
)

func sectionPatterns(docType domain.DocType) []*regexp.Regexp {
	switch docType {
	case domain.DocTypeContract:
		return contractSectionPatterns
	case domain.DocTypeRFC:
		return rfcSectionPatterns
	case domain.DocTypePolicy:
		return policySectionPatterns
	default:
		return nil
	}
}

// section is a detected heading with the content running up to the next
// heading. parent links form the hierarchy used for section paths.
type section struct {
	Heading string
	Number  string
	Level   int
	Start   int
	End     int
	Content string

	parent *section
}

// path returns the hierarchical labels from the root section down to this
// one, preferring the numbering marker over the heading text.
func (s *section) path() []string {
	var path []string
	for cur := s; cur != nil; cur = cur.parent {
		label := cur.Number
		if label == "" {
			label = cur.Heading
		}
		if label = strings.TrimSpace(label); label != "" {
			path = append([]string{label}, path...)
		}
	}
	return path
}

type headingMatch struct {
	heading string
	number  string
	level   int
	start   int
	end     int
}

// detectSections finds section boundaries in the text. Overlapping matches
// from different patterns are resolved in favour of the earliest one, and
// the resulting sections are linked into a hierarchy by heading level.
func detectSections(text string, patterns []*regexp.Regexp) []*section {
	var matches []headingMatch

	for _, pattern := range patterns {
		for _, loc := range pattern.FindAllStringSubmatchIndex(text, -1) {
			m := headingMatch{start: loc[0], end: loc[1]}

			if pattern.NumSubexp() >= 2 && loc[4] >= 0 {
				marker := text[loc[2]:loc[3]]
				m.heading = strings.TrimSpace(text[loc[4]:loc[5]])
				m.number = strings.TrimSpace(marker)
				m.level = markerLevel(marker)
			} else {
				m.heading = strings.TrimSpace(text[loc[2]:loc[3]])
				m.level = 1
			}

			matches = append(matches, m)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].start < matches[j].start
	})

	//nolint:prealloc // overlap filtering drops an unknown share
	var filtered []headingMatch
	lastEnd := -1
	for _, m := range matches {
		if m.start >= lastEnd {
			filtered = append(filtered, m)
			lastEnd = m.end
		}
	}

	sections := make([]*section, 0, len(filtered))
	for i, m := range filtered {
		nextStart := len(text)
		if i+1 < len(filtered) {
			nextStart = filtered[i+1].start
		}
		sections = append(sections, &section{
			Heading: m.heading,
			Number:  m.number,
			Level:   m.level,
			Start:   m.start,
			End:     nextStart,
			Content: strings.TrimSpace(text[m.end:nextStart]),
		})
	}

	// Build the hierarchy: each section's parent is the nearest preceding
	// section with a strictly lower level.
	var stack []*section
	for _, s := range sections {
		for len(stack) > 0 && stack[len(stack)-1].Level >= s.Level {
			stack = stack[:len(stack)-1]
		}
		if len(stack) > 0 {
			s.parent = stack[len(stack)-1]
		}
		stack = append(stack, s)
	}

	return sections
}

// markerLevel derives a nesting level from the heading marker: markdown
// hashes count directly, dotted numbers count their dots plus one, anything
// else is a top-level heading.
func markerLevel(marker string) int {
	switch {
	case strings.HasPrefix(marker, "#"):
		return len(marker)
	case strings.Contains(marker, "."):
		return strings.Count(marker, ".") + 1
	default:
		return 1
	}
}
