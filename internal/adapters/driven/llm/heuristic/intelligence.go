// Package heuristic provides a deterministic, network-free Intelligence
// implementation. It is the degraded path behind the fallback decorator and
// the default when no model API key is configured.
package heuristic

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/quarry-labs/quarry/internal/core/domain"
	"github.com/quarry-labs/quarry/internal/core/ports/driven"
)

// Ensure Intelligence implements the interface.
var _ driven.Intelligence = (*Intelligence)(nil)

// classificationSample caps how much text the classifier scores.
const classificationSample = 5000

var contractPatterns = compilePatterns([]string{
	`\b(agreement|contract|terms and conditions|party|parties)\b`,
	`\b(whereas|hereby|herein|hereinafter|witnesseth)\b`,
	`\b(effective date|termination|governing law|jurisdiction)\b`,
	`\b(indemnif|warrant|liabilit|breach)\b`,
	`\b(confidential|non-disclosure|nda)\b`,
})

var policyPatterns = compilePatterns([]string{
	`\b(policy|procedure|guideline|standard)\b`,
	`\b(compliance|regulation|requirement)\b`,
	`\b(must|shall|required|prohibited)\b`,
	`\b(employee|personnel|staff|organization)\b`,
	`\b(acceptable use|code of conduct|privacy)\b`,
})

var rfcPatterns = compilePatterns([]string{
	`\b(rfc|request for comments|design doc|technical spec)\b`,
	`\b(architecture|implementation|proposal|specification)\b`,
	`\b(api|endpoint|interface|protocol)\b`,
	`\b(component|service|module|system)\b`,
	`\b(tradeoff|alternative|decision|rationale)\b`,
})

func compilePatterns(exprs []string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(exprs))
	for i, expr := range exprs {
		patterns[i] = regexp.MustCompile(expr)
	}
	return patterns
}

// Intelligence classifies and summarises without calling out to a model.
type Intelligence struct{}

// New creates a heuristic Intelligence.
func New() *Intelligence {
	return &Intelligence{}
}

// ClassifyDocument scores keyword pattern hits per type. Contracts carry
// more boilerplate legal language, so the other types get a boost to stay
// competitive. Fewer than 3 weighted hits means not enough signal.
func (h *Intelligence) ClassifyDocument(_ context.Context, title, text string) (domain.DocType, error) {
	if len(text) > classificationSample {
		text = text[:classificationSample]
	}
	sample := strings.ToLower(title + "\n" + text)

	contractScore := float64(countMatches(sample, contractPatterns)) * 1.0
	policyScore := float64(countMatches(sample, policyPatterns)) * 1.2
	rfcScore := float64(countMatches(sample, rfcPatterns)) * 1.5

	maxScore := contractScore
	if policyScore > maxScore {
		maxScore = policyScore
	}
	if rfcScore > maxScore {
		maxScore = rfcScore
	}

	if maxScore < 3 {
		return domain.DocTypeOther, nil
	}

	switch maxScore {
	case contractScore:
		return domain.DocTypeContract, nil
	case policyScore:
		return domain.DocTypePolicy, nil
	default:
		return domain.DocTypeRFC, nil
	}
}

func countMatches(text string, patterns []*regexp.Regexp) int {
	count := 0
	for _, p := range patterns {
		count += len(p.FindAllStringIndex(text, -1))
	}
	return count
}

// ExtractFields has no local extraction capability and returns an empty
// map, which callers store as "no structured fields".
func (h *Intelligence) ExtractFields(_ context.Context, _ domain.DocType, _ string) (map[string]any, error) {
	return map[string]any{}, nil
}

// summaryLimit caps heuristic chunk summaries.
const summaryLimit = 240

// SummariseChunk returns the leading sentences of the chunk, up to the
// summary limit. Callers pass redacted text, so the result stays free of
// sensitive matches.
func (h *Intelligence) SummariseChunk(_ context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if len(text) <= summaryLimit {
		return text, nil
	}

	cut := summaryLimit
	for i := summaryLimit; i > summaryLimit/2; i-- {
		switch text[i-1] {
		case '.', '!', '?', '\n':
			cut = i
			return strings.TrimSpace(text[:cut]), nil
		}
	}
	return strings.TrimSpace(text[:cut]) + "...", nil
}

// SummariseDiff renders a fixed-template count of the changes.
func (h *Intelligence) SummariseDiff(_ context.Context, changes []domain.FieldChange) (string, error) {
	if len(changes) == 0 {
		return "No significant changes detected between versions.", nil
	}

	var added, removed, modified int
	for _, c := range changes {
		switch c.Change {
		case domain.ChangeAdded:
			added++
		case domain.ChangeRemoved:
			removed++
		case domain.ChangeModified:
			modified++
		}
	}

	//nolint:prealloc // at most three parts
	var parts []string
	if added > 0 {
		parts = append(parts, fmt.Sprintf("%d field(s) added", added))
	}
	if removed > 0 {
		parts = append(parts, fmt.Sprintf("%d field(s) removed", removed))
	}
	if modified > 0 {
		parts = append(parts, fmt.Sprintf("%d field(s) modified", modified))
	}

	return "Changes: " + strings.Join(parts, ", ") + ".", nil
}
