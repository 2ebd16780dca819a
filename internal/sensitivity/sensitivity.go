// Package sensitivity detects personally identifiable information, payment
// card numbers and credential material in extracted text.
//
// Detection is pattern based. Card number candidates are validated with the
// Luhn checksum before they count as findings, and every finding carries a
// redacted context snippet that is safe to store and display.
package sensitivity

import (
	"regexp"
	"sort"
	"strings"

	"github.com/quarry-labs/quarry/internal/core/domain"
)

// snippetContext is the number of characters kept on each side of a match.
const snippetContext = 50

// Match is a detected occurrence of sensitive content. Start and End are
// offsets into the scanned text plus the caller-supplied base offset.
type Match struct {
	Type    domain.SensitivityType
	Level   domain.SensitivityLevel
	Snippet string
	Start   int
	End     int
}

var (
	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

	// US-centric phone shapes: 123-456-7890 and (123) 456-7890.
	phonePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b\d{3}[-.\s]?\d{3}[-.\s]?\d{4}\b`),
		regexp.MustCompile(`\(\d{3}\)\s*\d{3}[-.\s]?\d{4}\b`),
	}

	ssnPattern = regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)

	// 13 to 19 digits with optional spaces or dashes, Luhn-validated below.
	cardPattern = regexp.MustCompile(`\b(?:\d[ -]*?){13,19}\b`)

	secretPatterns = []*regexp.Regexp{
		// AWS access key IDs
		regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
		// Generic assigned keys and tokens
		regexp.MustCompile(`(?i)api[_-]?key['"]?\s*[:=]\s*['"]?[a-zA-Z0-9_\-]{20,}`),
		regexp.MustCompile(`(?i)secret[_-]?key['"]?\s*[:=]\s*['"]?[a-zA-Z0-9_\-]{20,}`),
		regexp.MustCompile(`(?i)access[_-]?token['"]?\s*[:=]\s*['"]?[a-zA-Z0-9_\-]{20,}`),
		// Bearer tokens
		regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9_\-.]{20,}`),
		// PEM private key headers
		regexp.MustCompile(`-----BEGIN (?:RSA |EC |DSA )?PRIVATE KEY-----`),
		// GitHub tokens
		regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{36,}`),
		// Slack tokens
		regexp.MustCompile(`xox[baprs]-[0-9a-zA-Z]{10,}`),
	}

	separators = regexp.MustCompile(`[\s-]`)
)

// Detect scans text for sensitive content. The offset is added to every
// match position, so chunk-relative scans report document positions.
func Detect(text string, offset int) []Match {
	//nolint:prealloc // match count is unknown until all patterns run
	var matches []Match

	add := func(loc []int, typ domain.SensitivityType, level domain.SensitivityLevel) {
		matches = append(matches, Match{
			Type:    typ,
			Level:   level,
			Snippet: snippet(text, loc[0], loc[1]),
			Start:   offset + loc[0],
			End:     offset + loc[1],
		})
	}

	for _, loc := range emailPattern.FindAllStringIndex(text, -1) {
		add(loc, domain.SensitivityPersonalData, domain.SensitivityMedium)
	}

	for _, pattern := range phonePatterns {
		for _, loc := range pattern.FindAllStringIndex(text, -1) {
			add(loc, domain.SensitivityPersonalData, domain.SensitivityMedium)
		}
	}

	for _, loc := range ssnPattern.FindAllStringIndex(text, -1) {
		add(loc, domain.SensitivityPersonalData, domain.SensitivityHigh)
	}

	for _, loc := range cardPattern.FindAllStringIndex(text, -1) {
		if luhnValid(text[loc[0]:loc[1]]) {
			add(loc, domain.SensitivityFinancialData, domain.SensitivityHigh)
		}
	}

	for _, pattern := range secretPatterns {
		for _, loc := range pattern.FindAllStringIndex(text, -1) {
			add(loc, domain.SensitivitySecrets, domain.SensitivityHigh)
		}
	}

	return matches
}

// Redact replaces sensitive matches in text with their type in brackets,
// like "[SECRETS]". Returns the text unchanged when nothing matches.
func Redact(text string, maskPII, maskSecrets bool) string {
	matches := Detect(text, 0)
	if len(matches) == 0 {
		return text
	}

	// Replace back to front so earlier positions stay valid.
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Start > matches[j].Start
	})

	for _, m := range matches {
		mask := false
		switch m.Type {
		case domain.SensitivityPersonalData, domain.SensitivityHealthData, domain.SensitivityFinancialData:
			mask = maskPII
		case domain.SensitivitySecrets:
			mask = maskSecrets
		}
		if !mask {
			continue
		}

		replacement := "[" + string(m.Type) + "]"
		text = text[:m.Start] + replacement + text[m.End:]
	}

	return text
}

// luhnValid reports whether the candidate passes the Luhn checksum after
// stripping spaces and dashes. Candidates outside 13-19 digits fail.
func luhnValid(candidate string) bool {
	digits := separators.ReplaceAllString(candidate, "")

	if len(digits) < 13 || len(digits) > 19 {
		return false
	}

	total := 0
	for i := 0; i < len(digits); i++ {
		c := digits[len(digits)-1-i]
		if c < '0' || c > '9' {
			return false
		}
		d := int(c - '0')
		if i%2 == 1 {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		total += d
	}

	return total%10 == 0
}

// snippet returns the match with up to snippetContext characters of
// surrounding text, the match itself masked, and ellipses marking truncated
// sides. Short matches mask to "****" so their length leaks nothing.
func snippet(text string, start, end int) string {
	snippetStart := start - snippetContext
	if snippetStart < 0 {
		snippetStart = 0
	}
	snippetEnd := end + snippetContext
	if snippetEnd > len(text) {
		snippetEnd = len(text)
	}

	prefix := ""
	if snippetStart > 0 {
		prefix = "..."
	}
	suffix := ""
	if snippetEnd < len(text) {
		suffix = "..."
	}

	masked := "****"
	if end-start > 4 {
		masked = "[REDACTED]"
	}

	var sb strings.Builder
	sb.WriteString(prefix)
	sb.WriteString(text[snippetStart:start])
	sb.WriteString(masked)
	sb.WriteString(text[end:snippetEnd])
	sb.WriteString(suffix)
	return sb.String()
}
