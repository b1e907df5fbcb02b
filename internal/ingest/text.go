package ingest

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"folio/internal/chunk"
)

var (
	hyphenBreak = regexp.MustCompile(`(\w)-\n(\w)`)
	lineBreaks  = regexp.MustCompile(`\s*\n\s*`)
	// LaTeX-style macros or bare operator symbols
	mathToken = regexp.MustCompile(`\\frac|\\sum|\\int|=|[∑∫√±×÷]`)
	// an embedded "figure N" / "table N" marker already present in a table export
	markerPattern = regexp.MustCompile(`(?i)(fig(?:ure)?\.?\s*\d+[a-z]?|table\s+[ivxlcdm\d]+[a-z]?)`)
)

// CleanText normalizes extracted prose: soft hyphens removed, words broken
// across line ends rejoined, newline runs collapsed to single spaces.
func CleanText(t string) string {
	t = strings.ReplaceAll(t, "­", "")
	for {
		joined := hyphenBreak.ReplaceAllString(t, "$1$2")
		if joined == t {
			break
		}
		t = joined
	}
	t = lineBreaks.ReplaceAllString(t, " ")
	return strings.TrimSpace(t)
}

// classifyText tells equations apart from prose: a block under 300 runes
// carrying a math token is an equation, everything else is text.
func classifyText(t string) chunk.Kind {
	if utf8.RuneCountInString(t) < 300 && mathToken.MatchString(t) {
		return chunk.KindEquation
	}
	return chunk.KindText
}
