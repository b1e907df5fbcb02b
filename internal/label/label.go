// Package label canonicalizes figure and table designators so that the
// many ways a paper refers to the same object ("Figure IIIb", "fig 3b",
// "FIG.3B") collapse to one retrieval key.
package label

import (
	"regexp"
	"strconv"
	"strings"
)

// keyPattern matches a designator at the start of an already lowercased,
// whitespace-stripped string: head word, numeral (roman or arabic), optional
// single trailing letter.
var keyPattern = regexp.MustCompile(`^(fig(?:ure)?|table)([ivxlcdm]+|\d+)([a-z])?`)

// refPattern finds designators inside running text.
var refPattern = regexp.MustCompile(`(?i)\b(fig(?:ure)?|table)\s*([ivxlcdm\d]+[a-z]?)\b`)

var romanValues = map[byte]int{'i': 1, 'v': 5, 'x': 10, 'l': 50, 'c': 100, 'd': 500, 'm': 1000}

// Normalize maps a figure/table reference to its canonical key: "fig" or
// "table", the decimal numeral, and the suffix letter when present, so
// "Figure IIIb" becomes "fig3b" and "Table II" becomes "table2". Arabic
// numeral strings pass through as written. Matching is case and whitespace
// insensitive; ok is false when no designator is recognized.
func Normalize(text string) (string, bool) {
	s := strings.Join(strings.Fields(strings.ToLower(text)), "")
	m := keyPattern.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	head, numeral, suffix := m[1], m[2], m[3]
	if head != "table" {
		head = "fig"
	}
	if !isDigits(numeral) {
		numeral = strconv.Itoa(romanToInt(numeral))
	}
	return head + numeral + suffix, true
}

// Reference is one figure/table mention found in running text.
type Reference struct {
	Text string // exact matched text, original casing preserved
	Head string // leading designator word, lowercased ("fig", "figure", "table")
}

// IsTable reports whether the mention designates a table rather than a figure.
func (r Reference) IsTable() bool {
	return r.Head == "table"
}

// Key returns the canonical key for the mention.
func (r Reference) Key() (string, bool) {
	return Normalize(r.Text)
}

// FindReference returns the first figure/table mention in text.
func FindReference(text string) (Reference, bool) {
	m := refPattern.FindStringSubmatch(text)
	if m == nil {
		return Reference{}, false
	}
	return Reference{Text: m[0], Head: strings.ToLower(m[1])}, true
}

// ReplaceReferences rewrites every figure/table mention in text with the
// value returned by repl. Returning r.Text unchanged leaves the mention as
// written, which is how unresolvable references degrade.
func ReplaceReferences(text string, repl func(r Reference) string) string {
	return refPattern.ReplaceAllStringFunc(text, func(match string) string {
		m := refPattern.FindStringSubmatch(match)
		return repl(Reference{Text: match, Head: strings.ToLower(m[1])})
	})
}

// romanToInt converts a roman numeral using subtractive notation: scan right
// to left, subtracting a symbol that is smaller than the one after it.
func romanToInt(s string) int {
	total, prev := 0, 0
	for i := len(s) - 1; i >= 0; i-- {
		v := romanValues[s[i]]
		if v < prev {
			total -= v
		} else {
			total += v
		}
		prev = v
	}
	return total
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
