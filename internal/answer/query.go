package answer

import (
	"regexp"
	"strings"
)

// stopWords is the captioning and document vocabulary stripped before
// similarity search, plus common function words.
var stopWords = map[string]struct{}{
	"figure": {}, "fig": {}, "image": {}, "diagram": {}, "picture": {},
	"table": {}, "chart": {}, "plot": {},
	"of": {}, "for": {}, "showing": {}, "displaying": {}, "the": {}, "a": {}, "an": {},
}

var nonWord = regexp.MustCompile(`\W+`)

// CleanQuery strips filler words so similarity search focuses on informative
// tokens. If every token is a stop word the original question is returned
// unchanged, so a search is never issued with an empty string.
func CleanQuery(q string) string {
	tokens := nonWord.Split(strings.ToLower(q), -1)
	keep := tokens[:0]
	for _, t := range tokens {
		if t == "" {
			continue
		}
		if _, stop := stopWords[t]; stop {
			continue
		}
		keep = append(keep, t)
	}
	if len(keep) == 0 {
		return q
	}
	return strings.Join(keep, " ")
}
