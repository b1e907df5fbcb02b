// Package answer routes a question to one of four strategies — direct label
// lookup, best-match figure, best-match table, or generative free text — and
// renders the result as HTML with the referenced figure or table inlined
// verbatim.
package answer

import (
	"strings"

	"folio/internal/label"
)

// Route is the strategy the engine will take for one question.
type Route int

const (
	// RouteDirectLabel resolves an explicit "Figure 2" / "Table II" mention.
	RouteDirectLabel Route = iota
	// RouteFigure answers a figure-description request with the best image.
	RouteFigure
	// RouteTable answers a table-description request with the best table.
	RouteTable
	// RouteFreeText generates a textual answer with post-hoc label injection.
	RouteFreeText
)

// Intent is the classification of one question. Ref is set only for
// RouteDirectLabel.
type Intent struct {
	Route Route
	Ref   label.Reference
}

var figureWords = []string{"figure", "image", "diagram", "fig "}

// Classify picks the route for a question. The checks run in contract order
// and the first match wins: explicit label, figure intent, table intent, then
// free text.
func Classify(question string) Intent {
	if ref, ok := label.FindReference(question); ok {
		return Intent{Route: RouteDirectLabel, Ref: ref}
	}
	q := strings.ToLower(question)
	for _, w := range figureWords {
		if strings.Contains(q, w) {
			return Intent{Route: RouteFigure}
		}
	}
	if strings.Contains(q, "table") {
		return Intent{Route: RouteTable}
	}
	return Intent{Route: RouteFreeText}
}
