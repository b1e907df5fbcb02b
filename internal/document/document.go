// Package document defines the structure a conversion backend produces for
// one source file. The ingestion pipeline consumes it without knowing which
// backend built it.
package document

// Converted is the structured form of one converted PDF.
type Converted struct {
	Texts     []TextUnit
	Tables    []Table
	Pictures  []Picture
	Pages     []Page
	PageCount int
}

// TextUnit is one structural text block with its page provenance.
type TextUnit struct {
	Text string
	Page int
}

// Table is one structural table exported to a markdown pipe table.
type Table struct {
	Markdown string
	Page     int
}

// Picture is one embedded figure rendered to PNG. Page is 0 when the
// backend could not attribute the picture to a page.
type Picture struct {
	PNG  []byte
	Page int
}

// Page is a full-page raster used for OCR fallback.
type Page struct {
	Number int
	PNG    []byte
}

// PageImage returns the raster for a 1-based page number.
func (c *Converted) PageImage(number int) ([]byte, bool) {
	for _, p := range c.Pages {
		if p.Number == number {
			return p.PNG, true
		}
	}
	return nil, false
}
