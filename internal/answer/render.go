package answer

import (
	"encoding/base64"
	"fmt"
	"html"
	"regexp"
	"strings"
)

const (
	cellStyle  = "border:1px solid #999;padding:4px;"
	tableStyle = "border-collapse:collapse;width:100%;margin:.6em 0;border:1px solid #999;"
)

// separatorRow matches a markdown header separator like "|---|:---:|".
var separatorRow = regexp.MustCompile(`^\s*[:\-| ]+\s*$`)

// RenderMarkdownTable converts a pipe table to a bordered HTML table: first
// row as header cells, separator rows skipped, cells escaped. Markdown with
// no pipe characters degrades to preformatted text instead of failing.
func RenderMarkdownTable(md string) string {
	var rows []string
	for _, line := range strings.Split(md, "\n") {
		if strings.Contains(line, "|") {
			rows = append(rows, strings.TrimSpace(line))
		}
	}
	if len(rows) == 0 {
		return "<pre>" + html.EscapeString(md) + "</pre>"
	}

	var b strings.Builder
	b.WriteString("<table style='" + tableStyle + "'>")
	b.WriteString("<thead><tr>")
	for _, c := range splitRow(rows[0]) {
		b.WriteString("<th style='" + cellStyle + "'>" + html.EscapeString(c) + "</th>")
	}
	b.WriteString("</tr></thead>")
	for _, row := range rows[1:] {
		if separatorRow.MatchString(row) {
			continue
		}
		b.WriteString("<tr>")
		for _, c := range splitRow(row) {
			b.WriteString("<td style='" + cellStyle + "'>" + html.EscapeString(c) + "</td>")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</table>")
	return b.String()
}

func splitRow(row string) []string {
	cells := strings.Split(strings.Trim(row, "|"), "|")
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	return cells
}

// imageBlock renders a captioned inline image; the caption doubles as
// alt text.
func imageBlock(caption string, png []byte) string {
	esc := html.EscapeString(caption)
	return fmt.Sprintf(
		"<figure><img src='data:image/png;base64,%s' alt='%s' style='max-width:100%%;height:auto;'><figcaption>%s</figcaption></figure>",
		base64.StdEncoding.EncodeToString(png), esc, esc)
}

// tableBlock renders a table as a collapsible container, initially expanded,
// with the caption as its summary line.
func tableBlock(caption, md string) string {
	return "<details open><summary>" + html.EscapeString(caption) + "</summary>" + RenderMarkdownTable(md) + "</details>"
}
