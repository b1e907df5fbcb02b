package answer

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderMarkdownTable(t *testing.T) {
	out := RenderMarkdownTable("| A | B |\n|---|---|\n| 1 | 2 |")

	assert.Contains(t, out, "<table")
	assert.Contains(t, out, "<th style='border:1px solid #999;padding:4px;'>A</th>")
	assert.Contains(t, out, "<td style='border:1px solid #999;padding:4px;'>1</td>")
	// separator row is skipped, not rendered as cells
	assert.NotContains(t, out, ">---<")
}

func TestRenderMarkdownTable_EscapesCells(t *testing.T) {
	out := RenderMarkdownTable("| <b>x</b> |\n| a&b |")
	assert.Contains(t, out, "&lt;b&gt;x&lt;/b&gt;")
	assert.Contains(t, out, "a&amp;b")
}

func TestRenderMarkdownTable_NoPipesFallsBackToPre(t *testing.T) {
	out := RenderMarkdownTable("just a <paragraph> without pipes")
	assert.True(t, strings.HasPrefix(out, "<pre>"))
	assert.Contains(t, out, "&lt;paragraph&gt;")
	assert.NotContains(t, out, "<table")
}

func TestImageBlock(t *testing.T) {
	png := []byte("not-really-png")
	out := imageBlock("fig1: a 'nice' plot", png)

	assert.Contains(t, out, "data:image/png;base64,"+base64.StdEncoding.EncodeToString(png))
	assert.Contains(t, out, "alt='fig1: a &#39;nice&#39; plot'")
	assert.Contains(t, out, "<figcaption>fig1: a &#39;nice&#39; plot</figcaption>")
}

func TestTableBlock(t *testing.T) {
	out := tableBlock("table1: totals", "| A |\n| 1 |")

	assert.True(t, strings.HasPrefix(out, "<details open><summary>table1: totals</summary>"))
	assert.Contains(t, out, "<table")
	assert.True(t, strings.HasSuffix(out, "</details>"))
}
