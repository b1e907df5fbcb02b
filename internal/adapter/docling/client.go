// Package docling converts PDFs through a docling-serve sidecar. The
// adapter uploads the file, asks for the JSON export with embedded images,
// and maps the response onto the neutral document structure the pipeline
// consumes.
package docling

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"folio/internal/document"
)

type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 2 * time.Minute},
	}
}

type prov struct {
	PageNo int `json:"page_no"`
}

type tableCell struct {
	Text string `json:"text"`
}

type imageRef struct {
	URI string `json:"uri"`
}

type doclingDocument struct {
	Texts []struct {
		Text string `json:"text"`
		Prov []prov `json:"prov"`
	} `json:"texts"`
	Tables []struct {
		Prov []prov `json:"prov"`
		Data struct {
			Grid [][]tableCell `json:"grid"`
		} `json:"data"`
	} `json:"tables"`
	Pictures []struct {
		Prov  []prov    `json:"prov"`
		Image *imageRef `json:"image"`
	} `json:"pictures"`
	Pages map[string]struct {
		PageNo int       `json:"page_no"`
		Image  *imageRef `json:"image"`
	} `json:"pages"`
}

type convertResponse struct {
	Status   string `json:"status"`
	Document struct {
		JSONContent doclingDocument `json:"json_content"`
	} `json:"document"`
}

// Convert uploads the file at path and returns its structured form.
func (c *Client) Convert(ctx context.Context, path string) (*document.Converted, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("files", filepath.Base(path))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	mw.WriteField("to_formats", "json")
	mw.WriteField("image_export_mode", "embedded")
	if err := mw.Close(); err != nil {
		return nil, err
	}

	url := c.baseURL + "/v1alpha/convert/file"
	req, err := http.NewRequestWithContext(ctx, "POST", url, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("docling request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("docling convert error: %d", resp.StatusCode)
	}

	var result convertResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("docling response: %w", err)
	}
	if result.Status != "" && result.Status != "success" {
		return nil, fmt.Errorf("docling convert status %q", result.Status)
	}

	return mapDocument(&result.Document.JSONContent)
}

func mapDocument(doc *doclingDocument) (*document.Converted, error) {
	conv := &document.Converted{}
	maxPage := 0

	for _, t := range doc.Texts {
		page := firstPage(t.Prov)
		if page > maxPage {
			maxPage = page
		}
		conv.Texts = append(conv.Texts, document.TextUnit{Text: t.Text, Page: page})
	}

	for _, t := range doc.Tables {
		page := firstPage(t.Prov)
		if page > maxPage {
			maxPage = page
		}
		conv.Tables = append(conv.Tables, document.Table{
			Markdown: tableMarkdown(t.Data.Grid),
			Page:     page,
		})
	}

	for _, p := range doc.Pictures {
		if p.Image == nil || p.Image.URI == "" {
			continue
		}
		png, err := decodeDataURI(p.Image.URI)
		if err != nil {
			return nil, fmt.Errorf("picture image: %w", err)
		}
		page := 0
		if len(p.Prov) > 0 {
			page = p.Prov[0].PageNo
		}
		if page > maxPage {
			maxPage = page
		}
		conv.Pictures = append(conv.Pictures, document.Picture{PNG: png, Page: page})
	}

	for key, p := range doc.Pages {
		number := p.PageNo
		if number == 0 {
			fmt.Sscanf(key, "%d", &number)
		}
		if number > maxPage {
			maxPage = number
		}
		if p.Image == nil || p.Image.URI == "" {
			continue
		}
		png, err := decodeDataURI(p.Image.URI)
		if err != nil {
			return nil, fmt.Errorf("page %d image: %w", number, err)
		}
		conv.Pages = append(conv.Pages, document.Page{Number: number, PNG: png})
	}

	conv.PageCount = maxPage
	return conv, nil
}

// firstPage returns the first provenance page, defaulting to 1 so units
// without provenance still land on a real page.
func firstPage(provs []prov) int {
	if len(provs) == 0 {
		return 1
	}
	return provs[0].PageNo
}

// tableMarkdown renders a cell grid as a markdown pipe table with the first
// row as header.
func tableMarkdown(grid [][]tableCell) string {
	if len(grid) == 0 {
		return ""
	}
	var b strings.Builder
	for i, row := range grid {
		b.WriteString("|")
		for _, cell := range row {
			b.WriteString(" ")
			b.WriteString(strings.ReplaceAll(cell.Text, "|", "\\|"))
			b.WriteString(" |")
		}
		b.WriteString("\n")
		if i == 0 {
			b.WriteString("|")
			for range row {
				b.WriteString(" --- |")
			}
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func decodeDataURI(uri string) ([]byte, error) {
	idx := strings.Index(uri, "base64,")
	if idx < 0 {
		return nil, fmt.Errorf("unsupported image uri")
	}
	return base64.StdEncoding.DecodeString(uri[idx+len("base64,"):])
}
