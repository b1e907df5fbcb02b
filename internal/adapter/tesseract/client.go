// Package tesseract adapts the Tesseract OCR engine (via gosseract) to the
// transcription contract the ingestion pipeline consumes. Tesseract must be
// installed on the host; on Debian/Ubuntu:
//
//	apt-get install tesseract-ocr libtesseract-dev
package tesseract

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"
)

type Client struct {
	// gosseract holds per-call image state, so calls are serialized
	mu     sync.Mutex
	client *gosseract.Client
}

// NewClient builds an OCR client. language is a Tesseract language code,
// "+"-separated for multiple ("eng+fra"); empty keeps the engine default.
func NewClient(language string) (*Client, error) {
	c := gosseract.NewClient()
	if language != "" {
		if err := c.SetLanguage(language); err != nil {
			c.Close()
			return nil, fmt.Errorf("set ocr language %q: %w", language, err)
		}
	}
	return &Client{client: c}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// Transcribe runs OCR over an image (PNG, JPEG, TIFF) and returns the
// recognized text, trimmed.
func (c *Client) Transcribe(ctx context.Context, image []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("set ocr image: %w", err)
	}
	text, err := c.client.Text()
	if err != nil {
		return "", fmt.Errorf("ocr: %w", err)
	}
	return strings.TrimSpace(text), nil
}
