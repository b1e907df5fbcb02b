// Package gemini adapts the Google generative AI SDK to the embedding,
// captioning, and free-text generation contracts the ingestion pipeline and
// answer engine consume.
package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	embedModel = "gemini-embedding-001"
	genModel   = "gemini-1.5-flash-latest"
)

type Client struct {
	client *genai.Client
}

// NewClient builds a Gemini client. Extra options are appended after the API
// key, so tests can point the client at a local server with
// option.WithEndpoint.
func NewClient(ctx context.Context, apiKey string, opts ...option.ClientOption) (*Client, error) {
	clientOpts := append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	c, err := genai.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, err
	}
	return &Client{client: c}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// Embed returns the embedding vector for text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	slog.DebugContext(ctx, "embedding content", "model", embedModel, "length", len(text))
	em := c.client.EmbeddingModel(embedModel)
	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		slog.ErrorContext(ctx, "embedding failed", "error", err)
		return nil, err
	}
	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, fmt.Errorf("empty embedding received")
	}
	return res.Embedding.Values, nil
}

// Generate answers a free-text prompt.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, genai.Text(prompt))
}

// CaptionText asks for a caption of a text block, typically a markdown table.
func (c *Client) CaptionText(ctx context.Context, instruction, text string) (string, error) {
	return c.generate(ctx, genai.Text(instruction+"\n"+text))
}

// CaptionImage asks for a caption of a rendered PNG.
func (c *Client) CaptionImage(ctx context.Context, instruction string, png []byte) (string, error) {
	return c.generate(ctx, genai.Text(instruction), genai.ImageData("png", png))
}

func (c *Client) generate(ctx context.Context, parts ...genai.Part) (string, error) {
	model := c.client.GenerativeModel(genModel)
	res, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		slog.ErrorContext(ctx, "generation failed", "model", genModel, "error", err)
		return "", err
	}
	out := responseText(res)
	if out == "" {
		return "", fmt.Errorf("empty generation response")
	}
	return out, nil
}

func responseText(res *genai.GenerateContentResponse) string {
	var sb strings.Builder
	for _, cand := range res.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				sb.WriteString(string(t))
			}
		}
	}
	return strings.TrimSpace(sb.String())
}
