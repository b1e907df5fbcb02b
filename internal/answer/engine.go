package answer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"folio/internal/chunk"
	"folio/internal/label"
	"folio/internal/vector"
)

const contextTopK = 6

// Searcher is the kind-filtered similarity search the engine reads from.
type Searcher interface {
	Search(ctx context.Context, query string, k int, kind chunk.Kind) ([]vector.Hit, error)
}

// Generator produces the free-text answer for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Engine answers questions for one ingested corpus. Construct it from the
// handle returned by ingestion; it must not be built for a corpus that has
// not finished ingesting.
type Engine struct {
	chunks    chunk.Store
	index     Searcher
	generator Generator
}

func NewEngine(chunks chunk.Store, index Searcher, generator Generator) *Engine {
	return &Engine{chunks: chunks, index: index, generator: generator}
}

// Answer routes the question per Classify and returns HTML markup. Label
// references that resolve to nothing come back as their literal text, never
// as an error.
func (e *Engine) Answer(ctx context.Context, question string) (string, error) {
	intent := Classify(question)
	switch intent.Route {
	case RouteDirectLabel:
		kind := chunk.KindImage
		if intent.Ref.IsTable() {
			kind = chunk.KindTable
		}
		return e.resolveLabel(ctx, intent.Ref.Text, kind)
	case RouteFigure:
		return e.bestMatchBlock(ctx, question, chunk.KindImage)
	case RouteTable:
		return e.bestMatchBlock(ctx, question, chunk.KindTable)
	}
	return e.freeText(ctx, question)
}

// resolveLabel renders the single best hit for an explicit label mention,
// or returns the mention unchanged when nothing matches.
func (e *Engine) resolveLabel(ctx context.Context, labelText string, kind chunk.Kind) (string, error) {
	c, err := e.topHit(ctx, labelText, kind)
	if err != nil {
		return "", err
	}
	if c == nil {
		return labelText, nil
	}
	return e.renderBlock(c, kind)
}

// bestMatchBlock renders the best hit of one kind for a descriptive request.
func (e *Engine) bestMatchBlock(ctx context.Context, question string, kind chunk.Kind) (string, error) {
	c, err := e.topHit(ctx, question, kind)
	if err != nil {
		return "", err
	}
	if c == nil {
		name := "image"
		if kind == chunk.KindTable {
			name = "table"
		}
		return fmt.Sprintf("<em>No %s matches that description.</em>", name), nil
	}
	return e.renderBlock(c, kind)
}

// freeText generates an answer over text-kind context, then replaces every
// label mention in the generated text with its rendered block. Mentions that
// resolve to nothing stay as written.
func (e *Engine) freeText(ctx context.Context, question string) (string, error) {
	hits, err := e.index.Search(ctx, question, contextTopK, chunk.KindText)
	if err != nil {
		return "", fmt.Errorf("retrieve context: %w", err)
	}

	parts := make([]string, 0, len(hits))
	for _, hit := range hits {
		c, err := e.chunks.Get(ctx, hit.ChunkID)
		if err != nil {
			return "", fmt.Errorf("fetch context chunk %d: %w", hit.ChunkID, err)
		}
		parts = append(parts, c.Content)
	}

	prompt := fmt.Sprintf("Use the context below to answer the question.\n\nContext:\n%s\n\nQ: %s\nA:",
		strings.Join(parts, "\n\n"), question)
	generated, err := e.generator.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}

	htmlAnswer := strings.ReplaceAll(strings.TrimSpace(generated), "\n", "<br>")
	htmlAnswer = label.ReplaceReferences(htmlAnswer, func(r label.Reference) string {
		kind := chunk.KindImage
		if r.IsTable() {
			kind = chunk.KindTable
		}
		block, err := e.resolveLabel(ctx, r.Text, kind)
		if err != nil {
			slog.WarnContext(ctx, "label injection failed, leaving literal text", "label", r.Text, "error", err)
			return r.Text
		}
		return block
	})
	return htmlAnswer, nil
}

// topHit cleans the query, searches one kind, and materializes the best hit
// from the chunk store. A nil chunk with nil error means no match.
func (e *Engine) topHit(ctx context.Context, query string, kind chunk.Kind) (*chunk.Chunk, error) {
	hits, err := e.index.Search(ctx, CleanQuery(query), 1, kind)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", kind, err)
	}
	if len(hits) == 0 {
		return nil, nil
	}
	c, err := e.chunks.Get(ctx, hits[0].ChunkID)
	if err != nil {
		return nil, fmt.Errorf("fetch chunk %d: %w", hits[0].ChunkID, err)
	}
	return c, nil
}

func (e *Engine) renderBlock(c *chunk.Chunk, kind chunk.Kind) (string, error) {
	if kind == chunk.KindImage {
		png, err := os.ReadFile(c.MediaPath)
		if err != nil {
			return "", fmt.Errorf("read image asset %s: %w", c.MediaPath, err)
		}
		return imageBlock(c.Caption, png), nil
	}
	return tableBlock(c.Caption, c.Content), nil
}
