// Package vector owns the derived side of a corpus: which text gets embedded
// per chunk kind, and kind-filtered nearest-neighbor search over the
// resulting entries. The actual storage backend and embedding function are
// injected.
package vector

import (
	"context"
	"fmt"

	"folio/internal/chunk"
)

// Entry is one indexed chunk: embedding vector plus lookup metadata. Entries
// are append-only during ingestion and never mutated afterward.
type Entry struct {
	CorpusID string
	ChunkID  int64
	Source   string
	Page     int
	Kind     chunk.Kind
	Content  string
	Caption  string
	LabelKey string
	Vector   []float32
}

// Hit is one search result. Hits are ordered best-first.
type Hit struct {
	ChunkID int64
	Score   float64
}

// Embedder turns text into a fixed-size vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Store persists entries and ranks them by vector similarity. An empty kind
// matches all kinds.
type Store interface {
	Put(ctx context.Context, e Entry) error
	Search(ctx context.Context, vec []float32, corpusID string, kind chunk.Kind, limit int) ([]Hit, error)
}

// Index is the vector index for one corpus.
type Index struct {
	store    Store
	embedder Embedder
	corpusID string
}

func NewIndex(store Store, embedder Embedder, corpusID string) *Index {
	return &Index{store: store, embedder: embedder, corpusID: corpusID}
}

// EntryText picks what gets embedded for a chunk: caption and content joined
// for image and table kinds, raw content otherwise. Captioning must have
// completed before entries are added, so the embedded text never goes stale.
func EntryText(c *chunk.Chunk) string {
	if c.Kind == chunk.KindImage || c.Kind == chunk.KindTable {
		return c.Caption + "\n" + c.Content
	}
	return c.Content
}

// Add embeds and stores one entry per chunk, in order.
func (i *Index) Add(ctx context.Context, chunks []chunk.Chunk) error {
	for idx := range chunks {
		c := &chunks[idx]
		vec, err := i.embedder.Embed(ctx, EntryText(c))
		if err != nil {
			return fmt.Errorf("embed chunk %d: %w", c.ID, err)
		}
		entry := Entry{
			CorpusID: i.corpusID,
			ChunkID:  c.ID,
			Source:   c.Source,
			Page:     c.Page,
			Kind:     c.Kind,
			Content:  c.Content,
			Caption:  c.Caption,
			LabelKey: c.LabelKey,
			Vector:   vec,
		}
		if err := i.store.Put(ctx, entry); err != nil {
			return fmt.Errorf("index chunk %d: %w", c.ID, err)
		}
	}
	return nil
}

// Search embeds the query and returns up to k nearest entries, best first,
// restricted to one kind when kind is non-empty.
func (i *Index) Search(ctx context.Context, query string, k int, kind chunk.Kind) ([]Hit, error) {
	vec, err := i.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return i.store.Search(ctx, vec, i.corpusID, kind, k)
}
