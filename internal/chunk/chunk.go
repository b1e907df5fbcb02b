// Package chunk holds the atomic indexed unit of a corpus and its durable
// store. A chunk's content is the source of truth for rendering; the vector
// index only carries derived embeddings plus lookup metadata.
package chunk

import (
	"context"
	"errors"
)

// Kind classifies what a chunk's content holds.
type Kind string

const (
	KindText     Kind = "text"
	KindEquation Kind = "equation"
	KindTable    Kind = "table"
	KindImage    Kind = "image"
	// KindPage marks whole-page OCR text substituted when structural
	// extraction produced nothing for that page.
	KindPage Kind = "page"
)

// Chunk is one classified, retrievable unit of extracted document content.
// IDs are assigned by the ingestion pipeline in insertion order, start at 1
// per corpus, and are never reused. Caption is set only for table and image
// kinds; MediaPath only for image kinds; LabelKey only when a figure/table
// designator was recognized.
type Chunk struct {
	ID        int64  `json:"id"`
	Source    string `json:"source"`
	Page      int    `json:"page"`
	Kind      Kind   `json:"kind"`
	Content   string `json:"content"`
	Caption   string `json:"caption,omitempty"`
	MediaPath string `json:"media_path,omitempty"`
	LabelKey  string `json:"label_key,omitempty"`
}

var ErrNotFound = errors.New("chunk not found")

// Store is the registry of one corpus's chunks. Implementations are bound to
// a corpus at construction, so a re-ingest can build a fresh store over the
// same rows after Purge.
type Store interface {
	Put(ctx context.Context, c *Chunk) error
	Get(ctx context.Context, id int64) (*Chunk, error)
	All(ctx context.Context) ([]Chunk, error)
	BySourcePageKind(ctx context.Context, source string, page int, kind Kind) ([]Chunk, error)
	// SetCaption is the only mutation permitted after ingestion inserts a row.
	SetCaption(ctx context.Context, id int64, caption string) error
	Purge(ctx context.Context) error
	Count(ctx context.Context) (int, error)
}
