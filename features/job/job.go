// Package job tracks ingestion attempts. Every publish of an ingest task
// opens one job row; the worker moves it through its lifecycle.
package job

import (
	"context"
	"errors"
	"time"
)

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusDone       = "done"
	StatusError      = "error"
)

var ErrNotFound = errors.New("job not found")

type Job struct {
	ID        string    `json:"id"`
	CorpusID  string    `json:"corpus_id"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Repository interface {
	Create(ctx context.Context, corpusID string) (string, error)
	Get(ctx context.Context, id string) (*Job, error)
	ListByCorpus(ctx context.Context, corpusID string) ([]Job, error)
	SetStatus(ctx context.Context, id, status, errMsg string) error
	CountErrored(ctx context.Context) (int, error)
}
