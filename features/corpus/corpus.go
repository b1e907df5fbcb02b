// Package corpus owns the lifecycle of an uploaded document set: upload and
// dedupe, ingestion kickoff over NSQ, status, re-ingest, and deletion.
package corpus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"folio/internal/chunk"
	"folio/internal/config"
	"folio/internal/middleware"
	"folio/internal/worker"
)

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

var (
	ErrDuplicate = errors.New("duplicate corpus")
	ErrNotFound  = errors.New("corpus not found")
)

type Corpus struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Status      string    `json:"status"`
	Files       []string  `json:"files"`
	ContentHash string    `json:"-"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Repository interface {
	Save(ctx context.Context, c *Corpus) error
	ExistsByHash(ctx context.Context, hash string) (bool, error)
	Get(ctx context.Context, id string) (*Corpus, error)
	List(ctx context.Context, limit, offset int) ([]Corpus, error)
	UpdateStatus(ctx context.Context, id, status, errMsg string) error
	SoftDelete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// JobCreator opens one ingestion job row per attempt and returns its id.
type JobCreator interface {
	Create(ctx context.Context, corpusID string) (string, error)
}

type EventPublisher interface {
	Publish(topic string, body []byte) error
}

// VectorStore is the per-corpus purge deletion needs.
type VectorStore interface {
	DeleteByCorpus(ctx context.Context, corpusID string) error
}

type Service struct {
	repo      Repository
	jobs      JobCreator
	pub       EventPublisher
	vectors   VectorStore
	chunks    func(corpusID string) chunk.Store
	uploadDir string
}

func NewService(
	repo Repository,
	jobs JobCreator,
	pub EventPublisher,
	vectors VectorStore,
	chunks func(corpusID string) chunk.Store,
	uploadDir string,
) *Service {
	return &Service{repo: repo, jobs: jobs, pub: pub, vectors: vectors, chunks: chunks, uploadDir: uploadDir}
}

// Create registers an uploaded corpus, opens its first ingestion job, and
// publishes the ingestion task. The corpus must already be on disk; callers
// pass the stored file paths and the payload hash used for deduplication.
func (s *Service) Create(ctx context.Context, c *Corpus) (string, error) {
	exists, err := s.repo.ExistsByHash(ctx, c.ContentHash)
	if err != nil {
		return "", err
	}
	if exists {
		return "", ErrDuplicate
	}

	c.Status = StatusPending
	if err := s.repo.Save(ctx, c); err != nil {
		return "", err
	}

	jobID, err := s.publishTask(ctx, c)
	if err != nil {
		return "", err
	}

	slog.InfoContext(ctx, "corpus created", "corpus_id", c.ID, "job_id", jobID, "files", len(c.Files))
	return jobID, nil
}

type Detail struct {
	Corpus
	ChunkCount int `json:"chunk_count"`
}

func (s *Service) Get(ctx context.Context, id string) (*Detail, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	count, err := s.chunks(id).Count(ctx)
	if err != nil {
		slog.WarnContext(ctx, "failed to count chunks", "error", err, "corpus_id", id)
		count = 0
	}

	return &Detail{Corpus: *c, ChunkCount: count}, nil
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]Corpus, error) {
	return s.repo.List(ctx, limit, offset)
}

// Delete removes the corpus everywhere: vector entries, chunk rows, uploaded
// files, then the soft-deleted row.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	if err := s.vectors.DeleteByCorpus(ctx, id); err != nil {
		return fmt.Errorf("delete vectors: %w", err)
	}
	if err := s.chunks(id).Purge(ctx); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	if err := os.RemoveAll(filepath.Join(s.uploadDir, id)); err != nil {
		slog.WarnContext(ctx, "failed to remove uploaded files", "error", err, "corpus_id", id)
	}
	return s.repo.SoftDelete(ctx, id)
}

// Reingest opens a new job for an existing corpus and republishes the task.
// The pipeline rebuilds the chunk set wholesale, so no cleanup happens here.
func (s *Service) Reingest(ctx context.Context, id string) (string, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return "", err
	}

	if err := s.repo.UpdateStatus(ctx, id, StatusPending, ""); err != nil {
		return "", err
	}

	jobID, err := s.publishTask(ctx, c)
	if err != nil {
		return "", err
	}

	slog.InfoContext(ctx, "corpus re-ingestion queued", "corpus_id", id, "job_id", jobID)
	return jobID, nil
}

func (s *Service) publishTask(ctx context.Context, c *Corpus) (string, error) {
	jobID, err := s.jobs.Create(ctx, c.ID)
	if err != nil {
		return "", fmt.Errorf("create ingestion job: %w", err)
	}

	payload, err := json.Marshal(worker.IngestTask{
		CorpusID:      c.ID,
		JobID:         jobID,
		Files:         c.Files,
		CorrelationID: middleware.GetCorrelationID(ctx),
	})
	if err != nil {
		return "", err
	}
	if err := s.pub.Publish(config.TopicIngestCorpus, payload); err != nil {
		slog.ErrorContext(ctx, "failed to publish ingest task", "error", err, "corpus_id", c.ID)
		return "", fmt.Errorf("publish ingest task: %w", err)
	}
	return jobID, nil
}
