// Package worker consumes ingestion tasks from NSQ and drives the pipeline,
// recording progress on the corpus and its job row.
package worker

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/nsqio/go-nsq"

	"folio/internal/middleware"
)

const (
	corpusProcessing = "processing"
	corpusCompleted  = "completed"
	corpusFailed     = "failed"

	jobProcessing = "processing"
	jobDone       = "done"
	jobError      = "error"
)

type IngestConsumer struct {
	ingestor Ingestor
	corpora  CorpusMarker
	jobs     JobMarker
}

func NewIngestConsumer(ingestor Ingestor, corpora CorpusMarker, jobs JobMarker) *IngestConsumer {
	return &IngestConsumer{ingestor: ingestor, corpora: corpora, jobs: jobs}
}

func (h *IngestConsumer) HandleMessage(m *nsq.Message) error {
	if len(m.Body) == 0 {
		return nil
	}

	var task IngestTask
	err := json.Unmarshal(m.Body, &task)

	correlationID := task.CorrelationID
	if correlationID == "" {
		correlationID = uuid.New().String()
	}
	ctx := middleware.WithCorrelationID(context.Background(), correlationID)

	if err != nil {
		slog.ErrorContext(ctx, "invalid message format", "error", err)
		return nil // Don't retry invalid messages
	}

	if task.CorpusID == "" || task.JobID == "" || len(task.Files) == 0 {
		slog.ErrorContext(ctx, "missing required fields, dropping", "corpus_id", task.CorpusID, "job_id", task.JobID)
		return nil
	}

	// Status writes hit Postgres only, so a failure here is transient; requeue.
	if err := h.corpora.UpdateStatus(ctx, task.CorpusID, corpusProcessing, ""); err != nil {
		slog.WarnContext(ctx, "failed to mark corpus processing", "error", err, "corpus_id", task.CorpusID)
		return err
	}
	if err := h.jobs.SetStatus(ctx, task.JobID, jobProcessing, ""); err != nil {
		slog.WarnContext(ctx, "failed to mark job processing", "error", err, "job_id", task.JobID)
		return err
	}

	slog.InfoContext(ctx, "ingesting corpus", "corpus_id", task.CorpusID, "job_id", task.JobID, "files", len(task.Files))

	if err := h.ingestor.Ingest(ctx, task.CorpusID, task.Files); err != nil {
		slog.ErrorContext(ctx, "ingestion failed", "error", err, "corpus_id", task.CorpusID)
		// The pipeline is not idempotent mid-run; record the failure and let
		// the operator retry through re-ingest instead of requeueing.
		if uerr := h.corpora.UpdateStatus(ctx, task.CorpusID, corpusFailed, err.Error()); uerr != nil {
			slog.WarnContext(ctx, "failed to mark corpus failed", "error", uerr, "corpus_id", task.CorpusID)
		}
		if uerr := h.jobs.SetStatus(ctx, task.JobID, jobError, err.Error()); uerr != nil {
			slog.WarnContext(ctx, "failed to mark job errored", "error", uerr, "job_id", task.JobID)
		}
		return nil
	}

	if err := h.corpora.UpdateStatus(ctx, task.CorpusID, corpusCompleted, ""); err != nil {
		slog.WarnContext(ctx, "failed to mark corpus completed", "error", err, "corpus_id", task.CorpusID)
		return err
	}
	if err := h.jobs.SetStatus(ctx, task.JobID, jobDone, ""); err != nil {
		slog.WarnContext(ctx, "failed to mark job done", "error", err, "job_id", task.JobID)
		return err
	}

	slog.InfoContext(ctx, "corpus ingestion completed", "corpus_id", task.CorpusID, "job_id", task.JobID)
	return nil
}
