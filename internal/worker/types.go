package worker

import "context"

// IngestTask is the message carried on the ingest.corpus topic, one per
// ingestion attempt.
type IngestTask struct {
	CorpusID      string   `json:"corpus_id"`
	JobID         string   `json:"job_id"`
	Files         []string `json:"files"`
	CorrelationID string   `json:"correlation_id,omitempty"`
}

// Ingestor runs the full chunking and indexing pipeline for one corpus.
type Ingestor interface {
	Ingest(ctx context.Context, corpusID string, files []string) error
}

type CorpusMarker interface {
	UpdateStatus(ctx context.Context, id, status, errMsg string) error
}

type JobMarker interface {
	SetStatus(ctx context.Context, id, status, errMsg string) error
}
