// Package app wires the feature handlers, the ingestion worker, and the HTTP
// server from bootstrapped dependencies.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"folio/features/chat"
	"folio/features/corpus"
	"folio/features/job"
	"folio/features/stats"
	"folio/internal/answer"
	"folio/internal/chunk"
	"folio/internal/config"
	"folio/internal/ingest"
	"folio/internal/middleware"
	"folio/internal/vector"
	"folio/internal/worker"
)

// VectorStore is everything the app needs from the vector backend.
type VectorStore interface {
	vector.Store
	EnsureSchema(ctx context.Context) error
	DeleteByCorpus(ctx context.Context, corpusID string) error
	Count(ctx context.Context) (int, error)
}

type TaskPublisher interface {
	Publish(topic string, body []byte) error
}

// AI bundles the model operations the pipeline and the answer engine share.
// *gemini.Client satisfies it.
type AI interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Generate(ctx context.Context, prompt string) (string, error)
	CaptionText(ctx context.Context, instruction, text string) (string, error)
	CaptionImage(ctx context.Context, instruction string, png []byte) (string, error)
}

type App struct {
	Handler        http.Handler
	IngestConsumer *worker.IngestConsumer
	CorpusService  *corpus.Service

	port int
}

func New(
	cfg *config.Config,
	db *sql.DB,
	vecStore VectorStore,
	taskPub TaskPublisher,
	ai AI,
	converter ingest.Converter,
	ocr ingest.OCR,
) (*App, error) {
	newChunkStore := func(corpusID string) chunk.Store {
		return chunk.NewPostgresStore(db, corpusID)
	}

	// Feature: Corpus
	corpusRepo := corpus.NewPostgresRepo(db)
	jobRepo := job.NewPostgresRepo(db)
	corpusService := corpus.NewService(corpusRepo, jobRepo, taskPub, vecStore, newChunkStore, cfg.UploadDir)
	corpusHandler := corpus.NewHandler(corpusService, cfg.UploadDir, cfg.MaxUploadSizeMB)

	// Feature: Job
	jobHandler := job.NewHandler(jobRepo)

	// Feature: Stats
	statsHandler := stats.NewHandler(corpusRepo, jobRepo, vecStore)

	// Feature: Chat
	conversationLog, err := chat.NewFileConversationLogger(cfg.ChatLogPath)
	if err != nil {
		slog.Warn("failed to create conversation logger, falling back to stdout", "error", err)
		conversationLog = chat.NewConversationLogger(os.Stdout)
	}
	newEngine := func(corpusID string) chat.Answerer {
		return answer.NewEngine(
			chunk.NewPostgresStore(db, corpusID),
			vector.NewIndex(vecStore, ai, corpusID),
			ai,
		)
	}
	chatHandler := chat.NewHandler(corpusRepo, newEngine, conversationLog)

	// Worker: ingestion pipeline behind the NSQ consumer
	pipeline := ingest.NewPipeline(converter, ocr, ai, ai, vecStore, newChunkStore, cfg.AssetDir)
	ingestConsumer := worker.NewIngestConsumer(&pipelineIngestor{pipeline: pipeline}, corpusRepo, jobRepo)

	// Middleware: CORS
	enableCORS := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next(w, r)
		}
	}

	// Routes
	mux := http.NewServeMux()

	mux.Handle("POST /corpora", middleware.CorrelationID(enableCORS(corpusHandler.Create)))
	mux.Handle("GET /corpora", middleware.CorrelationID(enableCORS(corpusHandler.List)))
	mux.Handle("GET /corpora/{id}", middleware.CorrelationID(enableCORS(corpusHandler.Get)))
	mux.Handle("DELETE /corpora/{id}", middleware.CorrelationID(enableCORS(corpusHandler.Delete)))
	mux.Handle("POST /corpora/{id}/reingest", middleware.CorrelationID(enableCORS(corpusHandler.Reingest)))
	mux.Handle("GET /corpora/{id}/jobs", middleware.CorrelationID(enableCORS(jobHandler.ListByCorpus)))
	mux.Handle("POST /corpora/{id}/chat", middleware.CorrelationID(enableCORS(chatHandler.Ask)))

	mux.Handle("GET /jobs/{id}", middleware.CorrelationID(enableCORS(jobHandler.Get)))

	mux.Handle("GET /stats", middleware.CorrelationID(enableCORS(statsHandler.GetStats)))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	return &App{
		Handler:        mux,
		IngestConsumer: ingestConsumer,
		CorpusService:  corpusService,
		port:           cfg.ServerPort,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.port),
		Handler: a.Handler,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down server...")
		if err := srv.Shutdown(context.Background()); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("server starting", "port", a.port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// pipelineIngestor adapts the pipeline to the worker's Ingestor; the worker
// does not need the returned handle.
type pipelineIngestor struct {
	pipeline *ingest.Pipeline
}

func (a *pipelineIngestor) Ingest(ctx context.Context, corpusID string, files []string) error {
	_, err := a.pipeline.Run(ctx, corpusID, files)
	return err
}
