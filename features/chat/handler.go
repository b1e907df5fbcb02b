// Package chat exposes question answering over an ingested corpus. Answers
// are HTML fragments: free text with figure and table blocks injected for any
// label references, or a directly rendered figure/table when the question
// asks for one.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"folio/features/corpus"
	"folio/internal/middleware"
)

// Answerer is the per-corpus question answering engine.
type Answerer interface {
	Answer(ctx context.Context, question string) (string, error)
}

// EngineFactory builds an Answerer bound to one corpus. Engines are cheap to
// construct; the heavy state lives in Postgres and Weaviate.
type EngineFactory func(corpusID string) Answerer

// CorpusGetter is the status lookup the gate needs; *corpus.PostgresRepo
// satisfies it.
type CorpusGetter interface {
	Get(ctx context.Context, id string) (*corpus.Corpus, error)
}

type Handler struct {
	corpora   CorpusGetter
	newEngine EngineFactory
	log       *ConversationLogger
}

func NewHandler(corpora CorpusGetter, newEngine EngineFactory, log *ConversationLogger) *Handler {
	return &Handler{corpora: corpora, newEngine: newEngine, log: log}
}

type askResponse struct {
	OK     bool   `json:"ok"`
	Answer string `json:"answer"`
}

func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(ctx, w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}
	if req.Question == "" {
		h.writeError(ctx, w, "VALIDATION_ERROR", "Question is required", http.StatusBadRequest)
		return
	}

	c, err := h.corpora.Get(ctx, id)
	if err != nil {
		if errors.Is(err, corpus.ErrNotFound) {
			h.writeError(ctx, w, "NOT_FOUND", "Corpus not found", http.StatusNotFound)
			return
		}
		h.writeError(ctx, w, "INTERNAL_ERROR", err.Error(), http.StatusInternalServerError)
		return
	}

	// Answering against a half-built index would return misleading results,
	// so the gate stays closed until ingestion lands.
	if c.Status != corpus.StatusCompleted {
		h.writeJSON(ctx, w, askResponse{OK: false, Answer: "Ingestion not finished."})
		return
	}

	start := time.Now()
	answer, err := h.newEngine(id).Answer(ctx, req.Question)
	if err != nil {
		slog.ErrorContext(ctx, "failed to answer question", "error", err, "corpus_id", id)
		h.writeError(ctx, w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if h.log != nil {
		h.log.Log(Entry{
			CorpusID:      id,
			Question:      req.Question,
			Answer:        answer,
			Duration:      time.Since(start),
			CorrelationID: middleware.GetCorrelationID(ctx),
		})
	}

	h.writeJSON(ctx, w, askResponse{OK: true, Answer: answer})
}

func (h *Handler) writeJSON(ctx context.Context, w http.ResponseWriter, resp askResponse) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": resp}); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
		"correlationId": middleware.GetCorrelationID(ctx),
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.ErrorContext(ctx, "failed to encode error response", "error", err)
	}
}
