package stats

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"folio/internal/middleware"
)

type CorpusRepo interface {
	Count(ctx context.Context) (int, error)
}

type JobRepo interface {
	CountErrored(ctx context.Context) (int, error)
}

type VectorStore interface {
	Count(ctx context.Context) (int, error)
}

type Handler struct {
	corpusRepo  CorpusRepo
	jobRepo     JobRepo
	vectorStore VectorStore
}

func NewHandler(c CorpusRepo, j JobRepo, v VectorStore) *Handler {
	return &Handler{corpusRepo: c, jobRepo: j, vectorStore: v}
}

type StatsResponse struct {
	Corpora    int `json:"corpora"`
	Chunks     int `json:"chunks"`
	FailedJobs int `json:"failed_jobs"`
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	correlationID := middleware.GetCorrelationID(ctx)

	slog.InfoContext(ctx, "getting stats", "correlationId", correlationID)

	cCount, err := h.corpusRepo.Count(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count corpora", "error", err, "correlationId", correlationID)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to count corpora", http.StatusInternalServerError)
		return
	}

	jCount, err := h.jobRepo.CountErrored(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count failed jobs", "error", err, "correlationId", correlationID)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to count failed jobs", http.StatusInternalServerError)
		return
	}

	chCount, err := h.vectorStore.Count(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count chunks", "error", err, "correlationId", correlationID)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to count chunks", http.StatusInternalServerError)
		return
	}

	resp := StatsResponse{
		Corpora:    cCount,
		Chunks:     chCount,
		FailedJobs: jCount,
	}

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
		slog.Error("failed to encode error response", "error", err)
	}
}
