package corpus

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"folio/internal/middleware"
)

type Handler struct {
	service   *Service
	uploadDir string
	maxBytes  int64
}

func NewHandler(service *Service, uploadDir string, maxUploadMB int64) *Handler {
	return &Handler{service: service, uploadDir: uploadDir, maxBytes: maxUploadMB << 20}
}

// Create accepts a multipart upload of one or more PDFs under the "files"
// field, stores them under a fresh corpus directory, and queues ingestion.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)

	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		h.writeError(r.Context(), w, "BAD_REQUEST", "Upload too large", http.StatusBadRequest)
		return
	}

	name := r.FormValue("name")
	if name == "" {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "Name is required", http.StatusBadRequest)
		return
	}

	uploads := r.MultipartForm.File["files"]
	if len(uploads) == 0 {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "At least one file is required", http.StatusBadRequest)
		return
	}
	for _, fh := range uploads {
		if strings.ToLower(filepath.Ext(fh.Filename)) != ".pdf" {
			h.writeError(r.Context(), w, "BAD_REQUEST", "Only PDF files are supported", http.StatusBadRequest)
			return
		}
	}

	corpusID := uuid.New().String()
	dir := filepath.Join(h.uploadDir, corpusID)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		slog.Error("failed to create upload directory", "error", err, "path", filepath.Clean(dir))
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "Failed to create upload directory", http.StatusInternalServerError)
		return
	}

	// One hash across all files in upload order; the corpus dedupes as a set.
	hash := sha256.New()
	var stored []string
	for _, fh := range uploads {
		path, err := h.storeFile(fh, dir, hash)
		if err != nil {
			h.cleanup(r.Context(), dir)
			slog.Error("failed to store upload", "error", err, "file", filepath.Base(fh.Filename))
			h.writeError(r.Context(), w, "INTERNAL_ERROR", "Failed to save file", http.StatusInternalServerError)
			return
		}
		stored = append(stored, path)
	}

	c := &Corpus{
		ID:          corpusID,
		Name:        name,
		Files:       stored,
		ContentHash: fmt.Sprintf("%x", hash.Sum(nil)),
	}
	jobID, err := h.service.Create(r.Context(), c)
	if err != nil {
		h.cleanup(r.Context(), dir)
		if errors.Is(err, ErrDuplicate) {
			h.writeError(r.Context(), w, "CONFLICT", "Duplicate detected", http.StatusConflict)
			return
		}
		slog.Error("operation failed", "error", err, "corpus_id", corpusID)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"data": map[string]interface{}{"corpus": c, "job_id": jobID},
	}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) storeFile(fh *multipart.FileHeader, dir string, hash io.Writer) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	filename := fmt.Sprintf("%s_%s", uuid.New().String(), filepath.Base(fh.Filename))
	path := filepath.Clean(filepath.Join(dir, filename))

	dst, err := os.Create(path) // #nosec G304 -- path is UUID-based under the configured upload dir
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(io.MultiWriter(dst, hash), src); err != nil {
		return "", err
	}
	return path, nil
}

func (h *Handler) cleanup(ctx context.Context, dir string) {
	if err := os.RemoveAll(dir); err != nil {
		slog.WarnContext(ctx, "failed to clean up upload directory", "error", err, "path", filepath.Clean(dir))
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit := 100
	offset := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil {
			limit = parsed
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil {
			offset = parsed
		}
	}

	corpora, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		h.writeError(r.Context(), w, "INTERNAL_ERROR", err.Error(), http.StatusInternalServerError)
		return
	}

	// Ensure we return [] instead of null for empty list
	if corpora == nil {
		corpora = []Corpus{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"data": corpora,
		"meta": map[string]int{"count": len(corpora)},
	}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	detail, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			h.writeError(r.Context(), w, "NOT_FOUND", "Corpus not found", http.StatusNotFound)
			return
		}
		h.writeError(r.Context(), w, "INTERNAL_ERROR", err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": detail}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.service.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			h.writeError(r.Context(), w, "NOT_FOUND", "Corpus not found", http.StatusNotFound)
			return
		}
		h.writeError(r.Context(), w, "INTERNAL_ERROR", err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) Reingest(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	jobID, err := h.service.Reingest(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			h.writeError(r.Context(), w, "NOT_FOUND", "Corpus not found", http.StatusNotFound)
			return
		}
		h.writeError(r.Context(), w, "INTERNAL_ERROR", err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"data": map[string]string{"corpus_id": id, "job_id": jobID},
	}); err != nil {
		slog.Error("failed to encode response", "error", err)
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
