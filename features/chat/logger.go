package chat

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Entry is one question/answer exchange, written as a JSON line.
type Entry struct {
	Timestamp     time.Time     `json:"timestamp"`
	CorpusID      string        `json:"corpus_id"`
	Question      string        `json:"question"`
	Answer        string        `json:"answer"`
	Duration      time.Duration `json:"duration_ns"`
	LatencyMs     int64         `json:"latency_ms"`
	CorrelationID string        `json:"correlation_id"`
}

type ConversationLogger struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewConversationLogger(w io.Writer) *ConversationLogger {
	return &ConversationLogger{writer: w}
}

func NewFileConversationLogger(path string) (*ConversationLogger, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, err
	}

	cleanPath := filepath.Clean(path)
	f, err := os.OpenFile(cleanPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600) // #nosec G304 -- path is from application config, not user input
	if err != nil {
		return nil, err
	}
	mw := io.MultiWriter(os.Stdout, f)
	return NewConversationLogger(mw), nil
}

func (l *ConversationLogger) Log(entry Entry) {
	entry.Timestamp = time.Now()
	entry.LatencyMs = entry.Duration.Milliseconds()

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := json.NewEncoder(l.writer).Encode(entry); err != nil {
		slog.Error("failed to write conversation log entry", "error", err)
	}
}
