package app_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"folio/internal/app"
	"folio/internal/chunk"
	"folio/internal/config"
	"folio/internal/document"
	"folio/internal/vector"
)

type stubVectorStore struct{}

func (s *stubVectorStore) Put(ctx context.Context, e vector.Entry) error { return nil }
func (s *stubVectorStore) Search(ctx context.Context, vec []float32, corpusID string, kind chunk.Kind, limit int) ([]vector.Hit, error) {
	return nil, nil
}
func (s *stubVectorStore) EnsureSchema(ctx context.Context) error                     { return nil }
func (s *stubVectorStore) DeleteByCorpus(ctx context.Context, corpusID string) error  { return nil }
func (s *stubVectorStore) Count(ctx context.Context) (int, error)                     { return 7, nil }

type stubPublisher struct{}

func (s *stubPublisher) Publish(topic string, body []byte) error { return nil }

type stubAI struct{}

func (s *stubAI) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1}, nil
}
func (s *stubAI) Generate(ctx context.Context, prompt string) (string, error) { return "ok", nil }
func (s *stubAI) CaptionText(ctx context.Context, instruction, text string) (string, error) {
	return "caption", nil
}
func (s *stubAI) CaptionImage(ctx context.Context, instruction string, png []byte) (string, error) {
	return "caption", nil
}

type stubConverter struct{}

func (s *stubConverter) Convert(ctx context.Context, path string) (*document.Converted, error) {
	return &document.Converted{}, nil
}

type stubOCR struct{}

func (s *stubOCR) Transcribe(ctx context.Context, image []byte) (string, error) { return "", nil }

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		ServerPort:      8081,
		UploadDir:       t.TempDir(),
		AssetDir:        t.TempDir(),
		ChatLogPath:     t.TempDir() + "/chat.log",
		MaxUploadSizeMB: 50,
	}
}

func newTestApp(t *testing.T) (*app.App, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	a, err := app.New(testConfig(t), db, &stubVectorStore{}, &stubPublisher{}, &stubAI{}, &stubConverter{}, &stubOCR{})
	if err != nil {
		t.Fatal(err)
	}
	return a, mock
}

func TestApp_Health(t *testing.T) {
	a, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	a.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestApp_Stats(t *testing.T) {
	a, mock := newTestApp(t)

	mock.ExpectQuery("SELECT COUNT").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery("SELECT COUNT").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rec := httptest.NewRecorder()
	a.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":{"corpora":2,"chunks":7,"failed_jobs":0}}`, rec.Body.String())
}

func TestApp_CorrelationIDHeader(t *testing.T) {
	a, mock := newTestApp(t)

	mock.ExpectQuery("SELECT id, name, status, files, error").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "status", "files", "error", "created_at", "updated_at"}))

	req := httptest.NewRequest(http.MethodGet, "/corpora", nil)
	rec := httptest.NewRecorder()
	a.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Correlation-ID"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestApp_UnknownJobRoute(t *testing.T) {
	a, mock := newTestApp(t)

	mock.ExpectQuery("SELECT id, corpus_id, status, error").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	req := httptest.NewRequest(http.MethodGet, "/jobs/missing", nil)
	rec := httptest.NewRecorder()
	a.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
