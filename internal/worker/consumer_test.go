package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/nsqio/go-nsq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockIngestor struct {
	mock.Mock
}

func (m *MockIngestor) Ingest(ctx context.Context, corpusID string, files []string) error {
	args := m.Called(ctx, corpusID, files)
	return args.Error(0)
}

type MockCorpusMarker struct {
	mock.Mock
}

func (m *MockCorpusMarker) UpdateStatus(ctx context.Context, id, status, errMsg string) error {
	args := m.Called(ctx, id, status, errMsg)
	return args.Error(0)
}

type MockJobMarker struct {
	mock.Mock
}

func (m *MockJobMarker) SetStatus(ctx context.Context, id, status, errMsg string) error {
	args := m.Called(ctx, id, status, errMsg)
	return args.Error(0)
}

func newMessage(t *testing.T, task IngestTask) *nsq.Message {
	t.Helper()
	body, err := json.Marshal(task)
	if err != nil {
		t.Fatal(err)
	}
	return nsq.NewMessage(nsq.MessageID{}, body)
}

func TestIngestConsumer_Success(t *testing.T) {
	ingestor := new(MockIngestor)
	corpora := new(MockCorpusMarker)
	jobs := new(MockJobMarker)

	corpora.On("UpdateStatus", mock.Anything, "c1", "processing", "").Return(nil)
	jobs.On("SetStatus", mock.Anything, "j1", "processing", "").Return(nil)
	ingestor.On("Ingest", mock.Anything, "c1", []string{"a.pdf"}).Return(nil)
	corpora.On("UpdateStatus", mock.Anything, "c1", "completed", "").Return(nil)
	jobs.On("SetStatus", mock.Anything, "j1", "done", "").Return(nil)

	consumer := NewIngestConsumer(ingestor, corpora, jobs)
	err := consumer.HandleMessage(newMessage(t, IngestTask{
		CorpusID: "c1", JobID: "j1", Files: []string{"a.pdf"},
	}))

	assert.NoError(t, err)
	ingestor.AssertExpectations(t)
	corpora.AssertExpectations(t)
	jobs.AssertExpectations(t)
}

func TestIngestConsumer_PipelineFailureIsRecordedNotRequeued(t *testing.T) {
	ingestor := new(MockIngestor)
	corpora := new(MockCorpusMarker)
	jobs := new(MockJobMarker)

	corpora.On("UpdateStatus", mock.Anything, "c1", "processing", "").Return(nil)
	jobs.On("SetStatus", mock.Anything, "j1", "processing", "").Return(nil)
	ingestor.On("Ingest", mock.Anything, "c1", []string{"a.pdf"}).Return(errors.New("docling unreachable"))
	corpora.On("UpdateStatus", mock.Anything, "c1", "failed", "docling unreachable").Return(nil)
	jobs.On("SetStatus", mock.Anything, "j1", "error", "docling unreachable").Return(nil)

	consumer := NewIngestConsumer(ingestor, corpora, jobs)
	err := consumer.HandleMessage(newMessage(t, IngestTask{
		CorpusID: "c1", JobID: "j1", Files: []string{"a.pdf"},
	}))

	// nil so NSQ does not redeliver; the failure lives on the corpus and job.
	assert.NoError(t, err)
	corpora.AssertExpectations(t)
	jobs.AssertExpectations(t)
}

func TestIngestConsumer_InvalidJSONIsDropped(t *testing.T) {
	ingestor := new(MockIngestor)
	consumer := NewIngestConsumer(ingestor, new(MockCorpusMarker), new(MockJobMarker))

	err := consumer.HandleMessage(nsq.NewMessage(nsq.MessageID{}, []byte("{not json")))

	assert.NoError(t, err)
	ingestor.AssertNotCalled(t, "Ingest", mock.Anything, mock.Anything, mock.Anything)
}

func TestIngestConsumer_MissingFieldsAreDropped(t *testing.T) {
	ingestor := new(MockIngestor)
	consumer := NewIngestConsumer(ingestor, new(MockCorpusMarker), new(MockJobMarker))

	err := consumer.HandleMessage(newMessage(t, IngestTask{CorpusID: "c1"}))

	assert.NoError(t, err)
	ingestor.AssertNotCalled(t, "Ingest", mock.Anything, mock.Anything, mock.Anything)
}

func TestIngestConsumer_EmptyBody(t *testing.T) {
	consumer := NewIngestConsumer(new(MockIngestor), new(MockCorpusMarker), new(MockJobMarker))
	assert.NoError(t, consumer.HandleMessage(nsq.NewMessage(nsq.MessageID{}, nil)))
}

func TestIngestConsumer_StatusUpdateFailureRequeues(t *testing.T) {
	ingestor := new(MockIngestor)
	corpora := new(MockCorpusMarker)
	jobs := new(MockJobMarker)

	corpora.On("UpdateStatus", mock.Anything, "c1", "processing", "").Return(errors.New("db down"))

	consumer := NewIngestConsumer(ingestor, corpora, jobs)
	err := consumer.HandleMessage(newMessage(t, IngestTask{
		CorpusID: "c1", JobID: "j1", Files: []string{"a.pdf"},
	}))

	assert.Error(t, err)
	ingestor.AssertNotCalled(t, "Ingest", mock.Anything, mock.Anything, mock.Anything)
}
