package taskqueue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheorananshul/contract-analyzer/internal/models"
	"github.com/sheorananshul/contract-analyzer/internal/services"
	"github.com/sheorananshul/contract-analyzer/internal/standards"
)

// recordingQueue captures UpdateTaskStatus calls; the rest is inert.
type recordingQueue struct {
	updates []TaskStatus
	results []interface{}
}

func (q *recordingQueue) Enqueue(ctx context.Context, taskType TaskType, documentID string, payload interface{}) (string, error) {
	return "", errors.New("not implemented")
}

func (q *recordingQueue) EnqueueIn(ctx context.Context, taskType TaskType, documentID string, payload interface{}, delay time.Duration) (string, error) {
	return "", errors.New("not implemented")
}

func (q *recordingQueue) GetTask(ctx context.Context, taskID string) (*Task, error) {
	return nil, ErrTaskNotFound
}

func (q *recordingQueue) GetTasksByDocument(ctx context.Context, documentID string) ([]*Task, error) {
	return nil, nil
}

func (q *recordingQueue) WaitForTask(ctx context.Context, taskID string, timeout time.Duration) (*Task, error) {
	return nil, ErrTaskNotFound
}

func (q *recordingQueue) DeleteTask(ctx context.Context, taskID string) error { return nil }

func (q *recordingQueue) UpdateTaskStatus(ctx context.Context, taskID string, status TaskStatus, result interface{}, errorMsg string) error {
	q.updates = append(q.updates, status)
	q.results = append(q.results, result)
	return nil
}

func (q *recordingQueue) NotifyTaskUpdate(ctx context.Context, taskID string) error { return nil }

func (q *recordingQueue) Close() error { return nil }

type fakeIndexer struct {
	count int
	err   error
	docID string
}

func (f *fakeIndexer) Index(ctx context.Context, documentID string) (int, error) {
	f.docID = documentID
	return f.count, f.err
}

type fakeAnalyzer struct {
	result *services.RunResult
	err    error
	docID  string
}

func (f *fakeAnalyzer) AnalyzeDocument(ctx context.Context, documentID string, set *standards.Set) (*services.RunResult, error) {
	f.docID = documentID
	return f.result, f.err
}

func makeTask(t *testing.T, taskType TaskType, payload interface{}) *Task {
	t.Helper()
	data, err := MarshalPayload(payload)
	require.NoError(t, err)
	return &Task{ID: "task-1", Type: taskType, Payload: data}
}

const setJSON = `{"name": "checklist", "requirements": [
	{"id": "REQ-1", "name": "Notice", "description": "30 days notice"}
]}`

func TestIndexHandlerProcessTask(t *testing.T) {
	indexer := &fakeIndexer{count: 5}
	queue := &recordingQueue{}
	handler := NewIndexHandler(indexer, queue, nil)

	task := makeTask(t, TaskIndexDocument, IndexDocumentPayload{DocumentID: "doc-1"})
	require.NoError(t, handler.ProcessTask(context.Background(), task))

	assert.Equal(t, "doc-1", indexer.docID)
	require.Len(t, queue.results, 1)
	result, ok := queue.results[0].(IndexDocumentResult)
	require.True(t, ok)
	assert.Equal(t, 5, result.ChunkCount)
}

func TestIndexHandlerRejectsBadInput(t *testing.T) {
	handler := NewIndexHandler(&fakeIndexer{}, &recordingQueue{}, nil)

	t.Run("WrongType", func(t *testing.T) {
		task := makeTask(t, TaskAnalyzeDocument, nil)
		assert.Error(t, handler.ProcessTask(context.Background(), task))
	})

	t.Run("MissingDocumentID", func(t *testing.T) {
		task := makeTask(t, TaskIndexDocument, IndexDocumentPayload{})
		assert.Error(t, handler.ProcessTask(context.Background(), task))
	})
}

func TestIndexHandlerPropagatesFailure(t *testing.T) {
	indexer := &fakeIndexer{err: errors.New("embedding unavailable")}
	handler := NewIndexHandler(indexer, &recordingQueue{}, nil)

	task := makeTask(t, TaskIndexDocument, IndexDocumentPayload{DocumentID: "doc-1"})
	err := handler.ProcessTask(context.Background(), task)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedding unavailable")
}

func TestAnalyzeHandlerProcessTask(t *testing.T) {
	analyzer := &fakeAnalyzer{
		result: &services.RunResult{
			RunID:      "run-1",
			DocumentID: "doc-1",
			Status:     models.RunStatusPartial,
			Findings: []models.Finding{
				{RequirementID: "REQ-1", Status: models.StatusCompliant},
				{RequirementID: "REQ-2", Status: models.StatusInsufficientEvidence, Error: "model call failed"},
			},
		},
	}
	queue := &recordingQueue{}
	handler := NewAnalyzeHandler(analyzer, queue, nil)

	payload := AnalyzeDocumentPayload{DocumentID: "doc-1", Set: json.RawMessage(setJSON)}
	task := makeTask(t, TaskAnalyzeDocument, payload)
	require.NoError(t, handler.ProcessTask(context.Background(), task))

	assert.Equal(t, "doc-1", analyzer.docID)
	require.Len(t, queue.results, 1)
	result, ok := queue.results[0].(AnalyzeDocumentResult)
	require.True(t, ok)
	assert.Equal(t, "run-1", result.RunID)
	assert.Equal(t, string(models.RunStatusPartial), result.Status)
	assert.Equal(t, 1, result.Failed)
}

func TestAnalyzeHandlerRejectsInvalidSet(t *testing.T) {
	handler := NewAnalyzeHandler(&fakeAnalyzer{}, &recordingQueue{}, nil)

	payload := AnalyzeDocumentPayload{DocumentID: "doc-1", Set: json.RawMessage(`{"name": ""}`)}
	task := makeTask(t, TaskAnalyzeDocument, payload)
	err := handler.ProcessTask(context.Background(), task)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid requirement set")
}

func TestHandlerTaskTypes(t *testing.T) {
	assert.Equal(t, []TaskType{TaskIndexDocument}, NewIndexHandler(&fakeIndexer{}, &recordingQueue{}, nil).TaskTypes())
	assert.Equal(t, []TaskType{TaskAnalyzeDocument}, NewAnalyzeHandler(&fakeAnalyzer{}, &recordingQueue{}, nil).TaskTypes())
}
