package taskqueue

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sheorananshul/contract-analyzer/internal/services"
	"github.com/sheorananshul/contract-analyzer/internal/standards"
)

// DocumentIndexer indexes an uploaded contract.
type DocumentIndexer interface {
	Index(ctx context.Context, documentID string) (int, error)
}

// DocumentAnalyzer runs a requirement set against an indexed contract.
type DocumentAnalyzer interface {
	AnalyzeDocument(ctx context.Context, documentID string, set *standards.Set) (*services.RunResult, error)
}

// IndexHandler processes index_document tasks.
type IndexHandler struct {
	indexer DocumentIndexer
	queue   Queue
	logger  *logrus.Logger
}

// NewIndexHandler creates the indexing task handler.
func NewIndexHandler(indexer DocumentIndexer, queue Queue, logger *logrus.Logger) *IndexHandler {
	if logger == nil {
		logger = logrus.New()
	}
	return &IndexHandler{indexer: indexer, queue: queue, logger: logger}
}

// TaskTypes returns the task types this handler accepts.
func (h *IndexHandler) TaskTypes() []TaskType {
	return []TaskType{TaskIndexDocument}
}

// ProcessTask indexes the document named by the task payload.
func (h *IndexHandler) ProcessTask(ctx context.Context, task *Task) error {
	if task.Type != TaskIndexDocument {
		return fmt.Errorf("unexpected task type: %s", task.Type)
	}

	var payload IndexDocumentPayload
	if err := UnmarshalPayload(task.Payload, &payload); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	if payload.DocumentID == "" {
		return errors.New("payload is missing document_id")
	}

	count, err := h.indexer.Index(ctx, payload.DocumentID)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	result := IndexDocumentResult{DocumentID: payload.DocumentID, ChunkCount: count}
	if err := h.queue.UpdateTaskStatus(ctx, task.ID, StatusProcessing, result, ""); err != nil {
		h.logger.WithError(err).WithField("task_id", task.ID).Warn("Failed to store index result")
	}

	h.logger.WithFields(logrus.Fields{
		"task_id":     task.ID,
		"document_id": payload.DocumentID,
		"chunks":      count,
	}).Info("Index task finished")

	return nil
}

// AnalyzeHandler processes analyze_document tasks.
type AnalyzeHandler struct {
	analyzer DocumentAnalyzer
	queue    Queue
	logger   *logrus.Logger
}

// NewAnalyzeHandler creates the analysis task handler.
func NewAnalyzeHandler(analyzer DocumentAnalyzer, queue Queue, logger *logrus.Logger) *AnalyzeHandler {
	if logger == nil {
		logger = logrus.New()
	}
	return &AnalyzeHandler{analyzer: analyzer, queue: queue, logger: logger}
}

// TaskTypes returns the task types this handler accepts.
func (h *AnalyzeHandler) TaskTypes() []TaskType {
	return []TaskType{TaskAnalyzeDocument}
}

// ProcessTask analyzes the document against the requirement set carried
// in the task payload.
func (h *AnalyzeHandler) ProcessTask(ctx context.Context, task *Task) error {
	if task.Type != TaskAnalyzeDocument {
		return fmt.Errorf("unexpected task type: %s", task.Type)
	}

	var payload AnalyzeDocumentPayload
	if err := UnmarshalPayload(task.Payload, &payload); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	if payload.DocumentID == "" {
		return errors.New("payload is missing document_id")
	}

	set, err := standards.Parse(payload.Set)
	if err != nil {
		return fmt.Errorf("invalid requirement set: %w", err)
	}

	runResult, err := h.analyzer.AnalyzeDocument(ctx, payload.DocumentID, set)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	result := AnalyzeDocumentResult{
		RunID:      runResult.RunID,
		DocumentID: runResult.DocumentID,
		Status:     string(runResult.Status),
	}
	for _, f := range runResult.Findings {
		if f.Error != "" {
			result.Failed++
		}
	}
	if err := h.queue.UpdateTaskStatus(ctx, task.ID, StatusProcessing, result, ""); err != nil {
		h.logger.WithError(err).WithField("task_id", task.ID).Warn("Failed to store analysis result")
	}

	h.logger.WithFields(logrus.Fields{
		"task_id":     task.ID,
		"document_id": payload.DocumentID,
		"run_id":      runResult.RunID,
		"status":      runResult.Status,
	}).Info("Analysis task finished")

	return nil
}
