package taskqueue

import (
	"encoding/json"
	"time"
)

// TaskType names a kind of background job.
type TaskType string

const (
	// TaskIndexDocument chunks, embeds, and indexes an uploaded contract
	TaskIndexDocument TaskType = "index_document"
	// TaskAnalyzeDocument runs a requirement set against an indexed contract
	TaskAnalyzeDocument TaskType = "analyze_document"
)

// TaskStatus is the lifecycle state of a queued task.
type TaskStatus string

const (
	// StatusPending - waiting for a worker
	StatusPending TaskStatus = "pending"
	// StatusProcessing - a worker picked it up
	StatusProcessing TaskStatus = "processing"
	// StatusCompleted - finished successfully
	StatusCompleted TaskStatus = "completed"
	// StatusFailed - gave up after retries
	StatusFailed TaskStatus = "failed"
)

// Task is the queue's record of one background job.
type Task struct {
	ID          string          `json:"id"`
	Type        TaskType        `json:"type"`
	DocumentID  string          `json:"document_id"`
	Status      TaskStatus      `json:"status"`
	Payload     json.RawMessage `json:"payload"`
	Result      json.RawMessage `json:"result"`
	Error       string          `json:"error"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	StartedAt   *time.Time      `json:"started_at"`
	CompletedAt *time.Time      `json:"completed_at"`
	Attempts    int             `json:"attempts"`
	MaxRetries  int             `json:"max_retries"`
}

// IndexDocumentPayload asks a worker to index an uploaded contract.
type IndexDocumentPayload struct {
	DocumentID string `json:"document_id"`
}

// IndexDocumentResult reports a finished indexing job.
type IndexDocumentResult struct {
	DocumentID string `json:"document_id"`
	ChunkCount int    `json:"chunk_count"`
}

// AnalyzeDocumentPayload asks a worker to run a requirement set against
// an indexed contract. The set travels inline as JSON so the worker does
// not depend on a shared filesystem.
type AnalyzeDocumentPayload struct {
	DocumentID string          `json:"document_id"`
	Set        json.RawMessage `json:"set"`
}

// AnalyzeDocumentResult reports a finished analysis job.
type AnalyzeDocumentResult struct {
	RunID      string `json:"run_id"`
	DocumentID string `json:"document_id"`
	Status     string `json:"status"`
	Failed     int    `json:"failed"`
}
