package model

import (
	"time"

	"github.com/sheorananshul/contract-analyzer/internal/models"
	"github.com/sheorananshul/contract-analyzer/internal/report"
)

// Response is the envelope of every API reply. Code 0 means success.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	TraceID string      `json:"trace_id,omitempty"`
}

// NewSuccessResponse wraps data in a success envelope.
func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Code:    0,
		Message: "success",
		Data:    data,
	}
}

// NewErrorResponse creates an error envelope.
func NewErrorResponse(code int, message string) *Response {
	return &Response{
		Code:    code,
		Message: message,
	}
}

// DocumentUploadResponse reports a stored contract.
type DocumentUploadResponse struct {
	DocumentID string `json:"document_id"`
	Name       string `json:"name"`
	Status     string `json:"status"`
}

// DocumentStatusResponse reports a contract's indexing state.
type DocumentStatusResponse struct {
	DocumentID string `json:"document_id"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	ChunkCount int    `json:"chunk_count"`
	Error      string `json:"error,omitempty"`
	UploadedAt string `json:"uploaded_at"`
	IndexedAt  string `json:"indexed_at,omitempty"`
}

// DocumentInfo is one list entry.
type DocumentInfo struct {
	DocumentID string    `json:"document_id"`
	Name       string    `json:"name"`
	Status     string    `json:"status"`
	ChunkCount int       `json:"chunk_count"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// DocumentListResponse is a page of documents.
type DocumentListResponse struct {
	Total     int64          `json:"total"`
	Page      int            `json:"page"`
	PageSize  int            `json:"page_size"`
	Documents []DocumentInfo `json:"documents"`
}

// IndexResponse reports a finished or enqueued indexing job.
type IndexResponse struct {
	DocumentID string `json:"document_id"`
	ChunkCount int    `json:"chunk_count,omitempty"`
	TaskID     string `json:"task_id,omitempty"`
	Status     string `json:"status"`
}

// AnalyzeResponse reports a finished or enqueued analysis run.
type AnalyzeResponse struct {
	RunID      string           `json:"run_id,omitempty"`
	TaskID     string           `json:"task_id,omitempty"`
	DocumentID string           `json:"document_id"`
	Status     string           `json:"status"`
	Summary    *report.Summary  `json:"summary,omitempty"`
	Findings   []models.Finding `json:"findings,omitempty"`
}

// RunResponse reports a persisted analysis run.
type RunResponse struct {
	RunID        string           `json:"run_id"`
	DocumentID   string           `json:"document_id"`
	Status       string           `json:"status"`
	Requirements int              `json:"requirements"`
	Failed       int              `json:"failed"`
	CreatedAt    time.Time        `json:"created_at"`
	CompletedAt  *time.Time       `json:"completed_at,omitempty"`
	Findings     []models.Finding `json:"findings,omitempty"`
}

// RunListResponse is a page of runs over one document.
type RunListResponse struct {
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
	Runs     []RunResponse `json:"runs"`
}

// ReportResponse is the rendered view of one run.
type ReportResponse struct {
	RunID   string         `json:"run_id"`
	Rows    []report.Row   `json:"rows"`
	Summary report.Summary `json:"summary"`
}

// TaskResponse reports the state of one queued task.
type TaskResponse struct {
	TaskID      string     `json:"task_id"`
	Type        string     `json:"type"`
	DocumentID  string     `json:"document_id"`
	Status      string     `json:"status"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
