package model

import "encoding/json"

// PaginationRequest holds the shared paging parameters.
type PaginationRequest struct {
	Page     int `form:"page" json:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" json:"page_size" binding:"omitempty,min=1"`
}

// GetPage returns the page number, defaulting to 1.
func (p *PaginationRequest) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}

// GetPageSize returns the page size, defaulting to 10, capped at 100.
func (p *PaginationRequest) GetPageSize() int {
	if p.PageSize <= 0 {
		return 10
	}
	if p.PageSize > 100 {
		return 100
	}
	return p.PageSize
}

// BoundaryInput is one section boundary of an uploaded contract.
type BoundaryInput struct {
	Offset int    `json:"offset" binding:"min=0"`
	Label  string `json:"label"`
}

// DocumentUploadRequest uploads a contract as plain text with optional
// section boundaries.
type DocumentUploadRequest struct {
	Name       string          `json:"name" binding:"required"`
	Text       string          `json:"text" binding:"required"`
	Boundaries []BoundaryInput `json:"boundaries" binding:"omitempty,dive"`
}

// DocumentIDRequest addresses one document.
type DocumentIDRequest struct {
	ID string `uri:"id" binding:"required"`
}

// IndexRequest triggers indexing of an uploaded document.
type IndexRequest struct {
	Async bool `json:"async"`
}

// AnalyzeRequest runs a requirement set against an indexed document.
// The set is the raw JSON of a requirement set.
type AnalyzeRequest struct {
	Set   json.RawMessage `json:"set" binding:"required"`
	Async bool            `json:"async"`
}

// RunIDRequest addresses one analysis run.
type RunIDRequest struct {
	ID string `uri:"id" binding:"required"`
}

// ReportRequest renders a persisted run against its requirement set.
type ReportRequest struct {
	Set json.RawMessage `json:"set" binding:"required"`
}

// TaskIDRequest addresses one queued task.
type TaskIDRequest struct {
	ID string `uri:"id" binding:"required"`
}
