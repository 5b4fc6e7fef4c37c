package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sheorananshul/contract-analyzer/api/middleware"
	"github.com/sheorananshul/contract-analyzer/api/model"
	"github.com/sheorananshul/contract-analyzer/internal/document"
	"github.com/sheorananshul/contract-analyzer/internal/services"
	"github.com/sheorananshul/contract-analyzer/pkg/taskqueue"
)

// DocumentHandler serves the contract upload and indexing endpoints.
type DocumentHandler struct {
	docs  *services.DocumentService
	queue taskqueue.Queue // optional, enables async indexing
}

// NewDocumentHandler creates the document handler. A nil queue disables
// async indexing; requests with async=true then run synchronously.
func NewDocumentHandler(docs *services.DocumentService, queue taskqueue.Queue) *DocumentHandler {
	return &DocumentHandler{docs: docs, queue: queue}
}

// Upload stores a contract's text and section boundaries.
// POST /api/documents
func (h *DocumentHandler) Upload(c *gin.Context) {
	var req model.DocumentUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleError(c, middleware.NewValidationError("invalid upload request", err.Error()))
		return
	}

	boundaries := make([]document.SectionBoundary, len(req.Boundaries))
	for i, b := range req.Boundaries {
		boundaries[i] = document.SectionBoundary{Offset: b.Offset, Label: b.Label}
	}

	// chunking errors classify as 400, infrastructure failures as 500
	record, err := h.docs.Upload(c.Request.Context(), req.Name, req.Text, boundaries)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.DocumentUploadResponse{
		DocumentID: record.ID,
		Name:       record.Name,
		Status:     string(record.Status),
	}))
}

// Index chunks and embeds an uploaded contract.
// POST /api/documents/:id/index
func (h *DocumentHandler) Index(c *gin.Context) {
	var uri model.DocumentIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		middleware.HandleError(c, middleware.NewValidationError("missing document id"))
		return
	}

	var req model.IndexRequest
	_ = c.ShouldBindJSON(&req)

	if req.Async && h.queue != nil {
		taskID, err := h.queue.Enqueue(c.Request.Context(), taskqueue.TaskIndexDocument, uri.ID,
			taskqueue.IndexDocumentPayload{DocumentID: uri.ID})
		if err != nil {
			middleware.HandleError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, model.NewSuccessResponse(model.IndexResponse{
			DocumentID: uri.ID,
			TaskID:     taskID,
			Status:     "enqueued",
		}))
		return
	}

	count, err := h.docs.Index(c.Request.Context(), uri.ID)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.IndexResponse{
		DocumentID: uri.ID,
		ChunkCount: count,
		Status:     "indexed",
	}))
}

// Status reports a contract's indexing state.
// GET /api/documents/:id/status
func (h *DocumentHandler) Status(c *gin.Context) {
	var uri model.DocumentIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		middleware.HandleError(c, middleware.NewValidationError("missing document id"))
		return
	}

	record, err := h.docs.Get(uri.ID)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	resp := model.DocumentStatusResponse{
		DocumentID: record.ID,
		Name:       record.Name,
		Status:     string(record.Status),
		ChunkCount: record.ChunkCount,
		Error:      record.Error,
		UploadedAt: record.UploadedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if record.IndexedAt != nil {
		resp.IndexedAt = record.IndexedAt.Format("2006-01-02T15:04:05Z07:00")
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(resp))
}

// List returns a page of documents.
// GET /api/documents
func (h *DocumentHandler) List(c *gin.Context) {
	var req model.PaginationRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleError(c, middleware.NewValidationError("invalid pagination", err.Error()))
		return
	}

	page, pageSize := req.GetPage(), req.GetPageSize()
	records, total, err := h.docs.List((page-1)*pageSize, pageSize)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	docs := make([]model.DocumentInfo, len(records))
	for i, r := range records {
		docs[i] = model.DocumentInfo{
			DocumentID: r.ID,
			Name:       r.Name,
			Status:     string(r.Status),
			ChunkCount: r.ChunkCount,
			UploadedAt: r.UploadedAt,
		}
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.DocumentListResponse{
		Total:     total,
		Page:      page,
		PageSize:  pageSize,
		Documents: docs,
	}))
}

// Delete removes a contract and its index entries.
// DELETE /api/documents/:id
func (h *DocumentHandler) Delete(c *gin.Context) {
	var uri model.DocumentIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		middleware.HandleError(c, middleware.NewValidationError("missing document id"))
		return
	}

	if err := h.docs.Delete(c.Request.Context(), uri.ID); err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(gin.H{"document_id": uri.ID, "deleted": true}))
}
