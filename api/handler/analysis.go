package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sheorananshul/contract-analyzer/api/middleware"
	"github.com/sheorananshul/contract-analyzer/api/model"
	"github.com/sheorananshul/contract-analyzer/internal/services"
	"github.com/sheorananshul/contract-analyzer/internal/standards"
	"github.com/sheorananshul/contract-analyzer/pkg/taskqueue"
)

// AnalysisHandler serves the compliance run endpoints.
type AnalysisHandler struct {
	analysis *services.AnalysisService
	queue    taskqueue.Queue // optional, enables async runs
}

// NewAnalysisHandler creates the analysis handler.
func NewAnalysisHandler(analysis *services.AnalysisService, queue taskqueue.Queue) *AnalysisHandler {
	return &AnalysisHandler{analysis: analysis, queue: queue}
}

// Analyze runs a requirement set against an indexed contract.
// POST /api/documents/:id/analyze
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	var uri model.DocumentIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		middleware.HandleError(c, middleware.NewValidationError("missing document id"))
		return
	}

	var req model.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleError(c, middleware.NewValidationError("invalid analyze request", err.Error()))
		return
	}

	// reject a bad set before touching the document or the queue
	set, err := standards.Parse(req.Set)
	if err != nil {
		middleware.HandleError(c, middleware.NewValidationError("invalid requirement set", err.Error()))
		return
	}

	if req.Async && h.queue != nil {
		taskID, err := h.queue.Enqueue(c.Request.Context(), taskqueue.TaskAnalyzeDocument, uri.ID,
			taskqueue.AnalyzeDocumentPayload{DocumentID: uri.ID, Set: req.Set})
		if err != nil {
			middleware.HandleError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, model.NewSuccessResponse(model.AnalyzeResponse{
			TaskID:     taskID,
			DocumentID: uri.ID,
			Status:     "enqueued",
		}))
		return
	}

	result, err := h.analysis.AnalyzeDocument(c.Request.Context(), uri.ID, set)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	summary := result.Summary
	c.JSON(http.StatusOK, model.NewSuccessResponse(model.AnalyzeResponse{
		RunID:      result.RunID,
		DocumentID: result.DocumentID,
		Status:     string(result.Status),
		Summary:    &summary,
		Findings:   result.Findings,
	}))
}

// GetRun returns a persisted run with its findings.
// GET /api/runs/:id
func (h *AnalysisHandler) GetRun(c *gin.Context) {
	var uri model.RunIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		middleware.HandleError(c, middleware.NewValidationError("missing run id"))
		return
	}

	run, findings, err := h.analysis.GetRun(uri.ID)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.RunResponse{
		RunID:        run.ID,
		DocumentID:   run.DocumentID,
		Status:       string(run.Status),
		Requirements: run.Requirements,
		Failed:       run.Failed,
		CreatedAt:    run.CreatedAt,
		CompletedAt:  run.CompletedAt,
		Findings:     findings,
	}))
}

// ListRuns returns a page of runs over one document.
// GET /api/documents/:id/runs
func (h *AnalysisHandler) ListRuns(c *gin.Context) {
	var uri model.DocumentIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		middleware.HandleError(c, middleware.NewValidationError("missing document id"))
		return
	}

	var req model.PaginationRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleError(c, middleware.NewValidationError("invalid pagination", err.Error()))
		return
	}

	page, pageSize := req.GetPage(), req.GetPageSize()
	runs, total, err := h.analysis.ListRuns(uri.ID, (page-1)*pageSize, pageSize)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	items := make([]model.RunResponse, len(runs))
	for i, run := range runs {
		items[i] = model.RunResponse{
			RunID:        run.ID,
			DocumentID:   run.DocumentID,
			Status:       string(run.Status),
			Requirements: run.Requirements,
			Failed:       run.Failed,
			CreatedAt:    run.CreatedAt,
			CompletedAt:  run.CompletedAt,
		}
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.RunListResponse{
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		Runs:     items,
	}))
}

// Report renders a persisted run against its requirement set.
// POST /api/runs/:id/report
func (h *AnalysisHandler) Report(c *gin.Context) {
	var uri model.RunIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		middleware.HandleError(c, middleware.NewValidationError("missing run id"))
		return
	}

	var req model.ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleError(c, middleware.NewValidationError("invalid report request", err.Error()))
		return
	}

	set, err := standards.Parse(req.Set)
	if err != nil {
		middleware.HandleError(c, middleware.NewValidationError("invalid requirement set", err.Error()))
		return
	}

	rows, summary, err := h.analysis.BuildReport(uri.ID, set)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.ReportResponse{
		RunID:   uri.ID,
		Rows:    rows,
		Summary: summary,
	}))
}
