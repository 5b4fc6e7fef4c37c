package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sheorananshul/contract-analyzer/api/middleware"
	"github.com/sheorananshul/contract-analyzer/api/model"
	"github.com/sheorananshul/contract-analyzer/pkg/taskqueue"
)

// TaskHandler serves the background task endpoints.
type TaskHandler struct {
	queue taskqueue.Queue
}

// NewTaskHandler creates the task handler.
func NewTaskHandler(queue taskqueue.Queue) *TaskHandler {
	return &TaskHandler{queue: queue}
}

// GetTask returns the state of one queued task.
// GET /api/tasks/:id
func (h *TaskHandler) GetTask(c *gin.Context) {
	var uri model.TaskIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		middleware.HandleError(c, middleware.NewValidationError("missing task id"))
		return
	}

	task, err := h.queue.GetTask(c.Request.Context(), uri.ID)
	if err != nil {
		if errors.Is(err, taskqueue.ErrTaskNotFound) {
			middleware.HandleError(c, middleware.NewNotFoundError("task not found"))
			return
		}
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(taskToResponse(task)))
}

// ListDocumentTasks returns every task of one document.
// GET /api/documents/:id/tasks
func (h *TaskHandler) ListDocumentTasks(c *gin.Context) {
	var uri model.DocumentIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		middleware.HandleError(c, middleware.NewValidationError("missing document id"))
		return
	}

	tasks, err := h.queue.GetTasksByDocument(c.Request.Context(), uri.ID)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	items := make([]model.TaskResponse, len(tasks))
	for i, task := range tasks {
		items[i] = taskToResponse(task)
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(gin.H{"tasks": items}))
}

// taskToResponse maps a task record to its API form.
func taskToResponse(task *taskqueue.Task) model.TaskResponse {
	return model.TaskResponse{
		TaskID:      task.ID,
		Type:        string(task.Type),
		DocumentID:  task.DocumentID,
		Status:      string(task.Status),
		Error:       task.Error,
		CreatedAt:   task.CreatedAt,
		StartedAt:   task.StartedAt,
		CompletedAt: task.CompletedAt,
	}
}
