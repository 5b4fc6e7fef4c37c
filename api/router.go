package api

import (
	"github.com/gin-gonic/gin"

	"github.com/sheorananshul/contract-analyzer/api/handler"
	"github.com/sheorananshul/contract-analyzer/api/middleware"
)

// SetupRouter wires every API endpoint and the shared middleware.
// taskHandler may be nil when the deployment runs without a queue.
func SetupRouter(
	docHandler *handler.DocumentHandler,
	analysisHandler *handler.AnalysisHandler,
	taskHandler *handler.TaskHandler,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.SetTraceID())
	router.Use(middleware.ErrorMiddleware())

	api := router.Group("/api")
	{
		docGroup := api.Group("/documents")
		{
			// upload contract text - POST /api/documents
			docGroup.POST("", docHandler.Upload)

			// list documents - GET /api/documents
			docGroup.GET("", docHandler.List)

			// indexing state - GET /api/documents/:id/status
			docGroup.GET("/:id/status", docHandler.Status)

			// chunk and embed - POST /api/documents/:id/index
			docGroup.POST("/:id/index", docHandler.Index)

			// run a requirement set - POST /api/documents/:id/analyze
			docGroup.POST("/:id/analyze", analysisHandler.Analyze)

			// run history - GET /api/documents/:id/runs
			docGroup.GET("/:id/runs", analysisHandler.ListRuns)

			// delete contract - DELETE /api/documents/:id
			docGroup.DELETE("/:id", docHandler.Delete)

			if taskHandler != nil {
				// background jobs of one document - GET /api/documents/:id/tasks
				docGroup.GET("/:id/tasks", taskHandler.ListDocumentTasks)
			}
		}

		runGroup := api.Group("/runs")
		{
			// persisted run with findings - GET /api/runs/:id
			runGroup.GET("/:id", analysisHandler.GetRun)

			// rendered report - POST /api/runs/:id/report
			runGroup.POST("/:id/report", analysisHandler.Report)
		}

		if taskHandler != nil {
			// task state - GET /api/tasks/:id
			api.GET("/tasks/:id", taskHandler.GetTask)
		}

		api.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{"status": "ok"})
		})
	}

	return router
}
