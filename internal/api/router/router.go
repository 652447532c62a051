package router

import (
	"github.com/cuongbtq/transcribe-bot/internal/api/handler"
	"github.com/gin-gonic/gin"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	r.GET("/health", handler.Health(deps))

	jobHandler := handler.NewJobHandler(deps)

	// API v1 routes
	v1 := r.Group("/api/v1")
	v1.Use(CallerMiddleware(deps.AdminToken))
	{
		jobs := v1.Group("/jobs")
		{
			// GET /api/v1/jobs - List active jobs (admin)
			jobs.GET("", jobHandler.ListJobs)

			// GET /api/v1/jobs/:job_id - Cached status of one job
			jobs.GET("/:job_id", jobHandler.GetJob)
		}

		// GET /api/v1/users/:user_id/history - Finished jobs of a user
		v1.GET("/users/:user_id/history", jobHandler.ListHistory)
	}

	return r
}
