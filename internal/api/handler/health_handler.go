package handler

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

// Health handles GET /health
func Health(deps *Dependencies) gin.HandlerFunc {
	names := make([]string, 0, len(deps.Checks))
	for name := range deps.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		status := "healthy"
		code := http.StatusOK
		checks := make(map[string]string, len(names))
		for _, name := range names {
			if err := deps.Checks[name](ctx); err != nil {
				deps.Logger.Warn("Health check failed",
					slog.String("check", name),
					slog.String("error", err.Error()),
				)
				checks[name] = err.Error()
				status = "unhealthy"
				code = http.StatusServiceUnavailable
				continue
			}
			checks[name] = "ok"
		}

		c.JSON(code, gin.H{
			"status":  status,
			"service": deps.ServiceName,
			"checks":  checks,
		})
	}
}
