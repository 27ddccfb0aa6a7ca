package api

import (
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all API routes
func SetupRoutes(r *gin.Engine, h *Handlers) {
	r.GET("/", h.Root)

	// Todos
	r.POST("/todos", h.CreateTodo)
	r.GET("/todos", h.ListTodos)
	r.DELETE("/todos/:id", h.DeleteTodo)

	// Probes
	r.GET("/health/live", h.Liveness)
	r.GET("/health/ready", h.Readiness)

	r.GET("/version", h.Version)
}
