package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xiaoyuanzhu-com/todo-api/log"
	"github.com/xiaoyuanzhu-com/todo-api/version"
)

const readinessTimeout = 2 * time.Second

// Root handles GET /. It reports the database as connected whenever the
// store answers a ping.
func (h *Handlers) Root(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		log.Warn().Err(err).Msg("database ping failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "unhealthy",
			"database": "disconnected",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"database": "connected",
	})
}

// Liveness handles GET /health/live
func (h *Handlers) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": time.Since(h.startTime).Round(time.Second).String(),
	})
}

// Readiness handles GET /health/ready and runs every registered check in order.
func (h *Handlers) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	for _, hc := range h.healthChecks {
		if err := hc.Check(ctx); err != nil {
			log.Warn().Err(err).Str("check", hc.Name).Msg("readiness check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":       "unhealthy",
				"failed_check": hc.Name,
				"error":        err.Error(),
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// Version handles GET /version
func (h *Handlers) Version(c *gin.Context) {
	c.JSON(http.StatusOK, version.Get())
}
