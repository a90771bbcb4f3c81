package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orderdesk/backend/internal/infrastructure/persistence"
)

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	BaseHandler
	db *persistence.Database
}

// NewHealthHandler creates the health handler.
func NewHealthHandler(db *persistence.Database) *HealthHandler {
	return &HealthHandler{db: db}
}

// Health is the liveness probe.
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready is the readiness probe; it checks database connectivity.
// GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if err := h.db.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"error":  err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
