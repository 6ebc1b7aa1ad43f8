package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vendra/backend/internal/infrastructure/persistence"
)

// pingTimeout bounds the catalog probe so a hung database cannot
// wedge the health endpoint.
const pingTimeout = 2 * time.Second

// HealthHandler reports process and catalog database health
type HealthHandler struct {
	catalog *persistence.Database
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(catalog *persistence.Database) *HealthHandler {
	return &HealthHandler{catalog: catalog}
}

// Check returns 200 when the catalog database is reachable
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
	defer cancel()

	if err := h.catalog.PingContext(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "catalog": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
