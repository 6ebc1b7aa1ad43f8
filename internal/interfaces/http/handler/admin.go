package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	satelliteapp "github.com/vendra/backend/internal/application/satellite"
	"github.com/vendra/backend/internal/domain/shared"
	"github.com/vendra/backend/internal/infrastructure/tenantdb"
	"github.com/vendra/backend/internal/interfaces/http/dto"
)

// AdminHandler exposes pool diagnostics and the manual sync trigger
type AdminHandler struct {
	manager *tenantdb.Manager
	sync    *satelliteapp.SyncService
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(manager *tenantdb.Manager, sync *satelliteapp.SyncService) *AdminHandler {
	return &AdminHandler{manager: manager, sync: sync}
}

// PoolStatus returns per-tenant pool occupancy. Only tenants that have
// been resolved since startup appear; after shutdown the map is empty.
func (h *AdminHandler) PoolStatus(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(h.manager.Status()))
}

// RunSync triggers one sync batch and reports the migrated count and
// last-sync timestamp. An overlapping run yields 409.
func (h *AdminHandler) RunSync(c *gin.Context) {
	result, err := h.sync.RunBatch(c.Request.Context())
	if err != nil {
		if errors.Is(err, shared.ErrSyncRunning) {
			c.JSON(http.StatusConflict,
				dto.NewErrorResponse(shared.ErrSyncRunning.Code, err.Error(), c.GetString("request_id")))
			return
		}
		c.JSON(http.StatusInternalServerError,
			dto.NewErrorResponse("SYNC_FAILED", err.Error(), c.GetString("request_id")))
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(result))
}
