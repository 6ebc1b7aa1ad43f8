package router

import (
	"github.com/gin-gonic/gin"
	"github.com/vendra/backend/internal/infrastructure/logger"
	"github.com/vendra/backend/internal/infrastructure/tenantdb"
	"github.com/vendra/backend/internal/interfaces/http/handler"
	"github.com/vendra/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// Handlers groups everything the router mounts
type Handlers struct {
	Health    *handler.HealthHandler
	Admin     *handler.AdminHandler
	Numbering *handler.NumberingHandler
}

// New builds the gin engine with all routes and middleware
func New(log *zap.Logger, manager *tenantdb.Manager, h Handlers) *gin.Engine {
	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
	)

	engine.GET("/health", h.Health.Check)

	v1 := engine.Group("/api/v1")

	admin := v1.Group("/admin")
	{
		admin.GET("/pools", h.Admin.PoolStatus)
		admin.POST("/sync/run", h.Admin.RunSync)
	}

	documents := v1.Group("/documents")
	documents.Use(middleware.TenantConnection(manager))
	{
		documents.POST("/allocate", h.Numbering.Allocate)
	}

	return engine
}
