package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vendra/backend/internal/domain/shared"
	"github.com/vendra/backend/internal/infrastructure/persistence"
	"github.com/vendra/backend/internal/infrastructure/tenantdb"
	"github.com/vendra/backend/internal/interfaces/http/dto"
)

// TenantIDHeader carries the opaque tenant identity on every
// tenant-scoped request
const TenantIDHeader = "X-Tenant-ID"

// tenantDBKey is the gin context key holding the resolved handle
const tenantDBKey = "tenant_db"

// TenantConnection resolves the tenant header to a live pooled
// connection and stores it in the request context. Configuration
// errors map to 4xx; connectivity errors to 503 so callers retry.
func TenantConnection(manager *tenantdb.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := c.GetHeader(TenantIDHeader)
		if tenantID == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest,
				dto.NewErrorResponse("MISSING_TENANT", "X-Tenant-ID header is required", c.GetString("request_id")))
			return
		}
		c.Set("tenant_id", tenantID)

		db, err := manager.Get(c.Request.Context(), tenantID)
		if err != nil {
			status := http.StatusServiceUnavailable
			code := "CONNECT_FAILED"
			var domainErr *shared.DomainError
			switch {
			case errors.Is(err, shared.ErrTenantNotFound):
				status, code = http.StatusNotFound, shared.ErrTenantNotFound.Code
			case errors.Is(err, shared.ErrTenantInactive):
				status, code = http.StatusForbidden, shared.ErrTenantInactive.Code
			case errors.As(err, &domainErr):
				code = domainErr.Code
			}
			c.AbortWithStatusJSON(status,
				dto.NewErrorResponse(code, err.Error(), c.GetString("request_id")))
			return
		}

		c.Set(tenantDBKey, db)
		c.Next()
	}
}

// GetTenantDB returns the resolved tenant database from the gin context
func GetTenantDB(c *gin.Context) (*persistence.Database, bool) {
	v, ok := c.Get(tenantDBKey)
	if !ok {
		return nil, false
	}
	db, ok := v.(*persistence.Database)
	return db, ok
}
