package persistence

import (
	"context"
	"errors"

	"github.com/vendra/backend/internal/domain/shared"
	"github.com/vendra/backend/internal/domain/tenant"
	"gorm.io/gorm"
)

// GormTenantCatalogRepository implements tenant.ConfigStore against the
// shared catalog database
type GormTenantCatalogRepository struct {
	db *gorm.DB
}

// NewGormTenantCatalogRepository creates a new GormTenantCatalogRepository
func NewGormTenantCatalogRepository(db *gorm.DB) *GormTenantCatalogRepository {
	return &GormTenantCatalogRepository{db: db}
}

// FindByID finds a tenant row by its id
func (r *GormTenantCatalogRepository) FindByID(ctx context.Context, id string) (*tenant.Tenant, error) {
	var t tenant.Tenant
	if err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrTenantNotFound
		}
		return nil, err
	}
	return &t, nil
}
