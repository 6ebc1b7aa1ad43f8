package persistence

import (
	"context"
	"fmt"

	"github.com/vendra/backend/internal/domain/satellite"
	"gorm.io/gorm"
)

// insertBatchSize bounds one bulk insert statement during a refresh
const insertBatchSize = 500

// ReferenceRepository refreshes the satellite's mirrored reference
// tables from the primary database. Each table is a full replace:
// delete everything, bulk-insert the active snapshot, in one satellite
// transaction, so a failed insert rolls the delete back with it.
type ReferenceRepository struct {
	primary   *gorm.DB
	satellite *gorm.DB
}

// NewReferenceRepository creates a new ReferenceRepository
func NewReferenceRepository(primary, satelliteDB *gorm.DB) *ReferenceRepository {
	return &ReferenceRepository{primary: primary, satellite: satelliteDB}
}

// RefreshArticles replaces the satellite article snapshot
func (r *ReferenceRepository) RefreshArticles(ctx context.Context) (int, error) {
	var rows []satellite.Article
	if err := r.primary.WithContext(ctx).Where("active = ?", true).Find(&rows).Error; err != nil {
		return 0, fmt.Errorf("reading article snapshot: %w", err)
	}
	return len(rows), replaceAll(ctx, r.satellite, &satellite.Article{}, rows)
}

// RefreshClients replaces the satellite client snapshot
func (r *ReferenceRepository) RefreshClients(ctx context.Context) (int, error) {
	var rows []satellite.Client
	if err := r.primary.WithContext(ctx).Where("active = ?", true).Find(&rows).Error; err != nil {
		return 0, fmt.Errorf("reading client snapshot: %w", err)
	}
	return len(rows), replaceAll(ctx, r.satellite, &satellite.Client{}, rows)
}

// RefreshVendors replaces the satellite vendor snapshot
func (r *ReferenceRepository) RefreshVendors(ctx context.Context) (int, error) {
	var rows []satellite.Vendor
	if err := r.primary.WithContext(ctx).Where("active = ?", true).Find(&rows).Error; err != nil {
		return 0, fmt.Errorf("reading vendor snapshot: %w", err)
	}
	return len(rows), replaceAll(ctx, r.satellite, &satellite.Vendor{}, rows)
}

// replaceAll deletes every row of model and inserts the snapshot in a
// single transaction on the target database
func replaceAll[T any](ctx context.Context, db *gorm.DB, model any, rows []T) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(model).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, insertBatchSize).Error
	})
}
