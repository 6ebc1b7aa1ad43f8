package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/vendra/backend/internal/domain/satellite"
	"gorm.io/gorm"
)

// SatellitePendingSaleRepository reads and cleans up pending sales on
// the satellite database. All reads happen outside any transaction;
// deletion is a short transaction of its own because it is only ever
// issued after the primary-side commit.
type SatellitePendingSaleRepository struct {
	db *gorm.DB
}

// NewSatellitePendingSaleRepository creates a new SatellitePendingSaleRepository
func NewSatellitePendingSaleRepository(db *gorm.DB) *SatellitePendingSaleRepository {
	return &SatellitePendingSaleRepository{db: db}
}

// ListPendingKeys returns the identity of every pending sale, oldest
// first by date, branch, number. Only keys are loaded so a large
// satellite backlog stays cheap to snapshot.
func (r *SatellitePendingSaleRepository) ListPendingKeys(ctx context.Context) ([]satellite.DocumentKey, error) {
	var keys []satellite.DocumentKey
	err := r.db.WithContext(ctx).
		Model(&satellite.PendingSale{}).
		Where("document_type = ?", satellite.PendingSaleDocType).
		Order("date, branch, number").
		Select("document_type", "branch", "number").
		Find(&keys).Error
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// FindByKey returns one pending sale header with its items. A nil, nil
// return means the record disappeared since its key was listed.
func (r *SatellitePendingSaleRepository) FindByKey(ctx context.Context, key satellite.DocumentKey) (*satellite.PendingSale, error) {
	var sale satellite.PendingSale
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("document_type = ? AND branch = ? AND number = ?", key.DocumentType, key.Branch, key.Number).
		First(&sale).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sale, nil
}

// Delete removes the header and items for one pending sale key
func (r *SatellitePendingSaleRepository) Delete(ctx context.Context, key satellite.DocumentKey) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("document_type = ? AND branch = ? AND number = ?", key.DocumentType, key.Branch, key.Number).
			Delete(&satellite.PendingSaleItem{}).Error; err != nil {
			return err
		}
		return tx.
			Where("document_type = ? AND branch = ? AND number = ?", key.DocumentType, key.Branch, key.Number).
			Delete(&satellite.PendingSale{}).Error
	})
}

// PrimaryDocumentRepository writes migrated documents and the cleanup
// backlog on the primary database. Insert methods run inside the
// pipeline's transaction so a migration unit commits atomically with
// its allocated number.
type PrimaryDocumentRepository struct {
	db *gorm.DB
}

// NewPrimaryDocumentRepository creates a new PrimaryDocumentRepository
func NewPrimaryDocumentRepository(db *gorm.DB) *PrimaryDocumentRepository {
	return &PrimaryDocumentRepository{db: db}
}

// DB exposes the primary handle for the pipeline's transaction scope
func (r *PrimaryDocumentRepository) DB() *gorm.DB {
	return r.db
}

// InsertDocument inserts the migrated header and its items inside tx
func (r *PrimaryDocumentRepository) InsertDocument(ctx context.Context, tx *gorm.DB, doc *satellite.Document) error {
	items := doc.Items
	doc.Items = nil
	defer func() { doc.Items = items }()

	if err := tx.WithContext(ctx).Create(doc).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	return tx.WithContext(ctx).Create(&items).Error
}

// AddCleanupBacklog records, inside tx, that the given satellite key
// has been migrated and still awaits satellite-side deletion
func (r *PrimaryDocumentRepository) AddCleanupBacklog(ctx context.Context, tx *gorm.DB, key satellite.DocumentKey, migratedAt time.Time) error {
	entry := satellite.CleanupBacklogEntry{
		DocumentType: key.DocumentType,
		Branch:       key.Branch,
		Number:       key.Number,
		MigratedAt:   migratedAt,
	}
	return tx.WithContext(ctx).Create(&entry).Error
}

// RemoveCleanupBacklog drops the backlog entry once the satellite copy
// is gone
func (r *PrimaryDocumentRepository) RemoveCleanupBacklog(ctx context.Context, key satellite.DocumentKey) error {
	return r.db.WithContext(ctx).
		Where("document_type = ? AND branch = ? AND number = ?", key.DocumentType, key.Branch, key.Number).
		Delete(&satellite.CleanupBacklogEntry{}).Error
}

// ListCleanupBacklog returns every migrated-but-not-cleaned key
func (r *PrimaryDocumentRepository) ListCleanupBacklog(ctx context.Context) ([]satellite.CleanupBacklogEntry, error) {
	var entries []satellite.CleanupBacklogEntry
	if err := r.db.WithContext(ctx).Order("migrated_at").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
