package persistence

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vendra/backend/internal/domain/numbering"
	"github.com/vendra/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// pgLockNotAvailable is the postgres SQLSTATE for a lock wait timeout
const pgLockNotAvailable = "55P03"

// GormSequenceRepository implements numbering.Allocator. All mutation
// happens under a database row lock so independent worker processes on
// the same tenant database serialize correctly.
type GormSequenceRepository struct{}

// NewGormSequenceRepository creates a new GormSequenceRepository
func NewGormSequenceRepository() *GormSequenceRepository {
	return &GormSequenceRepository{}
}

// Allocate reserves the next number for (docType, branch) inside the
// caller-supplied transaction. The counter row is read FOR UPDATE and
// stays locked until the caller commits; the returned value is the
// pre-increment counter, zero-padded. A missing row is a configuration
// error, never an implicit insert.
func (r *GormSequenceRepository) Allocate(ctx context.Context, tx *gorm.DB, docType, branch string) (string, error) {
	var counter numbering.SequenceCounter
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("document_type = ? AND branch = ?", docType, branch).
		First(&counter).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", shared.ErrSequenceNotConfigured
		}
		return "", mapLockError(err)
	}

	allocated := counter.NextNumber
	err = tx.WithContext(ctx).
		Model(&numbering.SequenceCounter{}).
		Where("document_type = ? AND branch = ?", docType, branch).
		Update("next_number", allocated+1).Error
	if err != nil {
		return "", err
	}

	return numbering.Format(allocated), nil
}

// AllocateNew reserves a number in its own short transaction. The
// number is consumed on commit even if the caller never uses it.
func (r *GormSequenceRepository) AllocateNew(ctx context.Context, db *gorm.DB, docType, branch string) (string, error) {
	var formatted string
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		formatted, txErr = r.Allocate(ctx, tx, docType, branch)
		return txErr
	})
	if err != nil {
		return "", err
	}
	return formatted, nil
}

// mapLockError surfaces a lock wait timeout as the retryable domain
// error; the counter row was never modified in that case.
func mapLockError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgLockNotAvailable {
		return shared.ErrLockTimeout
	}
	return err
}
