package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/vendra/backend/internal/domain/shared"
)

// newMockSequenceDB creates a gorm handle over a mocked SQL connection
func newMockSequenceDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

func sequenceRows(next int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"document_type", "branch", "next_number", "copies_to_print"}).
		AddRow("FCB", "0001", next, 1)
}

func TestGormSequenceRepository_Allocate(t *testing.T) {
	ctx := context.Background()

	t.Run("locks counter row and returns pre-increment number", func(t *testing.T) {
		db, mock, mockDB := newMockSequenceDB(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "comprobante_sequences" WHERE document_type = \$1 AND branch = \$2 .*FOR UPDATE`).
			WithArgs("FCB", "0001", 1).
			WillReturnRows(sequenceRows(42))
		mock.ExpectExec(`UPDATE "comprobante_sequences" SET "next_number"=\$1 WHERE document_type = \$2 AND branch = \$3`).
			WithArgs(int64(43), "FCB", "0001").
			WillReturnResult(sqlmock.NewResult(0, 1))

		repo := NewGormSequenceRepository()
		number, err := repo.Allocate(ctx, db, "FCB", "0001")

		require.NoError(t, err)
		assert.Equal(t, "00000042", number)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing counter row is a configuration error", func(t *testing.T) {
		db, mock, mockDB := newMockSequenceDB(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "comprobante_sequences"`).
			WithArgs("FCB", "0099", 1).
			WillReturnRows(sqlmock.NewRows([]string{"document_type", "branch", "next_number", "copies_to_print"}))

		repo := NewGormSequenceRepository()
		_, err := repo.Allocate(ctx, db, "FCB", "0099")

		assert.ErrorIs(t, err, shared.ErrSequenceNotConfigured)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("lock wait timeout maps to retryable error", func(t *testing.T) {
		db, mock, mockDB := newMockSequenceDB(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "comprobante_sequences"`).
			WithArgs("FCB", "0001", 1).
			WillReturnError(&pgconn.PgError{Code: "55P03", Message: "canceling statement due to lock timeout"})

		repo := NewGormSequenceRepository()
		_, err := repo.Allocate(ctx, db, "FCB", "0001")

		assert.ErrorIs(t, err, shared.ErrLockTimeout)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormSequenceRepository_AllocateNew(t *testing.T) {
	ctx := context.Background()

	t.Run("wraps allocation in its own transaction", func(t *testing.T) {
		db, mock, mockDB := newMockSequenceDB(t)
		defer mockDB.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "comprobante_sequences" WHERE document_type = \$1 AND branch = \$2 .*FOR UPDATE`).
			WithArgs("PRV", "0002", 1).
			WillReturnRows(sqlmock.NewRows([]string{"document_type", "branch", "next_number", "copies_to_print"}).
				AddRow("PRV", "0002", 7, 1))
		mock.ExpectExec(`UPDATE "comprobante_sequences" SET "next_number"=\$1 WHERE document_type = \$2 AND branch = \$3`).
			WithArgs(int64(8), "PRV", "0002").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		repo := NewGormSequenceRepository()
		number, err := repo.AllocateNew(ctx, db, "PRV", "0002")

		require.NoError(t, err)
		assert.Equal(t, "00000007", number)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when counter is not configured", func(t *testing.T) {
		db, mock, mockDB := newMockSequenceDB(t)
		defer mockDB.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "comprobante_sequences"`).
			WithArgs("PRV", "0099", 1).
			WillReturnRows(sqlmock.NewRows([]string{"document_type", "branch", "next_number", "copies_to_print"}))
		mock.ExpectRollback()

		repo := NewGormSequenceRepository()
		_, err := repo.AllocateNew(ctx, db, "PRV", "0099")

		assert.ErrorIs(t, err, shared.ErrSequenceNotConfigured)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
