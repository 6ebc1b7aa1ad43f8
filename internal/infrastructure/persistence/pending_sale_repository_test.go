package persistence

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vendra/backend/internal/domain/satellite"
)

// newSQLiteDB opens a uniquely named in-memory database so each test
// gets isolated state while gorm's pool still sees one logical DB
func newSQLiteDB(t *testing.T, models ...any) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models...))
	return db
}

func pendingSaleFixture(branch, number string, date time.Time) *satellite.PendingSale {
	return &satellite.PendingSale{
		DocumentType: satellite.PendingSaleDocType,
		Branch:       branch,
		Number:       number,
		Date:         date,
		ClientCode:   "C001",
		ClientName:   "Cliente Uno",
		PaymentType:  "cash",
		Subtotal:     decimal.NewFromInt(100),
		TaxAmount:    decimal.NewFromInt(21),
		Total:        decimal.NewFromInt(121),
		Items: []satellite.PendingSaleItem{
			{
				DocumentType: satellite.PendingSaleDocType,
				Branch:       branch,
				Number:       number,
				LineNumber:   1,
				ArticleCode:  "A001",
				Description:  "Articulo uno",
				Quantity:     decimal.NewFromInt(2),
				UnitPrice:    decimal.NewFromInt(50),
				LineTotal:    decimal.NewFromInt(100),
			},
		},
	}
}

func TestSatellitePendingSaleRepository_ListPendingKeys(t *testing.T) {
	ctx := context.Background()

	t.Run("orders by date, branch, number", func(t *testing.T) {
		db := newSQLiteDB(t, &satellite.PendingSale{}, &satellite.PendingSaleItem{})
		repo := NewSatellitePendingSaleRepository(db)

		older := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		newer := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

		require.NoError(t, db.Create(pendingSaleFixture("0002", "00000005", newer)).Error)
		require.NoError(t, db.Create(pendingSaleFixture("0001", "00000003", older)).Error)
		require.NoError(t, db.Create(pendingSaleFixture("0002", "00000001", older)).Error)

		keys, err := repo.ListPendingKeys(ctx)
		require.NoError(t, err)
		require.Len(t, keys, 3)
		assert.Equal(t, satellite.DocumentKey{DocumentType: "PRV", Branch: "0001", Number: "00000003"}, keys[0])
		assert.Equal(t, satellite.DocumentKey{DocumentType: "PRV", Branch: "0002", Number: "00000001"}, keys[1])
		assert.Equal(t, satellite.DocumentKey{DocumentType: "PRV", Branch: "0002", Number: "00000005"}, keys[2])
	})

	t.Run("ignores other document types", func(t *testing.T) {
		db := newSQLiteDB(t, &satellite.PendingSale{}, &satellite.PendingSaleItem{})
		repo := NewSatellitePendingSaleRepository(db)

		other := pendingSaleFixture("0001", "00000001", time.Now())
		other.DocumentType = "FCB"
		other.Items = nil
		require.NoError(t, db.Create(other).Error)

		keys, err := repo.ListPendingKeys(ctx)
		require.NoError(t, err)
		assert.Empty(t, keys)
	})
}

func TestSatellitePendingSaleRepository_FindByKey(t *testing.T) {
	ctx := context.Background()

	t.Run("loads header with items", func(t *testing.T) {
		db := newSQLiteDB(t, &satellite.PendingSale{}, &satellite.PendingSaleItem{})
		repo := NewSatellitePendingSaleRepository(db)

		sale := pendingSaleFixture("0001", "00000003", time.Now())
		require.NoError(t, db.Create(sale).Error)

		got, err := repo.FindByKey(ctx, sale.Key())
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "00000003", got.Number)
		require.Len(t, got.Items, 1)
		assert.Equal(t, "A001", got.Items[0].ArticleCode)
	})

	t.Run("missing record yields nil without error", func(t *testing.T) {
		db := newSQLiteDB(t, &satellite.PendingSale{}, &satellite.PendingSaleItem{})
		repo := NewSatellitePendingSaleRepository(db)

		got, err := repo.FindByKey(ctx, satellite.DocumentKey{DocumentType: "PRV", Branch: "0001", Number: "00000099"})
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestSatellitePendingSaleRepository_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("removes header and items together", func(t *testing.T) {
		db := newSQLiteDB(t, &satellite.PendingSale{}, &satellite.PendingSaleItem{})
		repo := NewSatellitePendingSaleRepository(db)

		sale := pendingSaleFixture("0001", "00000010", time.Now())
		require.NoError(t, db.Create(sale).Error)

		require.NoError(t, repo.Delete(ctx, sale.Key()))

		var headers, items int64
		require.NoError(t, db.Model(&satellite.PendingSale{}).Count(&headers).Error)
		require.NoError(t, db.Model(&satellite.PendingSaleItem{}).Count(&items).Error)
		assert.Zero(t, headers)
		assert.Zero(t, items)
	})

	t.Run("leaves other sales untouched", func(t *testing.T) {
		db := newSQLiteDB(t, &satellite.PendingSale{}, &satellite.PendingSaleItem{})
		repo := NewSatellitePendingSaleRepository(db)

		keep := pendingSaleFixture("0001", "00000001", time.Now())
		drop := pendingSaleFixture("0001", "00000002", time.Now())
		require.NoError(t, db.Create(keep).Error)
		require.NoError(t, db.Create(drop).Error)

		require.NoError(t, repo.Delete(ctx, drop.Key()))

		var headers int64
		require.NoError(t, db.Model(&satellite.PendingSale{}).Count(&headers).Error)
		assert.Equal(t, int64(1), headers)
	})
}

func TestPrimaryDocumentRepository_InsertDocument(t *testing.T) {
	ctx := context.Background()

	t.Run("inserts header and items inside caller transaction", func(t *testing.T) {
		db := newSQLiteDB(t, &satellite.Document{}, &satellite.DocumentItem{})
		repo := NewPrimaryDocumentRepository(db)

		sale := pendingSaleFixture("0001", "00000010", time.Now())
		doc := satellite.NewDocumentFromPendingSale(sale, "FCB", "00000042")

		err := db.Transaction(func(tx *gorm.DB) error {
			return repo.InsertDocument(ctx, tx, doc)
		})
		require.NoError(t, err)

		var stored satellite.Document
		require.NoError(t, db.Preload("Items").
			Where("document_type = ? AND branch = ? AND number = ?", "FCB", "0001", "00000042").
			First(&stored).Error)
		assert.Equal(t, "00000010", stored.SourceNumber)
		assert.Len(t, stored.Items, 1)
		// doc retains its items for callers after insertion
		assert.Len(t, doc.Items, 1)
	})

	t.Run("rolled back transaction leaves no rows", func(t *testing.T) {
		db := newSQLiteDB(t, &satellite.Document{}, &satellite.DocumentItem{})
		repo := NewPrimaryDocumentRepository(db)

		sale := pendingSaleFixture("0001", "00000011", time.Now())
		doc := satellite.NewDocumentFromPendingSale(sale, "FCB", "00000043")

		err := db.Transaction(func(tx *gorm.DB) error {
			if err := repo.InsertDocument(ctx, tx, doc); err != nil {
				return err
			}
			return fmt.Errorf("forced rollback")
		})
		require.Error(t, err)

		var headers, items int64
		require.NoError(t, db.Model(&satellite.Document{}).Count(&headers).Error)
		require.NoError(t, db.Model(&satellite.DocumentItem{}).Count(&items).Error)
		assert.Zero(t, headers)
		assert.Zero(t, items)
	})
}

func TestPrimaryDocumentRepository_CleanupBacklog(t *testing.T) {
	ctx := context.Background()

	t.Run("add, list and remove round trip", func(t *testing.T) {
		db := newSQLiteDB(t, &satellite.CleanupBacklogEntry{})
		repo := NewPrimaryDocumentRepository(db)

		keyA := satellite.DocumentKey{DocumentType: "PRV", Branch: "0001", Number: "00000001"}
		keyB := satellite.DocumentKey{DocumentType: "PRV", Branch: "0001", Number: "00000002"}

		require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
			if err := repo.AddCleanupBacklog(ctx, tx, keyB, time.Now()); err != nil {
				return err
			}
			return repo.AddCleanupBacklog(ctx, tx, keyA, time.Now().Add(-time.Hour))
		}))

		entries, err := repo.ListCleanupBacklog(ctx)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		// ordered by migration time, oldest first
		assert.Equal(t, "00000001", entries[0].Number)

		require.NoError(t, repo.RemoveCleanupBacklog(ctx, keyA))

		entries, err = repo.ListCleanupBacklog(ctx)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "00000002", entries[0].Number)
	})
}
