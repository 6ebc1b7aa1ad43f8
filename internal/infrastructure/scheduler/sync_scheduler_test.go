package scheduler

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	satelliteapp "github.com/vendra/backend/internal/application/satellite"
	"github.com/vendra/backend/internal/domain/numbering"
	sat "github.com/vendra/backend/internal/domain/satellite"
	"github.com/vendra/backend/internal/infrastructure/persistence"
)

// fixedAllocator satisfies numbering.Allocator; scheduler tests run on
// an empty satellite so it is never reached
type fixedAllocator struct{}

func (fixedAllocator) Allocate(ctx context.Context, tx *gorm.DB, docType, branch string) (string, error) {
	return numbering.Format(1), nil
}

func (fixedAllocator) AllocateNew(ctx context.Context, db *gorm.DB, docType, branch string) (string, error) {
	return numbering.Format(1), nil
}

func newTestService(t *testing.T) *satelliteapp.SyncService {
	t.Helper()

	open := func(models ...any) *gorm.DB {
		dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
		db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		require.NoError(t, err)
		require.NoError(t, db.AutoMigrate(models...))
		return db
	}

	primary := open(&sat.Document{}, &sat.DocumentItem{}, &sat.CleanupBacklogEntry{},
		&sat.Article{}, &sat.Client{}, &sat.Vendor{})
	satDB := open(&sat.PendingSale{}, &sat.PendingSaleItem{},
		&sat.Article{}, &sat.Client{}, &sat.Vendor{})

	return satelliteapp.NewSyncService(
		persistence.NewReferenceRepository(primary, satDB),
		persistence.NewSatellitePendingSaleRepository(satDB),
		persistence.NewPrimaryDocumentRepository(primary),
		fixedAllocator{},
		"FCB",
		zap.NewNop(),
	)
}

func TestSyncScheduler(t *testing.T) {
	t.Run("runs batches on the interval", func(t *testing.T) {
		service := newTestService(t)
		s := NewSyncScheduler(20*time.Millisecond, service, zap.NewNop())

		s.Start(context.Background())
		defer s.Stop()

		require.Eventually(t, func() bool {
			return !service.LastSync().IsZero()
		}, 2*time.Second, 10*time.Millisecond)
	})

	t.Run("start is idempotent", func(t *testing.T) {
		service := newTestService(t)
		s := NewSyncScheduler(time.Hour, service, zap.NewNop())

		s.Start(context.Background())
		s.Start(context.Background())
		s.Stop()
	})

	t.Run("stop without start is a no-op", func(t *testing.T) {
		service := newTestService(t)
		s := NewSyncScheduler(time.Hour, service, zap.NewNop())
		s.Stop()
	})

	t.Run("stop halts further runs", func(t *testing.T) {
		service := newTestService(t)
		s := NewSyncScheduler(20*time.Millisecond, service, zap.NewNop())

		s.Start(context.Background())
		require.Eventually(t, func() bool {
			return !service.LastSync().IsZero()
		}, 2*time.Second, 10*time.Millisecond)
		s.Stop()

		last := service.LastSync()
		time.Sleep(100 * time.Millisecond)
		assert.Equal(t, last, service.LastSync())
	})
}
