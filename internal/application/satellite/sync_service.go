package satellite

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vendra/backend/internal/domain/numbering"
	sat "github.com/vendra/backend/internal/domain/satellite"
	"github.com/vendra/backend/internal/domain/shared"
	"github.com/vendra/backend/internal/infrastructure/logger"
	"github.com/vendra/backend/internal/infrastructure/persistence"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SyncService migrates reference snapshots and pending sales between
// the primary and satellite databases. One record at a time, no
// internal parallelism: that bounds memory and keeps two runs from
// racing on the same sequence keys.
type SyncService struct {
	refs        *persistence.ReferenceRepository
	pending     *persistence.SatellitePendingSaleRepository
	documents   *persistence.PrimaryDocumentRepository
	allocator   numbering.Allocator
	destDocType string
	log         *zap.Logger

	runMu sync.Mutex

	lastMu   sync.Mutex
	lastSync time.Time
}

// NewSyncService creates a new SyncService
func NewSyncService(
	refs *persistence.ReferenceRepository,
	pending *persistence.SatellitePendingSaleRepository,
	documents *persistence.PrimaryDocumentRepository,
	allocator numbering.Allocator,
	destDocType string,
	log *zap.Logger,
) *SyncService {
	if log == nil {
		log = zap.NewNop()
	}
	return &SyncService{
		refs:        refs,
		pending:     pending,
		documents:   documents,
		allocator:   allocator,
		destDocType: destDocType,
		log:         log.Named("sync"),
	}
}

// LastSync returns the wall-clock timestamp of the last completed run
func (s *SyncService) LastSync() time.Time {
	s.lastMu.Lock()
	defer s.lastMu.Unlock()
	return s.lastSync
}

// RefreshReferences replaces the satellite's mirrored reference tables
// with the primary's active-row snapshots. Each table is one satellite
// transaction, so a failed insert leaves that table in its prior state.
func (s *SyncService) RefreshReferences(ctx context.Context) error {
	articles, err := s.refs.RefreshArticles(ctx)
	if err != nil {
		return fmt.Errorf("refreshing articles: %w", err)
	}
	clients, err := s.refs.RefreshClients(ctx)
	if err != nil {
		return fmt.Errorf("refreshing clients: %w", err)
	}
	vendors, err := s.refs.RefreshVendors(ctx)
	if err != nil {
		return fmt.Errorf("refreshing vendors: %w", err)
	}

	s.log.Info("reference refresh complete",
		zap.Int("articles", articles),
		zap.Int("clients", clients),
		zap.Int("vendors", vendors),
	)
	return nil
}

// RunBatch refreshes references and migrates every pending sale from
// the satellite into the primary database. Overlapping runs are
// rejected with shared.ErrSyncRunning rather than queued.
func (s *SyncService) RunBatch(ctx context.Context) (*sat.BatchResult, error) {
	if !s.runMu.TryLock() {
		return nil, shared.ErrSyncRunning
	}
	defer s.runMu.Unlock()

	runID := uuid.NewString()
	ctx, log := logger.WithSyncRunID(ctx, s.log, runID)

	backlog, err := s.retryCleanupBacklog(ctx, log)
	if err != nil {
		return nil, err
	}

	if err := s.RefreshReferences(ctx); err != nil {
		return nil, err
	}

	migrated, err := s.migratePendingSales(ctx, log, backlog)
	if err != nil {
		return nil, err
	}

	s.lastMu.Lock()
	s.lastSync = time.Now()
	last := s.lastSync
	s.lastMu.Unlock()

	log.Info("sync batch complete", zap.Int("migrated", migrated))
	return &sat.BatchResult{MigratedCount: migrated, LastSync: last}, nil
}

// retryCleanupBacklog re-attempts the satellite deletion for every key
// that was migrated in an earlier run but not cleaned up. Keys that
// still cannot be deleted stay in the returned set so the migration
// loop will not migrate them a second time.
func (s *SyncService) retryCleanupBacklog(ctx context.Context, log *zap.Logger) (map[sat.DocumentKey]bool, error) {
	entries, err := s.documents.ListCleanupBacklog(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading cleanup backlog: %w", err)
	}

	remaining := make(map[sat.DocumentKey]bool)
	for _, entry := range entries {
		key := sat.DocumentKey{DocumentType: entry.DocumentType, Branch: entry.Branch, Number: entry.Number}
		if err := s.pending.Delete(ctx, key); err != nil {
			log.Warn("satellite cleanup still failing for migrated record",
				zap.String("branch", key.Branch),
				zap.String("number", key.Number),
				zap.Error(err),
			)
			remaining[key] = true
			continue
		}
		if err := s.documents.RemoveCleanupBacklog(ctx, key); err != nil {
			log.Warn("could not clear cleanup backlog entry",
				zap.String("branch", key.Branch),
				zap.String("number", key.Number),
				zap.Error(err),
			)
			remaining[key] = true
		}
	}
	return remaining, nil
}

// migratePendingSales snapshots the ordered pending sale keys once and
// runs the per-record unit of work for each. Any failure before the
// primary commit aborts the whole run; a failure during satellite
// cleanup is logged, recorded in the backlog, and tolerated.
func (s *SyncService) migratePendingSales(ctx context.Context, log *zap.Logger, backlog map[sat.DocumentKey]bool) (int, error) {
	log.Debug("migration unit state", zap.String("state", string(sat.UnitReading)))
	keys, err := s.pending.ListPendingKeys(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing pending sales: %w", err)
	}

	migrated := 0
	for _, key := range keys {
		// Clean cancel point between records
		if err := ctx.Err(); err != nil {
			return migrated, err
		}

		if backlog[key] {
			// Durably migrated in an earlier run; the stale satellite copy
			// survived the retry at run start. Skipping it here is what
			// guarantees a record is never migrated twice.
			log.Debug("skipping record awaiting satellite cleanup",
				zap.String("branch", key.Branch),
				zap.String("number", key.Number),
			)
			continue
		}

		sale, err := s.pending.FindByKey(ctx, key)
		if err != nil {
			return migrated, fmt.Errorf("reading pending sale %s/%s: %w", key.Branch, key.Number, err)
		}
		if sale == nil {
			continue
		}

		log.Debug("migration unit state", zap.String("state", string(sat.UnitMigrating)))
		now := time.Now()
		err = s.documents.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			number, allocErr := s.allocator.Allocate(ctx, tx, s.destDocType, sale.Branch)
			if allocErr != nil {
				return allocErr
			}
			doc := sat.NewDocumentFromPendingSale(sale, s.destDocType, number)
			if insErr := s.documents.InsertDocument(ctx, tx, doc); insErr != nil {
				return insErr
			}
			return s.documents.AddCleanupBacklog(ctx, tx, key, now)
		})
		if err != nil {
			log.Debug("migration unit state", zap.String("state", string(sat.UnitAborted)))
			log.Error("migration unit failed, aborting batch",
				zap.String("branch", key.Branch),
				zap.String("number", key.Number),
				zap.Error(err),
			)
			return migrated, fmt.Errorf("migrating pending sale %s/%s: %w", key.Branch, key.Number, err)
		}

		log.Debug("migration unit state", zap.String("state", string(sat.UnitCommitted)))
		migrated++

		log.Debug("migration unit state", zap.String("state", string(sat.UnitCleaning)))
		if err := s.pending.Delete(ctx, key); err != nil {
			// The migrated copy is durable; the stale satellite copy is
			// tracked in the backlog and retried next run. Over-retention
			// is preferred to data loss.
			log.Warn("satellite cleanup failed after commit, record retained in backlog",
				zap.String("branch", key.Branch),
				zap.String("number", key.Number),
				zap.Error(err),
			)
			backlog[key] = true
			continue
		}
		if err := s.documents.RemoveCleanupBacklog(ctx, key); err != nil {
			log.Warn("could not clear cleanup backlog entry",
				zap.String("branch", key.Branch),
				zap.String("number", key.Number),
				zap.Error(err),
			)
		}
	}

	log.Debug("migration unit state", zap.String("state", string(sat.UnitDone)))
	return migrated, nil
}
