package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	satelliteapp "github.com/vendra/backend/internal/application/satellite"
	"github.com/vendra/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// SyncScheduler triggers the satellite sync pipeline on a fixed
// interval. Manual triggers through the admin endpoint coexist with
// it; an overlap simply skips the tick.
type SyncScheduler struct {
	interval time.Duration
	service  *satelliteapp.SyncService
	logger   *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewSyncScheduler creates a new SyncScheduler
func NewSyncScheduler(interval time.Duration, service *satelliteapp.SyncService, logger *zap.Logger) *SyncScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncScheduler{
		interval: interval,
		service:  service,
		logger:   logger.Named("sync-scheduler"),
	}
}

// Start starts the periodic trigger. Calling Start on a running
// scheduler is a no-op.
func (s *SyncScheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.runLoop(ctx)

	s.logger.Info("sync scheduler started", zap.Duration("interval", s.interval))
}

// Stop stops the trigger and waits for an in-flight run to finish
func (s *SyncScheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	s.logger.Info("sync scheduler stopped")
}

func (s *SyncScheduler) runLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *SyncScheduler) runOnce(ctx context.Context) {
	result, err := s.service.RunBatch(ctx)
	if err != nil {
		if errors.Is(err, shared.ErrSyncRunning) {
			s.logger.Debug("sync already in progress, skipping tick")
			return
		}
		s.logger.Error("scheduled sync batch failed", zap.Error(err))
		return
	}
	s.logger.Info("scheduled sync batch finished",
		zap.Int("migrated", result.MigratedCount),
		zap.Time("last_sync", result.LastSync),
	)
}
