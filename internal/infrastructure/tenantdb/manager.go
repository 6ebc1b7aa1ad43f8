package tenantdb

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vendra/backend/internal/domain/shared"
	"github.com/vendra/backend/internal/domain/tenant"
	"github.com/vendra/backend/internal/infrastructure/config"
	"github.com/vendra/backend/internal/infrastructure/persistence"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	gormlogger "gorm.io/gorm/logger"
)

// OpenFunc opens a pooled connection for a resolved tenant. Injectable
// so tests can back pools with something other than postgres.
type OpenFunc func(t *tenant.Tenant) (*persistence.Database, error)

// PoolStatus is one tenant's pool occupancy for diagnostics
type PoolStatus struct {
	Active int `json:"active"`
	Idle   int `json:"idle"`
	Max    int `json:"max"`
}

// Manager maps tenant id → one lazily created, reused connection pool.
// Creation is serialized per tenant id through singleflight, so two
// concurrent first resolutions for the same tenant share a single pool;
// unrelated tenants never wait on each other.
type Manager struct {
	resolver       *Resolver
	open           OpenFunc
	acquireTimeout time.Duration
	logger         *zap.Logger

	mu    sync.RWMutex
	pools map[string]*persistence.Database
	group singleflight.Group
}

// NewManager creates a Manager whose pools are bounded by cfg and
// logged through gormLog.
func NewManager(resolver *Resolver, cfg config.TenantDBConfig, gormLog gormlogger.Interface, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	bounds := persistence.PoolBounds{
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.ConnMaxLifetime) * time.Minute,
		ConnMaxIdleTime: time.Duration(cfg.ConnMaxIdleTime) * time.Minute,
	}
	return &Manager{
		resolver:       resolver,
		acquireTimeout: cfg.AcquireTimeout,
		logger:         logger,
		pools:          make(map[string]*persistence.Database),
		open: func(t *tenant.Tenant) (*persistence.Database, error) {
			return persistence.NewDatabaseFromDSN(t.DSN(), bounds, gormLog)
		},
	}
}

// NewManagerWithOpener creates a Manager with a custom pool opener
func NewManagerWithOpener(resolver *Resolver, acquireTimeout time.Duration, open OpenFunc, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		resolver:       resolver,
		acquireTimeout: acquireTimeout,
		logger:         logger,
		pools:          make(map[string]*persistence.Database),
		open:           open,
	}
}

// Get returns the pool for an active tenant, creating it on first use.
// An already-registered handle is returned unchanged; no second pool is
// ever created for a tenant.
func (m *Manager) Get(ctx context.Context, tenantID string) (*persistence.Database, error) {
	m.mu.RLock()
	db, ok := m.pools[tenantID]
	m.mu.RUnlock()
	if ok {
		return db, nil
	}

	v, err, _ := m.group.Do(tenantID, func() (any, error) {
		// Another caller may have finished creation while we queued
		m.mu.RLock()
		existing, ok := m.pools[tenantID]
		m.mu.RUnlock()
		if ok {
			return existing, nil
		}
		return m.create(ctx, tenantID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*persistence.Database), nil
}

// create resolves config, opens the pool, and verifies liveness within
// the acquire timeout before registering the handle.
func (m *Manager) create(ctx context.Context, tenantID string) (*persistence.Database, error) {
	t, err := m.resolver.Resolve(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	db, err := m.open(t)
	if err != nil {
		m.resolver.Evict(ctx, tenantID)
		return nil, fmt.Errorf("%w: %v", shared.ErrConnectFailed, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, m.acquireTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		m.resolver.Evict(ctx, tenantID)
		return nil, fmt.Errorf("%w: %v", shared.ErrConnectFailed, err)
	}

	m.mu.Lock()
	m.pools[tenantID] = db
	m.mu.Unlock()

	m.logger.Info("created tenant connection pool", zap.String("tenant_id", tenantID))
	return db, nil
}

// Evict closes and forgets a tenant's pool after a failure, together
// with its cached config, so the next Get retries from a clean
// catalog read.
func (m *Manager) Evict(ctx context.Context, tenantID string) {
	m.mu.Lock()
	db, ok := m.pools[tenantID]
	delete(m.pools, tenantID)
	m.mu.Unlock()

	if ok {
		if err := db.Close(); err != nil {
			m.logger.Warn("failed to close evicted pool", zap.String("tenant_id", tenantID), zap.Error(err))
		}
	}
	m.resolver.Evict(ctx, tenantID)
}

// Status reports pool occupancy for every resolved tenant
func (m *Manager) Status() map[string]PoolStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	status := make(map[string]PoolStatus, len(m.pools))
	for id, db := range m.pools {
		stats, err := db.Stats()
		if err != nil {
			continue
		}
		status[id] = PoolStatus{
			Active: stats.InUse,
			Idle:   stats.Idle,
			Max:    stats.MaxOpenConnections,
		}
	}
	return status
}

// ShutdownAll closes every pool and clears the map. Safe to call once
// during process termination; subsequent calls are no-ops.
func (m *Manager) ShutdownAll() error {
	m.mu.Lock()
	pools := m.pools
	m.pools = make(map[string]*persistence.Database)
	m.mu.Unlock()

	var firstErr error
	for id, db := range pools {
		if err := db.Close(); err != nil {
			m.logger.Warn("failed to close tenant pool", zap.String("tenant_id", id), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
