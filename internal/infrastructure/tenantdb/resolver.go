package tenantdb

import (
	"context"
	"time"

	"github.com/vendra/backend/internal/domain/shared"
	"github.com/vendra/backend/internal/domain/tenant"
	"go.uber.org/zap"
)

// Resolver answers "which database does this tenant live in" from the
// cache first and the catalog store on a miss. Only active tenants
// resolve; everything else is a configuration error for the caller.
type Resolver struct {
	store  tenant.ConfigStore
	cache  tenant.ConfigCache
	ttl    time.Duration
	logger *zap.Logger
}

// NewResolver creates a new Resolver
func NewResolver(store tenant.ConfigStore, cache tenant.ConfigCache, ttl time.Duration, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{store: store, cache: cache, ttl: ttl, logger: logger}
}

// Resolve returns the connection parameters for an active tenant.
// Inactive tenants fail with shared.ErrTenantInactive even when a stale
// cache entry exists, so deactivation takes effect within one TTL.
func (r *Resolver) Resolve(ctx context.Context, tenantID string) (*tenant.Tenant, error) {
	if cached, err := r.cache.Get(ctx, tenantID); err == nil && cached != nil {
		if !cached.IsActive() {
			return nil, shared.ErrTenantInactive
		}
		return cached, nil
	}

	t, err := r.store.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if !t.IsActive() {
		return nil, shared.ErrTenantInactive
	}

	if err := r.cache.Set(ctx, t, r.ttl); err != nil {
		r.logger.Warn("failed to cache tenant config", zap.String("tenant_id", tenantID), zap.Error(err))
	}
	return t, nil
}

// Evict drops the cached entry so the next resolution re-reads the
// catalog. Called after any connection failure for the tenant, which
// makes credential rotation work without a restart.
func (r *Resolver) Evict(ctx context.Context, tenantID string) {
	if err := r.cache.Invalidate(ctx, tenantID); err != nil {
		r.logger.Warn("failed to evict tenant config", zap.String("tenant_id", tenantID), zap.Error(err))
	}
}
