package cache

import (
	"context"
	"time"

	"github.com/vendra/backend/internal/domain/tenant"
	"go.uber.org/zap"
)

// TieredTenantConfigCache layers the in-memory cache (L1) over Redis
// (L2). Reads fall through L1 → L2 and repopulate L1; writes and
// evictions go to both tiers. L2 errors degrade to a miss rather than
// failing resolution, since the catalog remains the source of truth.
type TieredTenantConfigCache struct {
	l1     *InMemoryTenantConfigCache
	l2     *RedisTenantConfigCache
	logger *zap.Logger
}

// NewTieredTenantConfigCache creates a new two-tier tenant config cache
func NewTieredTenantConfigCache(l1 *InMemoryTenantConfigCache, l2 *RedisTenantConfigCache, logger *zap.Logger) *TieredTenantConfigCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TieredTenantConfigCache{l1: l1, l2: l2, logger: logger}
}

// Get retrieves a tenant config; nil, nil on miss in both tiers
func (c *TieredTenantConfigCache) Get(ctx context.Context, id string) (*tenant.Tenant, error) {
	if t, err := c.l1.Get(ctx, id); err == nil && t != nil {
		return t, nil
	}

	t, err := c.l2.Get(ctx, id)
	if err != nil {
		c.logger.Warn("L2 tenant config cache read failed", zap.String("tenant_id", id), zap.Error(err))
		return nil, nil
	}
	if t == nil {
		return nil, nil
	}

	_ = c.l1.Set(ctx, t, 0)
	return t, nil
}

// Set stores a tenant config in both tiers
func (c *TieredTenantConfigCache) Set(ctx context.Context, t *tenant.Tenant, ttl time.Duration) error {
	if err := c.l1.Set(ctx, t, ttl); err != nil {
		return err
	}
	if err := c.l2.Set(ctx, t, ttl); err != nil {
		c.logger.Warn("L2 tenant config cache write failed", zap.Error(err))
	}
	return nil
}

// Invalidate evicts the tenant entry from both tiers
func (c *TieredTenantConfigCache) Invalidate(ctx context.Context, id string) error {
	if err := c.l1.Invalidate(ctx, id); err != nil {
		return err
	}
	if err := c.l2.Invalidate(ctx, id); err != nil {
		c.logger.Warn("L2 tenant config cache eviction failed", zap.String("tenant_id", id), zap.Error(err))
	}
	return nil
}
