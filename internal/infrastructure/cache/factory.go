package cache

import (
	"time"

	"github.com/vendra/backend/internal/domain/tenant"
	"github.com/vendra/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// TenantConfigCacheFactory builds the tenant config cache from
// configuration, preferring the tiered Redis-backed cache and falling
// back to memory-only when Redis is disabled or unreachable.
type TenantConfigCacheFactory struct {
	redisConfig config.RedisConfig
	ttl         time.Duration
	logger      *zap.Logger
}

// NewTenantConfigCacheFactory creates a new factory
func NewTenantConfigCacheFactory(redisCfg config.RedisConfig, ttl time.Duration, logger *zap.Logger) *TenantConfigCacheFactory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TenantConfigCacheFactory{redisConfig: redisCfg, ttl: ttl, logger: logger}
}

// CreateCache builds the cache. Redis being unavailable is logged and
// degraded to memory-only, never fatal: the cache is an optimization,
// the catalog stays authoritative.
func (f *TenantConfigCacheFactory) CreateCache() tenant.ConfigCache {
	l1 := NewInMemoryTenantConfigCache(f.ttl, f.logger)

	if !f.redisConfig.Enabled {
		return l1
	}

	l2, err := NewRedisTenantConfigCache(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	}, f.ttl)
	if err != nil {
		f.logger.Warn("Redis unavailable, using in-memory tenant config cache only", zap.Error(err))
		return l1
	}

	return NewTieredTenantConfigCache(l1, l2, f.logger)
}
