package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vendra/backend/internal/domain/tenant"
	"go.uber.org/zap"
)

// cleanupInterval is how often expired entries are swept
const cleanupInterval = 30 * time.Second

// InMemoryTenantConfigCache implements tenant.ConfigCache using local
// process memory. Used standalone in single-instance deployments and
// as the L1 tier in front of Redis otherwise.
type InMemoryTenantConfigCache struct {
	entries sync.Map // map[string]*cacheEntry
	ttl     time.Duration
	logger  *zap.Logger
	stopCh  chan struct{}
	stopped int32

	hits   int64
	misses int64
}

// cacheEntry wraps a cached tenant with its expiration time
type cacheEntry struct {
	value     *tenant.Tenant
	expiresAt time.Time
}

func (e *cacheEntry) isExpired() bool {
	return time.Now().After(e.expiresAt)
}

// NewInMemoryTenantConfigCache creates a new in-memory tenant config cache
func NewInMemoryTenantConfigCache(ttl time.Duration, logger *zap.Logger) *InMemoryTenantConfigCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &InMemoryTenantConfigCache{
		ttl:    ttl,
		logger: logger,
		stopCh: make(chan struct{}),
	}
	go c.cleanupExpired()
	return c
}

// Get retrieves a tenant config from cache; nil, nil on miss
func (c *InMemoryTenantConfigCache) Get(ctx context.Context, id string) (*tenant.Tenant, error) {
	if value, ok := c.entries.Load(id); ok {
		entry := value.(*cacheEntry)
		if !entry.isExpired() {
			atomic.AddInt64(&c.hits, 1)
			return entry.value, nil
		}
		c.entries.Delete(id)
	}
	atomic.AddInt64(&c.misses, 1)
	return nil, nil
}

// Set stores a tenant config with the given TTL (cache default if zero)
func (c *InMemoryTenantConfigCache) Set(ctx context.Context, t *tenant.Tenant, ttl time.Duration) error {
	if t == nil {
		return nil
	}
	if ttl == 0 {
		ttl = c.ttl
	}
	c.entries.Store(t.ID, &cacheEntry{value: t, expiresAt: time.Now().Add(ttl)})
	return nil
}

// Invalidate evicts one tenant entry
func (c *InMemoryTenantConfigCache) Invalidate(ctx context.Context, id string) error {
	c.entries.Delete(id)
	c.logger.Debug("evicted tenant config from cache", zap.String("tenant_id", id))
	return nil
}

// Stats returns hit/miss counters for diagnostics
func (c *InMemoryTenantConfigCache) Stats() (hits, misses int64) {
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses)
}

// Stop terminates the background cleanup goroutine
func (c *InMemoryTenantConfigCache) Stop() {
	if atomic.CompareAndSwapInt32(&c.stopped, 0, 1) {
		close(c.stopCh)
	}
}

// cleanupExpired periodically removes expired entries
func (c *InMemoryTenantConfigCache) cleanupExpired() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.entries.Range(func(key, value any) bool {
				if value.(*cacheEntry).isExpired() {
					c.entries.Delete(key)
				}
				return true
			})
		}
	}
}
