package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vendra/backend/internal/domain/tenant"
)

// RedisTenantConfigCache implements tenant.ConfigCache using Redis.
// Suitable as the shared L2 tier when several instances route the same
// tenants and should see an eviction at the same moment.
type RedisTenantConfigCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisTenantConfigCache creates a new Redis-backed tenant config cache
func NewRedisTenantConfigCache(cfg RedisConfig, ttl time.Duration) (*RedisTenantConfigCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisTenantConfigCache{
		client:    client,
		keyPrefix: "tenant:config:",
		ttl:       ttl,
	}, nil
}

// NewRedisTenantConfigCacheWithClient creates a cache with an existing
// Redis client, useful for testing or client sharing
func NewRedisTenantConfigCacheWithClient(client *redis.Client, ttl time.Duration) *RedisTenantConfigCache {
	return &RedisTenantConfigCache{
		client:    client,
		keyPrefix: "tenant:config:",
		ttl:       ttl,
	}
}

// Get retrieves a tenant config; nil, nil on miss
func (c *RedisTenantConfigCache) Get(ctx context.Context, id string) (*tenant.Tenant, error) {
	payload, err := c.client.Get(ctx, c.keyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read tenant config from redis: %w", err)
	}

	var t tenant.Tenant
	if err := json.Unmarshal(payload, &t); err != nil {
		// A corrupt entry behaves like a miss so the catalog is re-read
		_ = c.client.Del(ctx, c.keyPrefix+id).Err()
		return nil, nil
	}
	return &t, nil
}

// Set stores a tenant config with the given TTL (cache default if zero)
func (c *RedisTenantConfigCache) Set(ctx context.Context, t *tenant.Tenant, ttl time.Duration) error {
	if t == nil {
		return nil
	}
	if ttl == 0 {
		ttl = c.ttl
	}
	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal tenant config: %w", err)
	}
	if err := c.client.Set(ctx, c.keyPrefix+t.ID, payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write tenant config to redis: %w", err)
	}
	return nil
}

// Invalidate evicts one tenant entry
func (c *RedisTenantConfigCache) Invalidate(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, c.keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("failed to evict tenant config from redis: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (c *RedisTenantConfigCache) Close() error {
	return c.client.Close()
}
