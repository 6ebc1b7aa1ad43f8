package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vendra/backend/internal/domain/tenant"
)

func testTenant(id string) *tenant.Tenant {
	return &tenant.Tenant{
		ID:     id,
		Name:   "Tenant " + id,
		DBHost: "localhost",
		DBPort: 5432,
		DBName: "tenant_" + id,
		DBUser: "app",
		Status: tenant.StatusActive,
	}
}

func TestInMemoryTenantConfigCache(t *testing.T) {
	ctx := context.Background()

	t.Run("set then get returns entry", func(t *testing.T) {
		c := NewInMemoryTenantConfigCache(time.Minute, zap.NewNop())
		defer c.Stop()

		require.NoError(t, c.Set(ctx, testTenant("t1"), 0))

		got, err := c.Get(ctx, "t1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "t1", got.ID)
	})

	t.Run("miss returns nil without error", func(t *testing.T) {
		c := NewInMemoryTenantConfigCache(time.Minute, zap.NewNop())
		defer c.Stop()

		got, err := c.Get(ctx, "absent")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("expired entry is a miss", func(t *testing.T) {
		c := NewInMemoryTenantConfigCache(time.Minute, zap.NewNop())
		defer c.Stop()

		require.NoError(t, c.Set(ctx, testTenant("t1"), 10*time.Millisecond))
		time.Sleep(30 * time.Millisecond)

		got, err := c.Get(ctx, "t1")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("invalidate evicts entry", func(t *testing.T) {
		c := NewInMemoryTenantConfigCache(time.Minute, zap.NewNop())
		defer c.Stop()

		require.NoError(t, c.Set(ctx, testTenant("t1"), 0))
		require.NoError(t, c.Invalidate(ctx, "t1"))

		got, err := c.Get(ctx, "t1")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("nil tenant is ignored", func(t *testing.T) {
		c := NewInMemoryTenantConfigCache(time.Minute, zap.NewNop())
		defer c.Stop()

		assert.NoError(t, c.Set(ctx, nil, 0))
	})

	t.Run("stats track hits and misses", func(t *testing.T) {
		c := NewInMemoryTenantConfigCache(time.Minute, zap.NewNop())
		defer c.Stop()

		require.NoError(t, c.Set(ctx, testTenant("t1"), 0))
		_, _ = c.Get(ctx, "t1")
		_, _ = c.Get(ctx, "t1")
		_, _ = c.Get(ctx, "absent")

		hits, misses := c.Stats()
		assert.Equal(t, int64(2), hits)
		assert.Equal(t, int64(1), misses)
	})

	t.Run("stop is idempotent", func(t *testing.T) {
		c := NewInMemoryTenantConfigCache(time.Minute, zap.NewNop())
		c.Stop()
		c.Stop()
	})
}
