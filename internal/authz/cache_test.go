package authz

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCacheKey(resourceID string) *CacheKey {
	return &CacheKey{
		UserID:         "user_alice",
		Roles:          []string{"user"},
		AllowedTenants: []string{"tenant_A"},
		TenantID:       "tenant_A",
		ResourceKind:   "account",
		ResourceID:     resourceID,
		Action:         "view",
	}
}

func TestCacheKeyString(t *testing.T) {
	t.Parallel()

	t.Run("deterministic", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, testCacheKey("ac_100").String(), testCacheKey("ac_100").String())
	})

	t.Run("resource changes the key", func(t *testing.T) {
		t.Parallel()
		assert.NotEqual(t, testCacheKey("ac_100").String(), testCacheKey("ac_101").String())
	})

	t.Run("roles change the key", func(t *testing.T) {
		t.Parallel()
		a := testCacheKey("ac_100")
		b := testCacheKey("ac_100")
		b.Roles = []string{"agent"}
		assert.NotEqual(t, a.String(), b.String())
	})

	t.Run("tenant changes the key", func(t *testing.T) {
		t.Parallel()
		a := testCacheKey("ac_100")
		b := testCacheKey("ac_100")
		b.TenantID = "tenant_B"
		assert.NotEqual(t, a.String(), b.String())
	})
}

func TestMemoryDecisionCache(t *testing.T) {
	t.Parallel()

	t.Run("get and set", func(t *testing.T) {
		t.Parallel()
		cache := NewMemoryDecisionCache(time.Minute, 100)
		defer func() { _ = cache.Close() }()

		ctx := context.Background()
		key := testCacheKey("ac_100")

		_, ok := cache.Get(ctx, key)
		require.False(t, ok)

		cache.Set(ctx, key, &CachedDecision{Allowed: true, Rule: "ownership"})

		cached, ok := cache.Get(ctx, key)
		require.True(t, ok)
		assert.True(t, cached.Allowed)
		assert.Equal(t, "ownership", cached.Rule)
	})

	t.Run("expired entries miss", func(t *testing.T) {
		t.Parallel()
		cache := NewMemoryDecisionCache(10*time.Millisecond, 100)
		defer func() { _ = cache.Close() }()

		ctx := context.Background()
		key := testCacheKey("ac_100")
		cache.Set(ctx, key, &CachedDecision{Allowed: true})

		require.Eventually(t, func() bool {
			_, ok := cache.Get(ctx, key)
			return !ok
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("eviction at capacity", func(t *testing.T) {
		t.Parallel()
		cache := NewMemoryDecisionCache(time.Minute, 2)
		defer func() { _ = cache.Close() }()

		ctx := context.Background()
		cache.Set(ctx, testCacheKey("ac_1"), &CachedDecision{Allowed: true})
		cache.Set(ctx, testCacheKey("ac_2"), &CachedDecision{Allowed: true})
		cache.Set(ctx, testCacheKey("ac_3"), &CachedDecision{Allowed: true})

		hits := 0
		for _, id := range []string{"ac_1", "ac_2", "ac_3"} {
			if _, ok := cache.Get(ctx, testCacheKey(id)); ok {
				hits++
			}
		}
		assert.Equal(t, 2, hits)
	})

	t.Run("clear", func(t *testing.T) {
		t.Parallel()
		cache := NewMemoryDecisionCache(time.Minute, 100)
		defer func() { _ = cache.Close() }()

		ctx := context.Background()
		cache.Set(ctx, testCacheKey("ac_100"), &CachedDecision{Allowed: true})
		cache.Clear(ctx)

		_, ok := cache.Get(ctx, testCacheKey("ac_100"))
		assert.False(t, ok)
	})
}

func TestRedisDecisionCache(t *testing.T) {
	t.Parallel()

	newRedisCache := func(t *testing.T, ttl time.Duration) DecisionCache {
		t.Helper()
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		cache := NewRedisDecisionCache(client, ttl, WithRedisCachePrefix("cordon:authz:"))
		t.Cleanup(func() { _ = cache.Close() })
		return cache
	}

	t.Run("get and set", func(t *testing.T) {
		t.Parallel()
		cache := newRedisCache(t, time.Minute)

		ctx := context.Background()
		key := testCacheKey("ac_100")

		_, ok := cache.Get(ctx, key)
		require.False(t, ok)

		cache.Set(ctx, key, &CachedDecision{
			Allowed: false,
			Reason:  ReasonPolicyDenied,
		})

		cached, ok := cache.Get(ctx, key)
		require.True(t, ok)
		assert.False(t, cached.Allowed)
		assert.Equal(t, ReasonPolicyDenied, cached.Reason)
	})

	t.Run("distinct keys do not collide", func(t *testing.T) {
		t.Parallel()
		cache := newRedisCache(t, time.Minute)

		ctx := context.Background()
		cache.Set(ctx, testCacheKey("ac_100"), &CachedDecision{Allowed: true, Rule: "ownership"})
		cache.Set(ctx, testCacheKey("ac_101"), &CachedDecision{Allowed: false, Reason: ReasonPolicyDenied})

		first, ok := cache.Get(ctx, testCacheKey("ac_100"))
		require.True(t, ok)
		assert.True(t, first.Allowed)

		second, ok := cache.Get(ctx, testCacheKey("ac_101"))
		require.True(t, ok)
		assert.False(t, second.Allowed)
	})
}

func TestNoopDecisionCache(t *testing.T) {
	t.Parallel()

	cache := NewNoopDecisionCache()
	ctx := context.Background()
	key := testCacheKey("ac_100")

	cache.Set(ctx, key, &CachedDecision{Allowed: true})
	_, ok := cache.Get(ctx, key)
	assert.False(t, ok)
	assert.NoError(t, cache.Close())
}

func TestNewDecisionCache(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		config  *CacheConfig
		wantErr bool
	}{
		{
			name:   "nil config yields noop",
			config: nil,
		},
		{
			name:   "disabled yields noop",
			config: &CacheConfig{Enabled: false, Type: "memory"},
		},
		{
			name:   "memory",
			config: &CacheConfig{Enabled: true, Type: "memory", TTL: time.Minute, MaxSize: 10},
		},
		{
			name:   "empty type defaults to memory",
			config: &CacheConfig{Enabled: true},
		},
		{
			name: "redis",
			config: &CacheConfig{
				Enabled: true,
				Type:    "redis",
				Redis:   &RedisCacheConfig{Addr: "localhost:6379"},
			},
		},
		{
			name:    "redis without addr",
			config:  &CacheConfig{Enabled: true, Type: "redis"},
			wantErr: true,
		},
		{
			name:    "unknown type",
			config:  &CacheConfig{Enabled: true, Type: "memcached"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cache, err := NewDecisionCache(tt.config, nil, nil)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, cache)
			_ = cache.Close()
		})
	}
}
