package authz

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cordonio/cordon/internal/observability"
)

// DecisionCache caches authorization decisions. Identical inputs yield
// identical decisions while the group directory and resource state are
// unchanged, which is what makes caching sound here.
type DecisionCache interface {
	// Get retrieves a cached decision.
	Get(ctx context.Context, key *CacheKey) (*CachedDecision, bool)

	// Set stores a decision in the cache.
	Set(ctx context.Context, key *CacheKey, decision *CachedDecision)

	// Clear clears all cached decisions.
	Clear(ctx context.Context)

	// Close closes the cache.
	Close() error
}

// CacheKey identifies one authorization request. Every input that can
// change the decision is part of the key.
type CacheKey struct {
	// UserID is the principal identity.
	UserID string

	// Roles are the principal's role labels.
	Roles []string

	// AllowedTenants is the principal's allowed-tenant set.
	AllowedTenants []string

	// GroupRef is the principal's group reference.
	GroupRef string

	// TenantID is the requested tenant.
	TenantID string

	// ResourceKind is the resource kind.
	ResourceKind string

	// ResourceID is the resource identifier.
	ResourceID string

	// Action is the requested action.
	Action string
}

// String returns a digest of the cache key.
func (k *CacheKey) String() string {
	h := sha256.New()
	h.Write([]byte(k.UserID))
	for _, role := range k.Roles {
		h.Write([]byte(":r:"))
		h.Write([]byte(role))
	}
	for _, tenant := range k.AllowedTenants {
		h.Write([]byte(":t:"))
		h.Write([]byte(tenant))
	}
	h.Write([]byte(":"))
	h.Write([]byte(k.GroupRef))
	h.Write([]byte(":"))
	h.Write([]byte(k.TenantID))
	h.Write([]byte(":"))
	h.Write([]byte(k.ResourceKind))
	h.Write([]byte(":"))
	h.Write([]byte(k.ResourceID))
	h.Write([]byte(":"))
	h.Write([]byte(k.Action))
	return hex.EncodeToString(h.Sum(nil))
}

// CachedDecision is the stored form of an authorization decision.
type CachedDecision struct {
	// Allowed indicates if the request was allowed.
	Allowed bool `json:"allowed"`

	// Reason is the deny reason code, when denied.
	Reason ReasonCode `json:"reason,omitempty"`

	// Rule is the rule that allowed, when allowed.
	Rule string `json:"rule,omitempty"`

	// CachedAt is when the decision was cached.
	CachedAt time.Time `json:"cached_at"`

	// ExpiresAt is when the cached decision expires.
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired returns true if the cached decision has expired.
func (d *CachedDecision) IsExpired() bool {
	return time.Now().After(d.ExpiresAt)
}

// NewDecisionCache creates a decision cache from configuration.
func NewDecisionCache(cfg *CacheConfig, logger observability.Logger, metrics *Metrics) (DecisionCache, error) {
	if cfg == nil || !cfg.Enabled {
		return NewNoopDecisionCache(), nil
	}
	if logger == nil {
		logger = observability.NopLogger()
	}

	ttl := time.Minute
	if cfg.TTL > 0 {
		ttl = cfg.TTL
	}

	switch cfg.Type {
	case "", "memory":
		maxSize := 10000
		if cfg.MaxSize > 0 {
			maxSize = cfg.MaxSize
		}
		return NewMemoryDecisionCache(ttl, maxSize,
			WithMemoryCacheLogger(logger),
			WithMemoryCacheMetrics(metrics),
		), nil
	case "redis":
		if cfg.Redis == nil || cfg.Redis.Addr == "" {
			return nil, errors.New("redis cache requires an addr")
		}
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return NewRedisDecisionCache(client, ttl,
			WithRedisCacheLogger(logger),
			WithRedisCacheMetrics(metrics),
			WithRedisCachePrefix(cfg.Redis.KeyPrefix),
		), nil
	default:
		return nil, errors.New("unknown cache type: " + cfg.Type)
	}
}

// memoryDecisionCache implements DecisionCache in process memory.
type memoryDecisionCache struct {
	mu       sync.RWMutex
	entries  map[string]*CachedDecision
	ttl      time.Duration
	maxSize  int
	logger   observability.Logger
	metrics  *Metrics
	stopChan chan struct{}
}

// MemoryCacheOption is a functional option for the memory cache.
type MemoryCacheOption func(*memoryDecisionCache)

// WithMemoryCacheLogger sets the logger.
func WithMemoryCacheLogger(logger observability.Logger) MemoryCacheOption {
	return func(c *memoryDecisionCache) {
		c.logger = logger
	}
}

// WithMemoryCacheMetrics sets the metrics.
func WithMemoryCacheMetrics(metrics *Metrics) MemoryCacheOption {
	return func(c *memoryDecisionCache) {
		c.metrics = metrics
	}
}

// NewMemoryDecisionCache creates a new in-memory decision cache.
func NewMemoryDecisionCache(ttl time.Duration, maxSize int, opts ...MemoryCacheOption) DecisionCache {
	c := &memoryDecisionCache{
		entries:  make(map[string]*CachedDecision),
		ttl:      ttl,
		maxSize:  maxSize,
		logger:   observability.NopLogger(),
		stopChan: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(c)
	}

	go c.cleanupLoop()

	return c
}

// Get retrieves a cached decision.
func (c *memoryDecisionCache) Get(_ context.Context, key *CacheKey) (*CachedDecision, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	decision, ok := c.entries[key.String()]
	if !ok || decision.IsExpired() {
		c.metrics.RecordCacheMiss()
		return nil, false
	}

	c.metrics.RecordCacheHit()
	return decision, true
}

// Set stores a decision in the cache.
func (c *memoryDecisionCache) Set(_ context.Context, key *CacheKey, decision *CachedDecision) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxSize > 0 && len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	decision.CachedAt = time.Now()
	decision.ExpiresAt = time.Now().Add(c.ttl)
	c.entries[key.String()] = decision
}

// Clear clears all cached decisions.
func (c *memoryDecisionCache) Clear(_ context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*CachedDecision)
}

// Close closes the cache.
func (c *memoryDecisionCache) Close() error {
	close(c.stopChan)
	return nil
}

// evictOldest removes expired entries, then the oldest entry if the
// cache is still over capacity.
func (c *memoryDecisionCache) evictOldest() {
	for key, decision := range c.entries {
		if decision.IsExpired() {
			delete(c.entries, key)
		}
	}

	if len(c.entries) >= c.maxSize {
		var oldestKey string
		var oldestTime time.Time

		for key, decision := range c.entries {
			if oldestKey == "" || decision.CachedAt.Before(oldestTime) {
				oldestKey = key
				oldestTime = decision.CachedAt
			}
		}

		if oldestKey != "" {
			delete(c.entries, oldestKey)
		}
	}
}

// cleanupLoop periodically removes expired entries.
func (c *memoryDecisionCache) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			for key, decision := range c.entries {
				if decision.IsExpired() {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		case <-c.stopChan:
			return
		}
	}
}

// redisDecisionCache implements DecisionCache backed by redis, for
// deployments where several instances should share warm decisions.
type redisDecisionCache struct {
	client  *redis.Client
	ttl     time.Duration
	prefix  string
	logger  observability.Logger
	metrics *Metrics
}

// RedisCacheOption is a functional option for the redis cache.
type RedisCacheOption func(*redisDecisionCache)

// WithRedisCacheLogger sets the logger.
func WithRedisCacheLogger(logger observability.Logger) RedisCacheOption {
	return func(c *redisDecisionCache) {
		c.logger = logger
	}
}

// WithRedisCacheMetrics sets the metrics.
func WithRedisCacheMetrics(metrics *Metrics) RedisCacheOption {
	return func(c *redisDecisionCache) {
		c.metrics = metrics
	}
}

// WithRedisCachePrefix sets the key prefix.
func WithRedisCachePrefix(prefix string) RedisCacheOption {
	return func(c *redisDecisionCache) {
		if prefix != "" {
			c.prefix = prefix
		}
	}
}

// NewRedisDecisionCache creates a new redis-backed decision cache.
func NewRedisDecisionCache(client *redis.Client, ttl time.Duration, opts ...RedisCacheOption) DecisionCache {
	c := &redisDecisionCache{
		client: client,
		ttl:    ttl,
		prefix: "authz:",
		logger: observability.NopLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Get retrieves a cached decision.
func (c *redisDecisionCache) Get(ctx context.Context, key *CacheKey) (*CachedDecision, bool) {
	cacheKey := c.prefix + key.String()

	data, err := c.client.Get(ctx, cacheKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("failed to get cached decision",
				observability.String("key", cacheKey),
				observability.Error(err),
			)
		}
		c.metrics.RecordCacheMiss()
		return nil, false
	}

	var decision CachedDecision
	if err := json.Unmarshal(data, &decision); err != nil {
		c.logger.Warn("failed to unmarshal cached decision",
			observability.String("key", cacheKey),
			observability.Error(err),
		)
		c.metrics.RecordCacheMiss()
		return nil, false
	}

	if decision.IsExpired() {
		c.metrics.RecordCacheMiss()
		return nil, false
	}

	c.metrics.RecordCacheHit()
	return &decision, true
}

// Set stores a decision in the cache.
func (c *redisDecisionCache) Set(ctx context.Context, key *CacheKey, decision *CachedDecision) {
	cacheKey := c.prefix + key.String()

	decision.CachedAt = time.Now()
	decision.ExpiresAt = time.Now().Add(c.ttl)

	data, err := json.Marshal(decision)
	if err != nil {
		c.logger.Warn("failed to marshal decision",
			observability.String("key", cacheKey),
			observability.Error(err),
		)
		return
	}

	if err := c.client.Set(ctx, cacheKey, data, c.ttl).Err(); err != nil {
		c.logger.Warn("failed to set cached decision",
			observability.String("key", cacheKey),
			observability.Error(err),
		)
	}
}

// Clear is a no-op for the redis cache; entries expire via TTL.
func (c *redisDecisionCache) Clear(_ context.Context) {
	c.logger.Warn("clear operation not supported for redis cache")
}

// Close closes the redis client.
func (c *redisDecisionCache) Close() error {
	return c.client.Close()
}

// noopDecisionCache caches nothing.
type noopDecisionCache struct{}

// NewNoopDecisionCache creates a decision cache that caches nothing.
func NewNoopDecisionCache() DecisionCache {
	return &noopDecisionCache{}
}

// Get always misses.
func (c *noopDecisionCache) Get(_ context.Context, _ *CacheKey) (*CachedDecision, bool) {
	return nil, false
}

// Set does nothing.
func (c *noopDecisionCache) Set(_ context.Context, _ *CacheKey, _ *CachedDecision) {}

// Clear does nothing.
func (c *noopDecisionCache) Clear(_ context.Context) {}

// Close does nothing.
func (c *noopDecisionCache) Close() error {
	return nil
}

// Ensure implementations satisfy the interface.
var (
	_ DecisionCache = (*memoryDecisionCache)(nil)
	_ DecisionCache = (*redisDecisionCache)(nil)
	_ DecisionCache = (*noopDecisionCache)(nil)
)
