package authz

import (
	"errors"
	"fmt"
	"time"
)

// Default role labels and recognized request shapes.
var (
	defaultElevatedRoles  = []string{"agent"}
	defaultDelegatedRoles = []string{"introducer"}
	defaultActions        = []string{"view"}
	defaultResourceKinds  = []string{"account"}
)

// Config represents the authorization engine configuration.
type Config struct {
	// Enabled enables authorization. When disabled every request is
	// allowed; intended for local development only.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// ElevatedRoles are role labels granting access to any resource
	// within a matched tenant.
	ElevatedRoles []string `yaml:"elevatedRoles,omitempty" json:"elevatedRoles,omitempty"`

	// DelegatedRoles are role labels eligible for group-delegated
	// access.
	DelegatedRoles []string `yaml:"delegatedRoles,omitempty" json:"delegatedRoles,omitempty"`

	// Actions are the actions the evaluator recognizes. Anything else
	// denies.
	Actions []string `yaml:"actions,omitempty" json:"actions,omitempty"`

	// ResourceKinds are the resource kinds the evaluator recognizes.
	// Anything else denies.
	ResourceKinds []string `yaml:"resourceKinds,omitempty" json:"resourceKinds,omitempty"`

	// Cache configures decision caching.
	Cache *CacheConfig `yaml:"cache,omitempty" json:"cache,omitempty"`
}

// CacheConfig configures authorization decision caching.
type CacheConfig struct {
	// Enabled enables caching.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Type is the cache type (memory, redis).
	Type string `yaml:"type,omitempty" json:"type,omitempty"`

	// TTL is the cache TTL.
	TTL time.Duration `yaml:"ttl,omitempty" json:"ttl,omitempty"`

	// MaxSize is the maximum number of entries (memory cache only).
	MaxSize int `yaml:"maxSize,omitempty" json:"maxSize,omitempty"`

	// Redis configures the redis cache backend.
	Redis *RedisCacheConfig `yaml:"redis,omitempty" json:"redis,omitempty"`
}

// RedisCacheConfig configures the redis decision cache backend.
type RedisCacheConfig struct {
	// Addr is the redis server address.
	Addr string `yaml:"addr" json:"addr"`

	// Password is the redis password.
	Password string `yaml:"password,omitempty" json:"password,omitempty"`

	// DB is the redis database number.
	DB int `yaml:"db,omitempty" json:"db,omitempty"`

	// KeyPrefix is prepended to every cache key.
	KeyPrefix string `yaml:"keyPrefix,omitempty" json:"keyPrefix,omitempty"`
}

// DefaultConfig returns a default authorization configuration.
func DefaultConfig() *Config {
	return &Config{
		Enabled: true,
		Cache: &CacheConfig{
			Enabled: false,
			Type:    "memory",
			TTL:     time.Minute,
			MaxSize: 10000,
		},
	}
}

// Validate validates the authorization configuration.
func (c *Config) Validate() error {
	if c == nil {
		return ErrNilConfig
	}
	if c.Cache != nil && c.Cache.Enabled {
		if err := c.Cache.validate(); err != nil {
			return fmt.Errorf("cache config: %w", err)
		}
	}
	return nil
}

// validate validates cache configuration.
func (c *CacheConfig) validate() error {
	if c.TTL < 0 {
		return errors.New("ttl must be non-negative")
	}
	if c.MaxSize < 0 {
		return errors.New("maxSize must be non-negative")
	}
	switch c.Type {
	case "", "memory":
	case "redis":
		if c.Redis == nil || c.Redis.Addr == "" {
			return errors.New("redis cache requires an addr")
		}
	default:
		return fmt.Errorf("invalid cache type: %s", c.Type)
	}
	return nil
}

// GetElevatedRoles returns the configured elevated roles or the default.
func (c *Config) GetElevatedRoles() []string {
	if c != nil && len(c.ElevatedRoles) > 0 {
		return c.ElevatedRoles
	}
	return defaultElevatedRoles
}

// GetDelegatedRoles returns the configured delegated roles or the default.
func (c *Config) GetDelegatedRoles() []string {
	if c != nil && len(c.DelegatedRoles) > 0 {
		return c.DelegatedRoles
	}
	return defaultDelegatedRoles
}

// GetActions returns the recognized actions or the default.
func (c *Config) GetActions() []string {
	if c != nil && len(c.Actions) > 0 {
		return c.Actions
	}
	return defaultActions
}

// GetResourceKinds returns the recognized resource kinds or the default.
func (c *Config) GetResourceKinds() []string {
	if c != nil && len(c.ResourceKinds) > 0 {
		return c.ResourceKinds
	}
	return defaultResourceKinds
}
