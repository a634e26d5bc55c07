package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Groups.File = "groups.yaml"
	cfg.Accounts.File = "accounts.yaml"
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 15*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	require.NotNil(t, cfg.Authz)
	assert.True(t, cfg.Authz.Enabled)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(*Config) {},
		},
		{
			name:    "missing server address",
			mutate:  func(c *Config) { c.Server.Address = "" },
			wantErr: "server address",
		},
		{
			name:    "missing groups file",
			mutate:  func(c *Config) { c.Groups.File = "" },
			wantErr: "groups file",
		},
		{
			name:    "missing accounts file",
			mutate:  func(c *Config) { c.Accounts.File = "" },
			wantErr: "accounts file",
		},
		{
			name: "invalid authz cache",
			mutate: func(c *Config) {
				c.Authz.Cache.Enabled = true
				c.Authz.Cache.Type = "memcached"
			},
			wantErr: "authz",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}

	t.Run("nil config", func(t *testing.T) {
		t.Parallel()
		var cfg *Config
		assert.Error(t, cfg.Validate())
	})
}
