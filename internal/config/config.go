package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/cordonio/cordon/internal/authz"
	"github.com/cordonio/cordon/internal/observability"
)

// Config is the top-level service configuration.
type Config struct {
	// Server configures the HTTP listener.
	Server ServerConfig `yaml:"server" json:"server"`

	// Logging configures structured logging.
	Logging observability.LogConfig `yaml:"logging" json:"logging"`

	// Tracing configures distributed tracing.
	Tracing observability.TracingConfig `yaml:"tracing" json:"tracing"`

	// Authz configures the authorization engine.
	Authz *authz.Config `yaml:"authz" json:"authz"`

	// Groups configures the introducer group directory.
	Groups GroupsConfig `yaml:"groups" json:"groups"`

	// Accounts configures the account store.
	Accounts AccountsConfig `yaml:"accounts" json:"accounts"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	// Address is the listen address.
	Address string `yaml:"address" json:"address"`

	// ReadTimeout is the request read timeout.
	ReadTimeout time.Duration `yaml:"readTimeout,omitempty" json:"readTimeout,omitempty"`

	// WriteTimeout is the response write timeout.
	WriteTimeout time.Duration `yaml:"writeTimeout,omitempty" json:"writeTimeout,omitempty"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout,omitempty" json:"shutdownTimeout,omitempty"`
}

// GroupsConfig configures the group directory.
type GroupsConfig struct {
	// File is the path to the groups YAML file.
	File string `yaml:"file" json:"file"`

	// Watch enables hot reload of the groups file.
	Watch bool `yaml:"watch,omitempty" json:"watch,omitempty"`
}

// AccountsConfig configures the account store.
type AccountsConfig struct {
	// File is the path to the accounts seed YAML file.
	File string `yaml:"file" json:"file"`
}

// DefaultConfig returns a configuration with sane defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address:         ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Logging: observability.LogConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Authz: authz.DefaultConfig(),
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Server.Address == "" {
		return errors.New("server address is required")
	}
	if c.Groups.File == "" {
		return errors.New("groups file is required")
	}
	if c.Accounts.File == "" {
		return errors.New("accounts file is required")
	}
	if c.Authz != nil {
		if err := c.Authz.Validate(); err != nil {
			return fmt.Errorf("authz: %w", err)
		}
	}
	return nil
}
