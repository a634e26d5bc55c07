// Package config provides YAML configuration loading with environment
// variable substitution and validation.
package config
