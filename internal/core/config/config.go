// Package config provides configuration management for Gatekeeper tooling.
package config

import (
	"fmt"
	"net/url"

	"github.com/solatis/gatekeeper/internal/types"
)

// Config holds configuration for the gatekeeper CLI.
type Config struct {
	// DatabaseURL selects the registry backend (sqlite:// or postgres://).
	DatabaseURL string

	// MaxRuleDepth bounds composite nesting accepted by decode operations.
	MaxRuleDepth int

	// MaxRuleSetSize caps serialized rule-set blobs accepted by tooling.
	MaxRuleSetSize int
}

// DefaultConfig returns configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		DatabaseURL:    "sqlite://gatekeeper.db",
		MaxRuleDepth:   types.MaxRuleDepth,
		MaxRuleSetSize: types.MaxRuleSetSize,
	}
}

// Validate checks config invariants shared by all load paths.
func (cfg *Config) Validate() error {
	u, err := url.Parse(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("invalid database URL: %w", err)
	}
	if u.Scheme != "sqlite" && u.Scheme != "postgres" {
		return fmt.Errorf("unsupported database scheme: %s (expected sqlite or postgres)", u.Scheme)
	}
	if cfg.MaxRuleDepth <= 0 {
		return fmt.Errorf("max_rule_depth must be positive, got %d", cfg.MaxRuleDepth)
	}
	if cfg.MaxRuleSetSize <= 0 {
		return fmt.Errorf("max_rule_set_size must be positive, got %d", cfg.MaxRuleSetSize)
	}
	return nil
}
