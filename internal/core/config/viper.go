package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/solatis/gatekeeper/internal/types"
)

// LoadConfig loads configuration from file using viper.
// CLI flags > environment > config file > defaults precedence.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults matching DefaultConfig
	v.SetDefault("database_url", "sqlite://gatekeeper.db")
	v.SetDefault("max_rule_depth", types.MaxRuleDepth)
	v.SetDefault("max_rule_set_size", types.MaxRuleSetSize)

	// Bind environment variables with GK_ prefix
	v.SetEnvPrefix("GK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Load config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		DatabaseURL:    v.GetString("database_url"),
		MaxRuleDepth:   v.GetInt("max_rule_depth"),
		MaxRuleSetSize: v.GetInt("max_rule_set_size"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
