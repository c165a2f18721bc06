package cmd

import (
	"github.com/spf13/cobra"

	"github.com/solatis/gatekeeper/internal/core/config"
)

const Version = "0.1.0"

var (
	configFile string
	dbURL      string
)

var rootCmd = &cobra.Command{
	Use:   "gatekeeper",
	Short: "Gatekeeper authorization rule-set tooling",
	Long:  `Gatekeeper builds, inspects, and keeps a local registry of serialized authorization rule sets.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&dbURL, "db-url", "", "registry database URL (sqlite://path or postgres://...)")
}

func Execute() error {
	return rootCmd.Execute()
}

// loadConfig applies flag overrides on top of file/env/default config.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, err
	}
	if dbURL != "" {
		cfg.DatabaseURL = dbURL
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
