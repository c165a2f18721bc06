package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/solatis/gatekeeper/internal/ruleset"
)

var inspectEnvelope bool

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Decode a serialized rule set and print its tree",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().BoolVar(&inspectEnvelope, "envelope", false, "treat the file as a V1 submission envelope")
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read rule set: %w", err)
	}
	if len(data) > cfg.MaxRuleSetSize {
		return fmt.Errorf("rule set is %d bytes, limit %d", len(data), cfg.MaxRuleSetSize)
	}

	if inspectEnvelope {
		version, inner, err := ruleset.Unwrap(data)
		if err != nil {
			return fmt.Errorf("failed to unwrap envelope: %w", err)
		}
		fmt.Printf("envelope version %d, %d rule-set bytes\n", version, len(inner))
		data = inner
	}

	rule, err := ruleset.DeserializeDepth(data, cfg.MaxRuleDepth)
	if err != nil {
		return fmt.Errorf("failed to decode rule set: %w", err)
	}

	fmt.Print(ruleset.Format(rule))
	return nil
}
