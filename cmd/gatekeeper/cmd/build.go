package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/solatis/gatekeeper/internal/ruleset"
)

var (
	buildOutput   string
	buildEnvelope bool
)

var buildCmd = &cobra.Command{
	Use:   "build <definition.json>",
	Short: "Compile a JSON rule definition into canonical rule-set bytes",
	Args:  cobra.ExactArgs(1),
	RunE:  runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.Flags().StringVarP(&buildOutput, "output", "o", "", "output file (default <name>.ruleset)")
	buildCmd.Flags().BoolVar(&buildEnvelope, "envelope", false, "wrap the rule set in a V1 submission envelope")
}

func runBuild(cmd *cobra.Command, args []string) error {
	doc, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read definition: %w", err)
	}

	name, rule, err := ruleset.ParseDefinition(doc)
	if err != nil {
		return fmt.Errorf("failed to compile definition: %w", err)
	}

	data, err := ruleset.Serialize(rule)
	if err != nil {
		return fmt.Errorf("failed to serialize rule set: %w", err)
	}
	if buildEnvelope {
		data = ruleset.WrapV1(data)
	}

	out := buildOutput
	if out == "" {
		out = name + ".ruleset"
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}

	fmt.Printf("wrote %s (%d bytes, rule set %q)\n", out, len(data), name)
	return nil
}
