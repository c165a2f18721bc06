package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/solatis/gatekeeper/internal/registry"
	"github.com/solatis/gatekeeper/internal/ruleset"
	"github.com/solatis/gatekeeper/internal/types"
)

var showRevision string

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Manage the local rule-set registry",
}

var registrySaveCmd = &cobra.Command{
	Use:   "save <name> <file>",
	Short: "Store a serialized rule set as a new revision",
	Args:  cobra.ExactArgs(2),
	RunE:  runRegistrySave,
}

var registryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List rule sets in the registry",
	Args:  cobra.NoArgs,
	RunE:  runRegistryList,
}

var registryShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Decode and print a stored rule set",
	Args:  cobra.ExactArgs(1),
	RunE:  runRegistryShow,
}

var registryRevisionsCmd = &cobra.Command{
	Use:   "revisions <name>",
	Short: "List revisions of a rule set, newest first",
	Args:  cobra.ExactArgs(1),
	RunE:  runRegistryRevisions,
}

func init() {
	rootCmd.AddCommand(registryCmd)
	registryCmd.AddCommand(registrySaveCmd)
	registryCmd.AddCommand(registryListCmd)
	registryCmd.AddCommand(registryShowCmd)
	registryCmd.AddCommand(registryRevisionsCmd)
	registryShowCmd.Flags().StringVar(&showRevision, "revision", "", "show a specific revision instead of the latest")
}

// openRegistry loads config and connects to the registry database.
func openRegistry() (*registry.Registry, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	reg, err := registry.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open registry: %w", err)
	}
	return reg, nil
}

func runRegistrySave(cmd *cobra.Command, args []string) error {
	name, file := args[0], args[1]

	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read rule set: %w", err)
	}

	reg, err := openRegistry()
	if err != nil {
		return err
	}
	defer reg.Close()

	id, err := reg.Save(context.Background(), name, data)
	if err != nil {
		return fmt.Errorf("failed to save rule set: %w", err)
	}

	fmt.Printf("saved %q revision %s (%d bytes)\n", name, id, len(data))
	return nil
}

func runRegistryList(cmd *cobra.Command, args []string) error {
	reg, err := openRegistry()
	if err != nil {
		return err
	}
	defer reg.Close()

	infos, err := reg.List(context.Background())
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Println("registry is empty")
		return nil
	}

	for _, info := range infos {
		fmt.Printf("%-32s %3d revisions  latest %s\n", info.Name, info.Revisions, info.LatestRevision)
	}
	return nil
}

func runRegistryShow(cmd *cobra.Command, args []string) error {
	reg, err := openRegistry()
	if err != nil {
		return err
	}
	defer reg.Close()

	ctx := context.Background()

	var rev *registry.Revision
	if showRevision != "" {
		id, err := types.ParseRevisionID(showRevision)
		if err != nil {
			return fmt.Errorf("invalid revision ID: %w", err)
		}
		rev, err = reg.Get(ctx, id)
		if err != nil {
			return err
		}
	} else {
		rev, err = reg.Latest(ctx, args[0])
		if err != nil {
			return err
		}
	}

	rule, err := ruleset.Deserialize(rev.Data)
	if err != nil {
		return fmt.Errorf("failed to decode stored rule set: %w", err)
	}

	fmt.Printf("%s revision %s (%d bytes, saved %s)\n",
		rev.Name, rev.RevisionID, len(rev.Data), rev.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Print(ruleset.Format(rule))
	return nil
}

func runRegistryRevisions(cmd *cobra.Command, args []string) error {
	reg, err := openRegistry()
	if err != nil {
		return err
	}
	defer reg.Close()

	revisions, err := reg.Revisions(context.Background(), args[0])
	if err != nil {
		return err
	}

	for _, rev := range revisions {
		fmt.Printf("%s  %s  %s\n", rev.RevisionID, rev.CreatedAt.Format("2006-01-02 15:04:05"), rev.Checksum[:12])
	}
	return nil
}
