package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tallybook-dev/tallybook/internal/category"
	"github.com/tallybook-dev/tallybook/internal/config"
	"github.com/tallybook-dev/tallybook/internal/store"
)

func newInitCommand() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new tallybook book",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			return runInit(absDir, dbPath)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "tallybook.db", "database file, relative to the book directory")
	return cmd
}

func runInit(dir, dbPath string) error {
	for _, d := range []string{"logs", "exports"} {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	cfgPath := filepath.Join(dir, configFile)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists in %s", configFile, dir)
	}
	cfg := config.Default(dbPath)
	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	// Creating the schema and default categories up front makes the
	// first import a one-step affair.
	st, err := store.Open(filepath.Join(dir, dbPath))
	if err != nil {
		return err
	}
	defer st.Close()
	if _, err := category.NewService(st); err != nil {
		return err
	}

	ok.Printf("Initialized tallybook book at %s\n", dir)
	return nil
}
