// Package commands wires the tallybook CLI.
package commands

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tallybook-dev/tallybook/internal/buildinfo"
)

var (
	ok   = color.New(color.FgGreen)
	warn = color.New(color.FgYellow, color.Bold)
	bad  = color.New(color.FgRed)
)

// NewRootCommand creates the root CLI command with all subcommands
// registered.
func NewRootCommand() *cobra.Command {
	var dir string

	rootCmd := &cobra.Command{
		Use:     "tallybook",
		Short:   "Personal transaction classification and reconciliation",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&dir, "dir", "C", ".", "book directory")

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newAccountCommand(&dir))
	rootCmd.AddCommand(newCategoryCommand(&dir))
	rootCmd.AddCommand(newImportCommand(&dir))
	rootCmd.AddCommand(newDetectCommand(&dir))
	rootCmd.AddCommand(newRulesCommand(&dir))
	rootCmd.AddCommand(newTxCommand(&dir))
	rootCmd.AddCommand(newExportCommand(&dir))

	return rootCmd
}
