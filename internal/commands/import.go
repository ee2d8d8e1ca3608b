package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tallybook-dev/tallybook/internal/dedup"
	"github.com/tallybook-dev/tallybook/internal/importer"
	"github.com/tallybook-dev/tallybook/internal/model"
)

func newImportCommand(dir *string) *cobra.Command {
	var accountID string
	var format string
	var preview bool

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import a bank export file into an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*dir)
			if err != nil {
				return err
			}
			defer a.close()

			registry := importer.DefaultRegistry()
			var parser importer.Parser
			if format != "" {
				if parser = registry.Get(format); parser == nil {
					return fmt.Errorf("unknown format %q", format)
				}
			} else if parser, err = registry.ForFile(args[0]); err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[0], err)
			}
			defer f.Close()

			records, err := parser.Parse(f)
			if err != nil {
				return fmt.Errorf("parsing %s: %w", args[0], err)
			}

			if preview {
				return runPreview(a, records)
			}

			result, err := a.pipeline.Import(records, accountID)
			if err != nil {
				return err
			}

			ok.Printf("Imported %d transactions into %s", result.Imported, accountID)
			if result.Duplicates > 0 {
				fmt.Printf(", skipped %d duplicates", result.Duplicates)
			}
			fmt.Println()
			if result.TransferPairs > 0 {
				fmt.Printf("Matched %d internal transfer pairs\n", result.TransferPairs)
			}
			if n := result.Rules.Matched(); n > 0 {
				fmt.Printf("Rules classified %d transactions\n", n)
			}
			for _, w := range result.Warnings {
				warn.Println(w)
			}

			a.audit("import", accountID,
				fmt.Sprintf("%s: %d imported, %d duplicates", args[0], result.Imported, result.Duplicates),
				result.BatchID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&accountID, "account", "a", "", "target account id (required)")
	_ = cmd.MarkFlagRequired("account")
	cmd.Flags().StringVar(&format, "format", "", "override format detection (qif, csv)")
	cmd.Flags().BoolVar(&preview, "preview", false, "report duplicates without importing")
	return cmd
}

// runPreview reports which records would be skipped as duplicates.
func runPreview(a *app, records []model.SourceRecord) error {
	matches, err := dedup.FindDatabaseDuplicates(a.st.DB(), records, a.pipeline.WindowDays)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		ok.Printf("No duplicates among %d records\n", len(records))
		return nil
	}
	warn.Printf("%d of %d records collide with stored transactions:\n", len(matches), len(records))
	for _, m := range matches {
		fmt.Printf("  %s  %-40s matches %d stored (%s)\n",
			m.Record.Date.Format("2006-01-02"), m.Record.Description(), m.Count, m.GroupID)
	}
	return nil
}
