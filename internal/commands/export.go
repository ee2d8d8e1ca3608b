package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/tallybook-dev/tallybook/internal/export"
	"github.com/tallybook-dev/tallybook/internal/ledger"
)

func newExportCommand(dir *string) *cobra.Command {
	var opts ledger.ListOptions
	var filter string
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export transactions to CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*dir)
			if err != nil {
				return err
			}
			defer a.close()

			opts.Filter = ledger.Filter(filter)
			txns, err := a.ledger.List(opts)
			if err != nil {
				return err
			}

			if out == "" {
				out = filepath.Join(a.dataDir, "exports", export.FileName(time.Now()))
			}
			if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
				return fmt.Errorf("creating export dir: %w", err)
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("creating %s: %w", out, err)
			}
			defer f.Close()

			if err := export.WriteTransactions(f, txns); err != nil {
				return err
			}
			ok.Printf("Exported %d transactions to %s\n", len(txns), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&filter, "filter", string(ledger.FilterAll),
		"all, uncategorised, categorised, internal_transfers or hidden")
	cmd.Flags().StringVar(&opts.AccountID, "account", "", "restrict to one account")
	cmd.Flags().StringVar(&out, "out", "", "output file (default exports/transactions-<timestamp>.csv)")
	return cmd
}
