package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tallybook-dev/tallybook/internal/ledger"
	"github.com/tallybook-dev/tallybook/internal/model"
)

func newTxCommand(dir *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "List and reclassify transactions",
	}
	cmd.AddCommand(newTxListCommand(dir))
	cmd.AddCommand(newTxCategoriseCommand(dir))
	cmd.AddCommand(newTxTransferCommand(dir))
	cmd.AddCommand(newTxHideCommand(dir))
	cmd.AddCommand(newTxDeleteCommand(dir))
	return cmd
}

func parseTxID(arg string) (int64, error) {
	txID, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing transaction id %q: %w", arg, err)
	}
	return txID, nil
}

func newTxListCommand(dir *string) *cobra.Command {
	var opts ledger.ListOptions
	var filter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, newest first",
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
			for _, t := range txns {
				state := ""
				switch t.Classification() {
				case model.Categorised:
					state = t.CategoryID
				case model.InternalTransfer:
					state = "transfer"
				case model.Hidden:
					state = "hidden"
				}
				fmt.Printf("%6d  %s  %-44s %10s  %s\n",
					t.ID, t.Date.Format("2006-01-02"), t.Description,
					t.Net().StringFixed(2), state)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&filter, "filter", string(ledger.FilterAll),
		"all, uncategorised, categorised, internal_transfers or hidden")
	cmd.Flags().StringVar(&opts.AccountID, "account", "", "restrict to one account")
	cmd.Flags().StringVar(&opts.Search, "search", "", "description substring")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum rows (0 = all)")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "rows to skip")
	return cmd
}

func newTxCategoriseCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "categorise TX_ID [CATEGORY_ID]",
		Short: "Assign a leaf category; omit the category to uncategorise",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*dir)
			if err != nil {
				return err
			}
			defer a.close()

			txID, err := parseTxID(args[0])
			if err != nil {
				return err
			}
			categoryID := ""
			if len(args) > 1 {
				categoryID = args[1]
			}
			if err := a.ledger.SetCategory(txID, categoryID); err != nil {
				return err
			}
			if categoryID == "" {
				ok.Printf("Uncategorised transaction %d\n", txID)
			} else {
				ok.Printf("Categorised transaction %d as %s\n", txID, categoryID)
			}
			return nil
		},
	}
}

func newTxTransferCommand(dir *string) *cobra.Command {
	var unset bool

	cmd := &cobra.Command{
		Use:   "transfer TX_ID",
		Short: "Mark a transaction as one side of an internal transfer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*dir)
			if err != nil {
				return err
			}
			defer a.close()

			txID, err := parseTxID(args[0])
			if err != nil {
				return err
			}
			if err := a.ledger.SetInternalTransfer(txID, !unset); err != nil {
				return err
			}
			if unset {
				ok.Printf("Cleared transfer marking on transaction %d\n", txID)
			} else {
				ok.Printf("Marked transaction %d as internal transfer\n", txID)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&unset, "unset", false, "clear the transfer marking instead")
	return cmd
}

func newTxHideCommand(dir *string) *cobra.Command {
	var unhide bool

	cmd := &cobra.Command{
		Use:   "hide TX_ID",
		Short: "Hide a transaction from listings and balances",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*dir)
			if err != nil {
				return err
			}
			defer a.close()

			txID, err := parseTxID(args[0])
			if err != nil {
				return err
			}
			if err := a.ledger.SetHidden(txID, !unhide); err != nil {
				return err
			}
			if unhide {
				ok.Printf("Unhid transaction %d\n", txID)
			} else {
				ok.Printf("Hid transaction %d\n", txID)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&unhide, "unhide", false, "unhide instead")
	return cmd
}

func newTxDeleteCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete TX_ID",
		Short: "Delete a transaction permanently",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*dir)
			if err != nil {
				return err
			}
			defer a.close()

			txID, err := parseTxID(args[0])
			if err != nil {
				return err
			}
			if err := a.ledger.Delete(txID); err != nil {
				return err
			}
			ok.Printf("Deleted transaction %d\n", txID)
			return nil
		},
	}
}
