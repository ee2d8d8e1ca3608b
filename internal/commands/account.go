package commands

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/tallybook-dev/tallybook/internal/accounts"
)

func newAccountCommand(dir *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage bank accounts",
	}
	cmd.AddCommand(newAccountAddCommand(dir))
	cmd.AddCommand(newAccountListCommand(dir))
	cmd.AddCommand(newAccountRecalcCommand(dir))
	cmd.AddCommand(newAccountValidateCommand(dir))
	return cmd
}

func newAccountAddCommand(dir *string) *cobra.Command {
	var params accounts.CreateParams

	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Add a bank account under the Accounts group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*dir)
			if err != nil {
				return err
			}
			defer a.close()

			params.Name = args[0]
			accountID, err := a.accounts.Create(params)
			if err != nil {
				return err
			}
			ok.Printf("Created account %s (%s)\n", params.Name, accountID)
			return nil
		},
	}

	cmd.Flags().StringVar(&params.BSB, "bsb", "", "BSB number")
	cmd.Flags().StringVar(&params.AccountNumber, "number", "", "account number")
	cmd.Flags().StringVar(&params.BankName, "bank", "", "bank name")
	cmd.Flags().StringVar(&params.Notes, "notes", "", "free-form notes")
	return cmd
}

func newAccountListCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List bank accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*dir)
			if err != nil {
				return err
			}
			defer a.close()

			all, err := a.accounts.All()
			if err != nil {
				return err
			}
			for _, acct := range all {
				last := "never"
				if acct.LastImportAt != nil {
					last = acct.LastImportAt.Format("2006-01-02")
				}
				fmt.Printf("%-8s %-24s %10s  last import %s\n",
					acct.ID, acct.Name, acct.CurrentBalance.StringFixed(2), last)
			}
			return nil
		},
	}
}

func newAccountRecalcCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "recalc ACCOUNT_ID",
		Short: "Recompute an account balance from transaction history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*dir)
			if err != nil {
				return err
			}
			defer a.close()

			balance, err := a.accounts.RecalculateBalance(args[0])
			if err != nil {
				return err
			}
			ok.Printf("Account %s balance: %s\n", args[0], balance.StringFixed(2))
			return nil
		},
	}
}

func newAccountValidateCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate ACCOUNT_ID STATEMENT_BALANCE",
		Short: "Compare the cached balance against a statement balance",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*dir)
			if err != nil {
				return err
			}
			defer a.close()

			expected, err := decimal.NewFromString(args[1])
			if err != nil {
				return fmt.Errorf("parsing balance %q: %w", args[1], err)
			}
			reconciled, diff, err := a.accounts.ValidateBalance(args[0], expected)
			if err != nil {
				return err
			}
			if reconciled {
				ok.Printf("Account %s reconciles with the statement\n", args[0])
				return nil
			}
			bad.Printf("Account %s is off by %s\n", args[0], diff.StringFixed(2))
			return nil
		},
	}
}
