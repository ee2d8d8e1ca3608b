package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/tallybook-dev/tallybook/internal/model"
)

func newRulesCommand(dir *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage and apply classification rules",
	}
	cmd.AddCommand(newRulesListCommand(dir))
	cmd.AddCommand(newRulesAddCommand(dir))
	cmd.AddCommand(newRulesDeleteCommand(dir))
	cmd.AddCommand(newRulesApplyCommand(dir))
	return cmd
}

func newRulesListCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List rules in evaluation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*dir)
			if err != nil {
				return err
			}
			defer a.close()

			all, err := a.rules.List()
			if err != nil {
				return err
			}
			for _, r := range all {
				target := "-> " + r.Target.CategoryID
				if r.Target.Transfer {
					target = "-> internal transfer"
				}
				var conds []string
				for i, c := range r.Conditions {
					text := strconv.Quote(c.Text)
					if i > 0 {
						text = string(c.Combinator) + " " + text
					}
					conds = append(conds, text)
				}
				flag := ""
				if !r.ApplyToFuture {
					flag = " [paused]"
				}
				fmt.Printf("%4d  %-50s %s%s\n", r.ID, strings.Join(conds, " "), target, flag)
			}
			return nil
		},
	}
}

func newRulesAddCommand(dir *string) *cobra.Command {
	var (
		category    string
		transfer    bool
		contains    []string
		anyOf       []string
		caseExact   bool
		accountID   string
		amountOp    string
		amountValue string
		amountHigh  string
		dateWindow  string
		paused      bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a classification rule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*dir)
			if err != nil {
				return err
			}
			defer a.close()

			r := model.Rule{
				AccountID:     accountID,
				AmountOp:      model.AmountOperator(amountOp),
				DateWindow:    model.DateWindow(dateWindow),
				ApplyToFuture: !paused,
			}
			if transfer {
				r.Target = model.TransferTarget()
			} else {
				r.Target = model.CategoryTarget(category)
			}
			for _, text := range contains {
				r.Conditions = append(r.Conditions, model.RuleCondition{
					Combinator: model.CombinatorAnd, Text: text, CaseSensitive: caseExact,
				})
			}
			for _, text := range anyOf {
				r.Conditions = append(r.Conditions, model.RuleCondition{
					Combinator: model.CombinatorOr, Text: text, CaseSensitive: caseExact,
				})
			}
			if amountValue != "" {
				if r.AmountValue, err = decimal.NewFromString(amountValue); err != nil {
					return fmt.Errorf("parsing --amount %q: %w", amountValue, err)
				}
			}
			if amountHigh != "" {
				if r.AmountValue2, err = decimal.NewFromString(amountHigh); err != nil {
					return fmt.Errorf("parsing --amount-high %q: %w", amountHigh, err)
				}
			}

			ruleID, err := a.rules.Create(r)
			if err != nil {
				return err
			}
			ok.Printf("Created rule %d\n", ruleID)
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "target leaf category id")
	cmd.Flags().BoolVar(&transfer, "transfer", false, "mark matches as internal transfers instead of categorising")
	cmd.MarkFlagsMutuallyExclusive("category", "transfer")
	cmd.MarkFlagsOneRequired("category", "transfer")
	cmd.Flags().StringArrayVar(&contains, "contains", nil, "description must contain this text (repeatable, ANDed)")
	cmd.Flags().StringArrayVar(&anyOf, "or-contains", nil, "description may contain this text instead (repeatable, ORed)")
	cmd.Flags().BoolVar(&caseExact, "case-sensitive", false, "match description text case-sensitively")
	cmd.Flags().StringVar(&accountID, "account", "", "only match transactions in this account")
	cmd.Flags().StringVar(&amountOp, "amount-op", string(model.AmountAny), `amount predicate: "Any", "Equal to", "Greater than", "Less than", "Between"`)
	cmd.Flags().StringVar(&amountValue, "amount", "", "amount predicate value")
	cmd.Flags().StringVar(&amountHigh, "amount-high", "", "upper bound for Between")
	cmd.Flags().StringVar(&dateWindow, "date-window", string(model.DateAny), `date window: "Any", "Last 30 days", "Last 90 days", "This year"`)
	cmd.Flags().BoolVar(&paused, "paused", false, "create the rule without applying it to future imports")
	return cmd
}

func newRulesDeleteCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete RULE_ID",
		Short: "Delete a rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*dir)
			if err != nil {
				return err
			}
			defer a.close()

			ruleID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("parsing rule id %q: %w", args[0], err)
			}
			if err := a.rules.Delete(ruleID); err != nil {
				return err
			}
			ok.Printf("Deleted rule %d\n", ruleID)
			return nil
		},
	}
}

func newRulesApplyCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Apply rules to uncategorised transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*dir)
			if err != nil {
				return err
			}
			defer a.close()

			result, err := a.rules.Apply(time.Now())
			if err != nil {
				return err
			}
			ok.Printf("Categorised %d, marked %d transfers", result.Categorised, result.Transfers)
			if result.Skipped > 0 {
				warn.Printf(", skipped %d on rule errors", result.Skipped)
			}
			fmt.Println()
			a.audit("apply_rules", "",
				fmt.Sprintf("%d categorised, %d transfers, %d skipped",
					result.Categorised, result.Transfers, result.Skipped), "")
			return nil
		},
	}
}
