package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tallybook-dev/tallybook/internal/id"
	"github.com/tallybook-dev/tallybook/internal/model"
)

func newCategoryCommand(dir *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "category",
		Aliases: []string{"cat"},
		Short:   "Manage the category hierarchy",
	}
	cmd.AddCommand(newCategoryListCommand(dir))
	cmd.AddCommand(newCategoryAddCommand(dir))
	cmd.AddCommand(newCategoryMoveCommand(dir))
	cmd.AddCommand(newCategoryPromoteCommand(dir))
	cmd.AddCommand(newCategoryDemoteCommand(dir))
	cmd.AddCommand(newCategorySwapCommand(dir))
	cmd.AddCommand(newCategoryDeleteCommand(dir))
	return cmd
}

func newCategoryListCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the category tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*dir)
			if err != nil {
				return err
			}
			defer a.close()

			all, err := a.categories.All()
			if err != nil {
				return err
			}
			for _, c := range all {
				indent := strings.Repeat("  ", id.Depth(c.ID)-1)
				marker := ""
				if c.IsAccount {
					marker = " [account]"
				}
				fmt.Printf("%s%s %s%s\n", indent, c.ID, c.Name, marker)
			}
			return nil
		},
	}
}

func newCategoryAddCommand(dir *string) *cobra.Command {
	var kind, taxLabel string

	cmd := &cobra.Command{
		Use:   "add PARENT_ID NAME",
		Short: "Add a category under a parent",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*dir)
			if err != nil {
				return err
			}
			defer a.close()

			newID, err := a.categories.Insert(args[1], args[0],
				model.CategoryKind(kind), model.TaxLabel(taxLabel), false)
			if err != nil {
				return err
			}
			ok.Printf("Created category %s (%s)\n", args[1], newID)
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", string(model.KindLeaf), "category kind: group or leaf")
	cmd.Flags().StringVar(&taxLabel, "tax", "", "tax label: GST, FRE or NT")
	return cmd
}

func newCategoryMoveCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "move CATEGORY_ID NEW_PARENT_ID",
		Short: "Move a category and its subtree under another parent",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*dir)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.categories.Move(args[0], args[1]); err != nil {
				return err
			}
			ok.Printf("Moved %s under %s\n", args[0], args[1])
			return nil
		},
	}
}

func newCategoryPromoteCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "promote CATEGORY_ID",
		Short: "Move a category out one level, under its grandparent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*dir)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.categories.Promote(args[0]); err != nil {
				return err
			}
			ok.Printf("Promoted %s\n", args[0])
			return nil
		},
	}
}

func newCategoryDemoteCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "demote CATEGORY_ID NEW_PARENT_ID",
		Short: "Move a category in one level, under a sibling-side parent",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*dir)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.categories.Demote(args[0], args[1]); err != nil {
				return err
			}
			ok.Printf("Demoted %s under %s\n", args[0], args[1])
			return nil
		},
	}
}

func newCategorySwapCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "swap CATEGORY_A CATEGORY_B",
		Short: "Exchange the positions of two sibling categories",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*dir)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.categories.Swap(args[0], args[1]); err != nil {
				return err
			}
			ok.Printf("Swapped %s and %s\n", args[0], args[1])
			return nil
		},
	}
}

func newCategoryDeleteCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete CATEGORY_ID",
		Short: "Delete a category and its descendants",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*dir)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.categories.Delete(args[0]); err != nil {
				return err
			}
			ok.Printf("Deleted %s\n", args[0])
			return nil
		},
	}
}
