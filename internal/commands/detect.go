package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tallybook-dev/tallybook/internal/transfer"
)

func newDetectCommand(dir *string) *cobra.Command {
	var since string

	cmd := &cobra.Command{
		Use:   "detect-transfers",
		Short: "Pair opposite-signed transactions across accounts as internal transfers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*dir)
			if err != nil {
				return err
			}
			defer a.close()

			var opts transfer.Options
			if since != "" {
				if opts.Since, err = time.Parse("2006-01-02", since); err != nil {
					return fmt.Errorf("parsing --since %q: %w", since, err)
				}
			}

			pairs, err := transfer.Detect(a.st, opts)
			if err != nil {
				return err
			}
			ok.Printf("Matched %d internal transfer pairs\n", pairs)
			a.audit("detect_transfers", "", fmt.Sprintf("%d pairs", pairs), "")
			return nil
		},
	}

	cmd.Flags().StringVar(&since, "since", "", "only consider transactions dated on or after this date (YYYY-MM-DD); default is the full history")
	return cmd
}
