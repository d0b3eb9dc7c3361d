package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/cadence/internal/wire"
)

// DropsCmd returns the drops command
func DropsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "drops [agent-id]",
		Short: "Show an agent's drop history",
		Long: `Show an agent's recorded drops, newest first.

Examples:
  cadence drops abraham
  cadence drops abraham --limit 7`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			drops, err := wire.AuditService().ListDrops(ctx, args[0], limit)
			if err != nil {
				return fmt.Errorf("failed to list drops: %w", err)
			}

			if len(drops) == 0 {
				fmt.Println("No drops recorded.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "DAY\tDROP\tSTRATEGY\tEMERGENCY")
			fmt.Fprintln(w, "---\t----\t--------\t---------")

			for _, d := range drops {
				emergency := ""
				if d.IsEmergency {
					emergency = "yes"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.LocalDay, d.ID, d.Strategy, emergency)
			}

			w.Flush()
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 30, "Maximum drops to show (0 for all)")

	return cmd
}
