package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/cadence/internal/wire"
)

// EventsCmd returns the events command
func EventsCmd() *cobra.Command {
	var (
		agentID string
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show the audit event log",
		Long: `Show the audit event log, newest first.

Every streak mutation, protection activation, emergency drop, and
restore lands here with the trigger that caused it.

Examples:
  cadence events
  cadence events --agent solienne --limit 20`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			events, err := wire.AuditService().ListEvents(ctx, agentID, limit)
			if err != nil {
				return fmt.Errorf("failed to list events: %w", err)
			}

			if len(events) == 0 {
				fmt.Println("No events recorded.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "TIME\tAGENT\tKIND\tORIGIN\tDETAIL")
			fmt.Fprintln(w, "----\t-----\t----\t------\t------")

			for _, e := range events {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.CreatedAt, e.AgentID, e.Kind, e.Origin, e.Detail)
			}

			w.Flush()
			return nil
		},
	}

	cmd.Flags().StringVarP(&agentID, "agent", "a", "", "Filter by agent")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum events to show (0 for all)")

	return cmd
}
