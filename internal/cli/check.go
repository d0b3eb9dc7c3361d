package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/cadence/internal/wire"
)

// CheckCmd returns the check command
func CheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Evaluate every agent's streak status",
		Long: `Evaluate every agent's streak without mutating anything.

Shows the current and longest streak, whether the streak is intact,
and which agents are due today or running on an active protection
window.

Examples:
  cadence check`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			now := time.Now()

			checks, err := wire.StreakService().CheckAll(ctx, now)
			if err != nil {
				return fmt.Errorf("failed to check agents: %w", err)
			}

			if len(checks) == 0 {
				fmt.Println("No agents found.")
				fmt.Println()
				fmt.Println("Register your first agent:")
				fmt.Println("  cadence agent register <agent-id>")
				return nil
			}

			green := color.New(color.FgGreen).SprintFunc()
			yellow := color.New(color.FgYellow).SprintFunc()
			red := color.New(color.FgRed).SprintFunc()

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "AGENT\tSTREAK\tLONGEST\tSTATUS")
			fmt.Fprintln(w, "-----\t------\t-------\t------")

			for _, c := range checks {
				if c.Err != nil {
					fmt.Fprintf(w, "%s\t-\t-\t%s\n", c.AgentID, red(fmt.Sprintf("error: %v", c.Err)))
					continue
				}
				status := green("intact")
				switch {
				case !c.Status.Intact:
					status = red("broken")
				case c.Status.NeedsProtection:
					status = yellow("due today")
				}
				fmt.Fprintf(w, "%s\t%d\t%d\t%s\n",
					c.AgentID,
					c.Status.CurrentStreak,
					c.Status.LongestStreak,
					status,
				)
			}

			w.Flush()
			return nil
		},
	}
}
