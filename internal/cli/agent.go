package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/cadence/internal/wire"
)

// AgentCmd returns the agent command
func AgentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Manage agent practices",
		Long:  `Register and inspect the agents whose daily practices cadence schedules.`,
	}

	cmd.AddCommand(agentRegisterCmd())
	cmd.AddCommand(agentListCmd())
	cmd.AddCommand(agentShowCmd())

	return cmd
}

func agentRegisterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register [agent-id]",
		Short: "Create the streak record for a configured agent",
		Long: `Create the streak record for an agent already present in
~/.cadence/agents.yaml. The practice start date and cadence come from
the config entry.

Examples:
  cadence agent register abraham`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			agentID := args[0]

			sched, err := wire.Registry().Get(agentID)
			if err != nil {
				return fmt.Errorf("add %s to agents.yaml first: %w", agentID, err)
			}

			start := sched.PracticeStartDate
			if start == "" {
				start = time.Now().In(sched.Location).Format("2006-01-02")
			}

			if err := wire.StreakService().InitializePractice(ctx, agentID, start, sched.Cadence); err != nil {
				return fmt.Errorf("failed to register agent: %w", err)
			}

			fmt.Printf("✓ Registered %s (practice starts %s)\n", agentID, start)
			return nil
		},
	}
}

func agentListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured agents and their schedules",
		RunE: func(cmd *cobra.Command, args []string) error {
			agents := wire.Registry().All()
			if len(agents) == 0 {
				fmt.Println("No agents configured.")
				fmt.Println()
				fmt.Println("Add agents to ~/.cadence/agents.yaml, then:")
				fmt.Println("  cadence agent register <agent-id>")
				return nil
			}

			now := time.Now()
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "ID\tTIMEZONE\tDROP TIME\tNEXT FIRE")
			fmt.Fprintln(w, "--\t--------\t---------\t---------")

			for _, a := range agents {
				fire, err := wire.Registry().NextFire(a.ID, now)
				next := "?"
				if err == nil {
					next = fire.Format("2006-01-02 15:04 MST")
				}
				fmt.Fprintf(w, "%s\t%s\t%02d:%02d\t%s\n",
					a.ID,
					a.Location.String(),
					a.DropTime.Hour,
					a.DropTime.Minute,
					next,
				)
			}

			w.Flush()
			return nil
		},
	}
}

func agentShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [agent-id]",
		Short: "Show an agent's streak record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			rec, err := wire.StreakService().GetStreak(ctx, args[0])
			if err != nil {
				return fmt.Errorf("agent not found: %w", err)
			}

			fmt.Printf("Agent: %s\n", rec.AgentID)
			fmt.Printf("Current streak: %d\n", rec.CurrentStreak)
			fmt.Printf("Longest streak: %d\n", rec.LongestStreak)
			fmt.Printf("Total drops: %d\n", rec.TotalDrops)
			fmt.Printf("Last drop: %s\n", orDash(rec.LastDropDate))
			fmt.Printf("Practice started: %s\n", orDash(rec.PracticeStartDate))
			fmt.Printf("Cadence: %s\n", rec.Cadence)
			if rec.ProtectionActive {
				fmt.Printf("Protection: active until %s\n", rec.ProtectionExpiresAt)
			} else {
				fmt.Printf("Protection: inactive\n")
			}

			return nil
		},
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
