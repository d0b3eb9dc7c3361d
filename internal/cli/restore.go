package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/cadence/internal/ctxutil"
	"github.com/example/cadence/internal/wire"
)

// RestoreCmd returns the emergency-restore command
func RestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "emergency-restore [agent-id] [streak-value]",
		Short: "Restore an agent's streak after an outage",
		Long: `Forcibly set an agent's current streak and open a protection window.

This is the privileged operator escape hatch for streaks lost to
infrastructure failures rather than missed work. The restore is
always written to the audit log with the supplied value.

Examples:
  cadence emergency-restore solienne 35`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := ctxutil.WithOrigin(context.Background(), ctxutil.OriginManual)
			agentID := args[0]

			streakValue, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("streak value must be an integer, got %q", args[1])
			}

			if err := wire.StreakService().EmergencyRestore(ctx, agentID, time.Now(), streakValue); err != nil {
				return fmt.Errorf("failed to restore streak: %w", err)
			}

			fmt.Printf("✓ Streak for %s restored to %d with protection active\n", agentID, streakValue)
			return nil
		},
	}
}
