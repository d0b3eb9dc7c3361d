package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/cadence/internal/ctxutil"
	"github.com/example/cadence/internal/wire"
)

// GenerateCmd returns the generate command
func GenerateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate [agent-id]",
		Short: "Force a scheduling cycle for an agent now",
		Long: `Force the evaluate/generate/commit cycle for an agent immediately,
without waiting for its scheduled drop time.

The cycle is idempotent with the scheduler: if today's drop already
exists this is a no-op. Exits non-zero when the day could not be
resolved with a drop.

Examples:
  cadence generate abraham`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := ctxutil.WithOrigin(context.Background(), ctxutil.OriginManual)
			agentID := args[0]

			result, err := wire.CycleService().RunCycle(ctx, agentID, time.Now())
			if err != nil {
				return fmt.Errorf("cycle failed: %w", err)
			}
			wire.CycleService().WaitNotifications()

			switch {
			case result.AlreadyDropped:
				fmt.Printf("Agent %s already dropped today; nothing to do\n", agentID)
			case result.Skipped:
				fmt.Printf("Agent %s has not started its practice yet\n", agentID)
			case result.Protected:
				return fmt.Errorf("all strategies failed for %s; protection window activated: %v", agentID, result.Err)
			case result.IsEmergency:
				fmt.Printf("✓ Emergency drop %s recorded for %s via %s\n", result.DropID, agentID, result.Strategy)
			default:
				fmt.Printf("✓ Drop %s recorded for %s via %s\n", result.DropID, agentID, result.Strategy)
			}
			return nil
		},
	}
}
