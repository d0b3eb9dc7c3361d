package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/cadence/internal/db"
	"github.com/example/cadence/internal/wire"
)

// DaemonCmd returns the daemon command
func DaemonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run the drop scheduler in the foreground",
		Long: `Run the scheduler: one timer per agent firing at its local drop
time, an hourly reconciliation sweep, and the end-of-day safety sweep.

Stops cleanly on SIGINT or SIGTERM: pending timers are cancelled,
in-flight cycles finish, and subscriber notifications drain.

Examples:
  cadence daemon`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			defer db.Close()

			err := wire.Scheduler().Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}
