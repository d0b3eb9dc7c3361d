package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/cadence/internal/cli"
	"github.com/example/cadence/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "cadence",
		Short:   "Cadence - daily drop scheduler and streak engine",
		Version: version.String(),
		Long: `Cadence schedules one drop per agent per local calendar day and
guards the streaks those drops build. Generation falls back through
alternate prompts, the draft pool, a backup model, and finally a
placeholder so a day is never silently lost.`,
	}

	// Add subcommands
	rootCmd.AddCommand(cli.InitCmd())
	rootCmd.AddCommand(cli.DoctorCmd())
	rootCmd.AddCommand(cli.DaemonCmd())
	rootCmd.AddCommand(cli.CheckCmd())
	rootCmd.AddCommand(cli.GenerateCmd())
	rootCmd.AddCommand(cli.RestoreCmd())
	rootCmd.AddCommand(cli.AgentCmd())
	rootCmd.AddCommand(cli.DropsCmd())
	rootCmd.AddCommand(cli.EventsCmd())
	rootCmd.AddCommand(cli.DraftsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
