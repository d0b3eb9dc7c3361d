package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/cadence/internal/config"
	"github.com/example/cadence/internal/db"
)

// InitCmd returns the init command
func InitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the cadence database and starter config",
		Long:  `Initialize the cadence database at ~/.cadence/cadence.db and write a starter agents.yaml.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath, err := db.GetDBPath()
			if err != nil {
				return fmt.Errorf("failed to get database path: %w", err)
			}

			fmt.Printf("Initializing cadence database at %s\n", dbPath)
			if _, err := db.GetDB(); err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			fmt.Println("✓ Database initialized successfully")

			cfgPath, err := config.DefaultPath()
			if err != nil {
				return err
			}
			if err := config.WriteStarter(cfgPath); err != nil {
				// An existing config is fine on re-init.
				fmt.Printf("Config: %v\n", err)
			} else {
				fmt.Printf("✓ Starter config written to %s\n", cfgPath)
			}

			fmt.Println()
			fmt.Println("Next steps:")
			fmt.Println("  edit ~/.cadence/agents.yaml and add your agents")
			fmt.Println("  cadence agent register <agent-id>")
			fmt.Println("  cadence daemon")

			return nil
		},
	}
}
