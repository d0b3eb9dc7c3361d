package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/cadence/internal/app"
	"github.com/example/cadence/internal/config"
	"github.com/example/cadence/internal/db"
)

// CheckResult represents the outcome of a single check
type CheckResult struct {
	Name    string
	Status  string // "✓", "⚠", "✗"
	Details string // Only shown if Status != "✓"
}

// DoctorCmd returns the doctor command for environment validation
func DoctorCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Validate the cadence environment",
		Long: `Environment health check for cadence.

Validates:
- Config file (~/.cadence/agents.yaml) parses and every agent resolves
- Database file exists and the schema opens
- Pipeline endpoints are configured

Examples:
  cadence doctor            # Run full health check
  cadence doctor --quiet    # Exit code only (0=healthy, 1=issues)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			results := []CheckResult{
				checkConfig(),
				checkDatabase(),
				checkPipeline(),
			}

			hasErrors := false
			for _, r := range results {
				if r.Status == "✗" {
					hasErrors = true
					break
				}
			}

			if !quiet {
				fmt.Println()
				fmt.Println("Check              Status")
				fmt.Println("─────────────────────────")
				for _, r := range results {
					fmt.Printf("%-18s %s\n", r.Name, r.Status)
				}
				fmt.Println()

				hasDetails := false
				for _, r := range results {
					if r.Status != "✓" && r.Details != "" {
						if !hasDetails {
							fmt.Println("Details:")
							hasDetails = true
						}
						fmt.Printf("\n%s:\n%s\n", r.Name, r.Details)
					}
				}

				if hasErrors {
					fmt.Println("\n⚠ Issues found. Run 'cadence init' to bootstrap.")
				} else {
					fmt.Println("All checks passed.")
				}
			}

			if hasErrors {
				return fmt.Errorf("environment validation failed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode - exit code only")

	return cmd
}

// checkConfig validates the agents.yaml file and every agent in it
func checkConfig() CheckResult {
	path, err := config.DefaultPath()
	if err != nil {
		return CheckResult{Name: "Config", Status: "✗", Details: "  Cannot get home directory"}
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return CheckResult{
			Name:    "Config",
			Status:  "✗",
			Details: "  ~/.cadence/agents.yaml not found\n  Run: cadence init",
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return CheckResult{Name: "Config", Status: "✗", Details: fmt.Sprintf("  %v", err)}
	}

	_, invalid := app.NewScheduleRegistry(cfg)
	if len(invalid) > 0 {
		details := ""
		for agentID, agentErr := range invalid {
			details += fmt.Sprintf("  %s: %v\n", agentID, agentErr)
		}
		return CheckResult{Name: "Config", Status: "✗", Details: details}
	}
	if len(cfg.Agents) == 0 {
		return CheckResult{
			Name:    "Config",
			Status:  "⚠",
			Details: "  No agents configured",
		}
	}

	return CheckResult{Name: "Config", Status: "✓"}
}

// checkDatabase validates the database file and schema
func checkDatabase() CheckResult {
	dbPath, err := db.GetDBPath()
	if err != nil {
		return CheckResult{Name: "Database", Status: "✗", Details: "  Cannot get home directory"}
	}

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return CheckResult{
			Name:    "Database",
			Status:  "✗",
			Details: "  ~/.cadence/cadence.db not found\n  Run: cadence init",
		}
	}

	if _, err := db.GetDB(); err != nil {
		return CheckResult{Name: "Database", Status: "✗", Details: fmt.Sprintf("  %v", err)}
	}

	return CheckResult{Name: "Database", Status: "✓"}
}

// checkPipeline validates the generation endpoints are configured
func checkPipeline() CheckResult {
	path, err := config.DefaultPath()
	if err != nil {
		return CheckResult{Name: "Pipeline", Status: "⚠", Details: "  Cannot get home directory"}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return CheckResult{Name: "Pipeline", Status: "⚠", Details: "  Config unreadable, see Config check"}
	}

	if cfg.PipelineURL == "" && cfg.BackupPipelineURL == "" {
		return CheckResult{
			Name:    "Pipeline",
			Status:  "⚠",
			Details: "  No pipeline endpoints configured\n  Only the draft pool and placeholder strategies will serve drops",
		}
	}

	return CheckResult{Name: "Pipeline", Status: "✓"}
}
