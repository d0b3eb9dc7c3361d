package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/example/cadence/internal/ports/secondary"
	"github.com/example/cadence/internal/wire"
)

// DraftsCmd returns the drafts command
func DraftsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drafts",
		Short: "Manage the pre-generated draft pool",
		Long: `Manage the draft pool consumed by the draft_pool fallback strategy.

Drafts are claimed oldest first when live generation fails, so a
stocked pool is what stands between a pipeline outage and an
emergency placeholder drop.`,
	}

	cmd.AddCommand(draftsAddCmd())
	cmd.AddCommand(draftsListCmd())

	return cmd
}

func draftsAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add [agent-id] [content]",
		Short: "Add a draft to an agent's pool",
		Long: `Add a draft to an agent's pool.

Examples:
  cadence drafts add abraham "meditation on rust and rebirth"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			agentID := args[0]

			if _, err := wire.Registry().Get(agentID); err != nil {
				return err
			}

			draft := &secondary.DraftRecord{
				ID:      "draft-" + uuid.NewString(),
				AgentID: agentID,
				Content: args[1],
			}
			if err := wire.DraftRepository().Add(ctx, draft); err != nil {
				return fmt.Errorf("failed to add draft: %w", err)
			}

			fmt.Printf("✓ Added draft %s for %s\n", draft.ID, agentID)
			return nil
		},
	}
}

func draftsListCmd() *cobra.Command {
	var includeUsed bool

	cmd := &cobra.Command{
		Use:   "list [agent-id]",
		Short: "List an agent's drafts, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			drafts, err := wire.DraftRepository().List(ctx, args[0], includeUsed)
			if err != nil {
				return fmt.Errorf("failed to list drafts: %w", err)
			}

			if len(drafts) == 0 {
				fmt.Println("Draft pool is empty.")
				fmt.Println()
				fmt.Println("Stock it with:")
				fmt.Printf("  cadence drafts add %s \"...\"\n", args[0])
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "ID\tUSED\tCONTENT")
			fmt.Fprintln(w, "--\t----\t-------")

			for _, d := range drafts {
				used := ""
				if d.Used {
					used = "yes"
				}
				content := d.Content
				if len(content) > 60 {
					content = content[:57] + "..."
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", d.ID, used, content)
			}

			w.Flush()
			return nil
		},
	}

	cmd.Flags().BoolVar(&includeUsed, "all", false, "Include drafts already claimed")

	return cmd
}
