package cli

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/graphreveal/pkg/session"
)

// sessionCommand creates the session management command.
func (c *CLI) sessionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "session",
		Aliases: []string{"sessions"},
		Short:   "Manage saved views",
	}

	cmd.AddCommand(c.sessionListCommand())
	cmd.AddCommand(c.sessionShowCommand())
	cmd.AddCommand(c.sessionDeleteCommand())
	cmd.AddCommand(c.sessionCleanupCommand())

	return cmd
}

// sessionListCommand creates the "session list" subcommand.
func (c *CLI) sessionListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List live sessions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			sessions, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				printInfo("No sessions")
				return nil
			}
			fmt.Println(sessionTable(sessions, time.Now()))
			return nil
		},
	}
}

// sessionTable renders sessions as a table.
func sessionTable(sessions []*session.Session, now time.Time) string {
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		expires := "never"
		if !s.ExpiresAt.IsZero() {
			expires = formatUntil(s.ExpiresAt.Sub(now))
		}
		rows = append(rows, []string{
			short(s.ID),
			s.DatasetPath,
			fmt.Sprintf("%d", len(s.Snapshot.VisibleNodes)),
			formatAgo(now.Sub(s.UpdatedAt)),
			expires,
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Dataset", "Visible", "Updated", "Expires").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case col == 0:
				return StyleHighlight
			case col >= 3:
				return StyleDim
			default:
				return lipgloss.NewStyle()
			}
		}).
		String()
}

// sessionShowCommand creates the "session show" subcommand.
func (c *CLI) sessionShowCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			id, err := session.ResolveID(ctx, store, args[0])
			if err != nil {
				return err
			}
			s, err := store.Get(ctx, id)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(s)
			}

			printKeyValue("ID", s.ID)
			printKeyValue("Dataset", s.DatasetPath)
			printKeyValue("Fingerprint", short(s.DatasetHash))
			printKeyValue("Updated", s.UpdatedAt.Local().Format(time.DateTime))
			printKeyValue("Visible", fmt.Sprintf("%d nodes, %d edges", len(s.Snapshot.VisibleNodes), len(s.Snapshot.VisibleEdges)))
			printKeyValue("Selected", fmt.Sprintf("%d", len(s.Snapshot.SelectedNodes)))
			printKeyValue("Origins", fmt.Sprintf("%d", len(s.Snapshot.Origins)))
			printNewline()
			printNextStep("Render it", fmt.Sprintf("graphreveal render %s --session %s", s.DatasetPath, short(s.ID)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the session as JSON")
	return cmd
}

// sessionDeleteCommand creates the "session delete" subcommand.
func (c *CLI) sessionDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>...",
		Aliases: []string{"rm"},
		Short:   "Delete sessions",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			for _, prefix := range args {
				id, err := session.ResolveID(ctx, store, prefix)
				if err != nil {
					return err
				}
				if err := store.Delete(ctx, id); err != nil {
					return err
				}
				printSuccess("Deleted %s", short(id))
			}
			return nil
		},
	}
}

// sessionCleanupCommand creates the "session cleanup" subcommand.
func (c *CLI) sessionCleanupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Remove expired sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := store.Cleanup(cmd.Context())
			if err != nil {
				return err
			}
			printSuccess("Removed %d expired sessions", n)
			return nil
		},
	}
}

// =============================================================================
// Helpers
// =============================================================================

func formatAgo(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

func formatUntil(d time.Duration) string {
	switch {
	case d <= 0:
		return "expired"
	case d < time.Hour:
		return fmt.Sprintf("in %dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("in %dh", int(d.Hours()))
	default:
		return fmt.Sprintf("in %dd", int(d.Hours()/24))
	}
}
