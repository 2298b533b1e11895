package cli

import (
	"context"
	"io"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/graphreveal/internal/config"
)

// exploreCommand creates the explore command.
func (c *CLI) exploreCommand() *cobra.Command {
	var (
		sessionID string
		noCache   bool
	)

	cmd := &cobra.Command{
		Use:   "explore <dataset>",
		Short: "Browse a graph interactively in the terminal",
		Long: `Open a terminal browser over the visible nodes.

Move the cursor to a node and press c, p, a or x to preview expanding its
children, parents or associated nodes, or hiding it. Enter commits the
preview; moving on or esc discards it. Space toggles selection, r resets
and s saves the view as a session.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExplore(cmd.Context(), args[0], sessionID, noCache)
		},
	}

	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "session to resume (an id prefix is enough)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable dataset caching")

	return cmd
}

func (c *CLI) runExplore(ctx context.Context, path, sessionID string, noCache bool) error {
	ds, err := c.loadDataset(ctx, path, noCache)
	if err != nil {
		return err
	}
	eng, _, err := c.newEngine(ctx, ds.Dataset)
	if err != nil {
		return err
	}
	defer eng.Close()

	vs, err := c.openSession(ctx, eng, ds, sessionID)
	if err != nil {
		return err
	}
	defer func() { vs.Close() }()

	var save func() (string, error)
	if c.config().Store.Backend != config.StoreNone {
		save = func() (string, error) {
			saved, err := c.saveSession(ctx, eng, ds, vs)
			if saved != nil {
				vs = saved
			}
			return vs.ID(), err
		}
	}

	// The TUI owns the terminal; route logs away from it.
	c.Logger.SetOutput(io.Discard)
	model := newExploreModel(ctx, eng, filepath.Base(path), save)
	final, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return err
	}
	if m, ok := final.(exploreModel); ok && m.saved != "" {
		printSuccess("Saved session %s", short(m.saved))
		printNextStep("Render it", "graphreveal render "+path+" --session "+short(m.saved))
	}
	return nil
}
