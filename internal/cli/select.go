package cli

import (
	"github.com/spf13/cobra"
)

// selectCommand creates the select command.
func (c *CLI) selectCommand() *cobra.Command {
	var (
		widen     bool
		sessionID string
		noCache   bool
	)

	cmd := &cobra.Command{
		Use:   "select <dataset> [node...]",
		Short: "Select nodes and reveal them",
		Long: `Replace the selection with the given nodes and make them visible.

Selected nodes are shown regardless of how they were reached. With
--associated the selection also covers each node's associated nodes.
Running select without nodes clears the selection.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ds, err := c.loadDataset(ctx, args[0], noCache)
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

			applied, err := eng.Select(ctx, args[1:], widen)
			if err != nil {
				return err
			}
			vs, err = c.saveSession(ctx, eng, ds, vs)
			if err != nil {
				return err
			}
			printApplied(applied)
			printKeyValue("Session", vs.ID())
			return nil
		},
	}

	cmd.Flags().BoolVar(&widen, "associated", false, "also select associated nodes")
	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "session to update (an id prefix is enough)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable dataset caching")

	return cmd
}
