package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/graphreveal/pkg/graph"
	gio "github.com/matzehuels/graphreveal/pkg/io"
)

// exportCommand creates the export command.
func (c *CLI) exportCommand() *cobra.Command {
	var (
		output    string
		yaml      bool
		sessionID string
		noCache   bool
	)

	cmd := &cobra.Command{
		Use:   "export <dataset>",
		Short: "Write the visible subgraph as a dataset",
		Long: `Write the nodes and edges of the current view as a new dataset.

The output keeps visibility and selection flags, so importing it again
starts from the same view. The format follows the output extension
(.json, .yaml, .yml); stdout defaults to JSON unless --yaml is set.`,
		Args: cobra.ExactArgs(1),
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
			vs.Close()

			var sub graph.Dataset
			eng.View(func(m *graph.Model) { sub = gio.Subgraph(m) })

			if output == "" {
				if yaml {
					return gio.WriteYAML(os.Stdout, sub)
				}
				return gio.WriteJSON(os.Stdout, sub)
			}
			if err := gio.Export(output, sub); err != nil {
				return err
			}
			printSuccess("Exported view")
			printStats(len(sub.Nodes), len(sub.Edges), false)
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&yaml, "yaml", false, "write YAML to stdout")
	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "session to export (an id prefix is enough)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable dataset caching")

	return cmd
}
