package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/graphreveal/pkg/graph"
)

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		noCache bool
		strict  bool
	)

	cmd := &cobra.Command{
		Use:   "inspect <dataset>",
		Short: "Summarize a dataset",
		Long: `Load a dataset and print what was ingested.

Nodes and edges that could not be ingested (duplicate ids, unknown edge
endpoints) are listed. With --strict such problems make the command fail.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ds, err := c.loadDataset(ctx, args[0], noCache)
			if err != nil {
				return err
			}
			eng, report, err := c.newEngine(ctx, ds.Dataset)
			if err != nil {
				return err
			}
			defer eng.Close()

			var visible, filtered, selected int
			eng.View(func(m *graph.Model) {
				visible = len(m.VisibleNodeIDs())
				selected = len(m.SelectedNodeIDs())
				for _, n := range m.Nodes() {
					if m.IsFiltered(n.ID) {
						filtered++
					}
				}
			})

			printSuccess("Loaded %s", ds.Path)
			printStats(report.Nodes, report.Edges, ds.Cached)
			printNewline()
			printKeyValue("Visible", fmt.Sprintf("%d", visible))
			printKeyValue("Selected", fmt.Sprintf("%d", selected))
			printKeyValue("Filtered", fmt.Sprintf("%d", filtered))
			printKeyValue("Associations", fmt.Sprintf("%d", len(ds.Associations)))
			printKeyValue("Fingerprint", short(ds.Fingerprint))

			if !report.OK() {
				printNewline()
				printWarning("%d entities dropped", len(report.Dropped))
				for _, d := range report.Dropped {
					printDetail("%s", d.Message())
				}
				if strict {
					return report.Err()
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable dataset caching")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail if any entity was dropped")

	return cmd
}
