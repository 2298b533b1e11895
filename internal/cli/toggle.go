package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	rerrors "github.com/matzehuels/graphreveal/pkg/errors"
	"github.com/matzehuels/graphreveal/pkg/graph"
)

// toggleCommand creates the toggle command.
func (c *CLI) toggleCommand() *cobra.Command {
	var (
		mode      string
		apply     bool
		sessionID string
		asJSON    bool
		noCache   bool
	)

	cmd := &cobra.Command{
		Use:   "toggle <dataset> <node>",
		Short: "Expand or collapse a node's neighborhood",
		Long: `Compute the delta for a node and mode and print it.

Without --apply nothing changes: this is the preview. With --apply the delta
is committed and the resulting view is saved, to --session when given or to a
new session otherwise.

Modes: children, parents, associated, hide.`,
		Example: `  graphreveal toggle ontology.json Person --mode children
  graphreveal toggle ontology.json Person --mode children --apply
  graphreveal toggle ontology.json Student --mode hide --apply --session 3f2a`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := rerrors.ValidateNodeID(args[1]); err != nil {
				return err
			}
			m, err := graph.ParseMode(mode)
			if err != nil {
				return err
			}

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

			node := args[1]
			d := eng.Compute(ctx, node, m)
			if !apply {
				if asJSON {
					return writeJSON(d)
				}
				printDelta(node, d)
				return nil
			}

			applied, err := eng.Toggle(ctx, node, m)
			if err != nil {
				return err
			}
			resumed := vs != nil
			vs, err = c.saveSession(ctx, eng, ds, vs)
			if err != nil {
				return err
			}
			id := vs.ID()
			if asJSON {
				return writeJSON(struct {
					Session string        `json:"session"`
					Applied graph.Applied `json:"applied"`
				}{id, applied})
			}
			printApplied(applied)
			printKeyValue("Session", id)
			if !resumed {
				printNextStep("Continue from here", fmt.Sprintf("graphreveal render %s --session %s", args[0], short(id)))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", string(graph.ModeChildren), "disclosure mode: "+modeList())
	cmd.Flags().BoolVar(&apply, "apply", false, "commit the delta and save the view")
	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "session to start from (an id prefix is enough)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print machine-readable JSON")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable dataset caching")

	_ = cmd.RegisterFlagCompletionFunc("mode", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return modeNames(), cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func modeNames() []string {
	names := make([]string, len(graph.Modes))
	for i, m := range graph.Modes {
		names[i] = string(m)
	}
	return names
}

func modeList() string {
	return strings.Join(modeNames(), ", ")
}

// writeJSON writes v to stdout as indented JSON.
func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
