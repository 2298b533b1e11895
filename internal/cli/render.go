package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/graphreveal/pkg/cache"
	rerrors "github.com/matzehuels/graphreveal/pkg/errors"
	"github.com/matzehuels/graphreveal/pkg/graph"
	"github.com/matzehuels/graphreveal/pkg/render"
	"github.com/matzehuels/graphreveal/pkg/render/nodelink"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output    string  // output file path; stdout when empty
	format    string  // svg, png, pdf or dot; derived from output when empty
	detailed  bool    // add ids and kinds to labels
	pinned    bool    // keep nodes at their layout positions
	preview   string  // "node:mode" preview to overlay
	scale     float64 // PNG scale factor
	sessionID string  // session to draw
	noCache   bool    // skip dataset and render caching
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render <dataset>",
		Short: "Render the current view as a diagram",
		Long: `Render the visible subgraph as a node-link diagram.

The view is the dataset's initial visibility, or a saved session with
--session. --preview draws the ghosts of a pending toggle on top without
committing it: additions dashed green, removals dashed red.`,
		Example: `  graphreveal render ontology.json -o view.svg
  graphreveal render ontology.json --session 3f2a --preview Person:children -o preview.png`,
		Args: cobra.ExactArgs(1),
		PreRun: func(cmd *cobra.Command, args []string) {
			cfg := c.config().Render
			if !cmd.Flags().Changed("detailed") {
				opts.detailed = cfg.Detailed
			}
			if !cmd.Flags().Changed("pinned") {
				opts.pinned = cfg.Pinned
			}
			if !cmd.Flags().Changed("scale") {
				opts.scale = cfg.Scale
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: svg (default), png, pdf, dot")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show node ids and kinds")
	cmd.Flags().BoolVar(&opts.pinned, "pinned", false, "place nodes at their layout positions")
	cmd.Flags().StringVar(&opts.preview, "preview", "", "overlay a pending toggle, as node:mode")
	cmd.Flags().Float64Var(&opts.scale, "scale", 2, "PNG scale factor")
	cmd.Flags().StringVarP(&opts.sessionID, "session", "s", "", "session to render (an id prefix is enough)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, path string, opts renderOpts) error {
	format, err := resolveFormat(opts.format, opts.output)
	if err != nil {
		return err
	}

	ds, err := c.loadDataset(ctx, path, opts.noCache)
	if err != nil {
		return err
	}
	eng, _, err := c.newEngine(ctx, ds.Dataset)
	if err != nil {
		return err
	}
	defer eng.Close()

	vs, err := c.openSession(ctx, eng, ds, opts.sessionID)
	if err != nil {
		return err
	}
	vs.Close()

	if opts.preview != "" {
		node, mode, err := parsePreview(opts.preview)
		if err != nil {
			return err
		}
		if _, d := eng.Preview(ctx, node, mode); d.IsEmpty() {
			printWarning("Nothing to %s for %s", mode, node)
		}
	}

	frame := eng.Frame()
	scene := nodelink.Scene{Nodes: frame.Nodes, Edges: frame.Edges, Preview: frame.Preview}
	nlOpts := nodelink.Options{Detailed: opts.detailed, Pinned: opts.pinned, Ghosts: opts.preview != ""}

	data, cached, err := c.renderCached(ctx, ds, scene, nlOpts, format, opts)
	if err != nil {
		return err
	}

	if opts.output == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(opts.output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}
	printSuccess("Rendered %s", format)
	printStats(len(frame.Nodes), len(frame.Edges), cached)
	printFile(opts.output)
	return nil
}

// renderCached renders scene, reusing a cached result for the same view.
func (c *CLI) renderCached(ctx context.Context, ds *dataset, scene nodelink.Scene, nlOpts nodelink.Options, format render.Format, opts renderOpts) ([]byte, bool, error) {
	bc, err := c.openCache(ctx, opts.noCache)
	if err != nil {
		c.Logger.Warn("cache unavailable", "err", err)
		bc = cache.NewNullCache()
	}
	defer bc.Close()
	bc = cache.Instrument(bc)

	key := cache.NewDefaultKeyer().RenderKey(ds.Fingerprint, cache.RenderKeyOpts{
		StateHash: sceneHash(scene, nlOpts, opts.scale),
		Format:    string(format),
		Preview:   opts.preview,
	})
	if data, hit, err := bc.Get(ctx, key); err == nil && hit {
		return data, true, nil
	}

	var data []byte
	prog := newProgress(loggerFromContext(ctx))
	err = withSpinner(ctx, "Rendering...", func() error {
		var err error
		data, err = nodelink.Render(ctx, scene, nlOpts, format, opts.scale)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	prog.done("rendered view", "format", format, "bytes", len(data))
	if err := bc.Set(ctx, key, data, 0); err != nil {
		c.Logger.Debug("render cache write failed", "err", err)
	}
	return data, false, nil
}

// sceneHash identifies everything that affects a rendered diagram.
func sceneHash(s nodelink.Scene, opts nodelink.Options, scale float64) string {
	data, _ := json.Marshal(struct {
		Scene nodelink.Scene
		Opts  nodelink.Options
		Scale float64
	}{s, opts, scale})
	return cache.Hash(data)
}

// resolveFormat picks the format from the flag, then the output extension,
// then falls back to SVG.
func resolveFormat(flag, output string) (render.Format, error) {
	if flag != "" {
		return render.ParseFormat(flag)
	}
	if ext := filepath.Ext(output); ext != "" {
		return render.ParseFormat(ext)
	}
	return render.FormatSVG, nil
}

// parsePreview splits "node:mode". Node ids may contain colons; the mode is
// taken after the last one.
func parsePreview(s string) (string, graph.Mode, error) {
	i := strings.LastIndex(s, ":")
	if i <= 0 || i == len(s)-1 {
		return "", "", rerrors.New(rerrors.ErrCodeInvalidInput, "preview must be node:mode, got %q", s)
	}
	mode, err := graph.ParseMode(s[i+1:])
	if err != nil {
		return "", "", err
	}
	return s[:i], mode, nil
}
