package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/graphreveal/pkg/graph"
	"github.com/matzehuels/graphreveal/pkg/preview"
	"github.com/matzehuels/graphreveal/pkg/render"
)

// Scene is the content of one diagram.
type Scene struct {
	Nodes   []graph.Node
	Edges   []graph.Edge
	Preview preview.State
}

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds the node ID and kind flags to labels.
	Detailed bool

	// Pinned keeps nodes at their layout positions.
	Pinned bool

	// Ghosts includes the preview overlay. It defaults to off so that a
	// zero Options renders only committed state.
	Ghosts bool
}

const (
	colorType      = "#dbeafe"
	colorViolation = "#dc2626"
	colorSelected  = "#2563eb"
	colorAddition  = "#16a34a"
	colorRemoval   = "#dc2626"
	colorRemovalBg = "#fee2e2"
)

// ToDOT converts a scene to Graphviz DOT format.
// Nodes are written in scene order, so equal scenes give equal output.
func ToDOT(s Scene, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	if opts.Pinned {
		buf.WriteString("  layout=neato;\n")
		buf.WriteString("  overlap=false;\n")
	} else {
		buf.WriteString("  rankdir=TB;\n")
		buf.WriteString("  ranksep=0.5;\n")
		buf.WriteString("  nodesep=0.3;\n")
	}
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("\n")

	nodeGhosts, edgeGhosts := ghostIndex(s.Preview, opts.Ghosts)

	for _, n := range s.Nodes {
		attrs := fmtAttrs(n, opts)
		if g, ok := nodeGhosts[n.ID]; ok && g == preview.GhostRemoval {
			attrs = append(attrs, ghostNodeAttrs(g)...)
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}
	if opts.Ghosts {
		for _, g := range s.Preview.Nodes {
			if g.Ghost != preview.GhostAddition {
				continue
			}
			attrs := append(fmtAttrs(g.Node, opts), ghostNodeAttrs(g.Ghost)...)
			fmt.Fprintf(&buf, "  %q [%s];\n", g.ID, strings.Join(attrs, ", "))
		}
	}

	buf.WriteString("\n")
	for _, e := range s.Edges {
		attrs := edgeAttrs(e)
		if g, ok := edgeGhosts[e.ID]; ok && g == preview.GhostRemoval {
			attrs = append(attrs, ghostEdgeAttrs(g)...)
		}
		writeEdge(&buf, e, attrs)
	}
	if opts.Ghosts {
		for _, g := range s.Preview.Edges {
			if g.Ghost == preview.GhostAddition {
				writeEdge(&buf, g.Edge, append(edgeAttrs(g.Edge), ghostEdgeAttrs(g.Ghost)...))
			}
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func ghostIndex(p preview.State, enabled bool) (nodes, edges map[string]preview.GhostKind) {
	nodes = make(map[string]preview.GhostKind)
	edges = make(map[string]preview.GhostKind)
	if !enabled || !p.Active {
		return nodes, edges
	}
	for _, g := range p.Nodes {
		nodes[g.ID] = g.Ghost
	}
	for _, g := range p.Edges {
		edges[g.ID] = g.Ghost
	}
	return nodes, edges
}

func writeEdge(buf *bytes.Buffer, e graph.Edge, attrs []string) {
	if len(attrs) == 0 {
		fmt.Fprintf(buf, "  %q -> %q;\n", e.Source, e.Target)
		return
	}
	fmt.Fprintf(buf, "  %q -> %q [%s];\n", e.Source, e.Target, strings.Join(attrs, ", "))
}

func fmtLabel(n graph.Node, detailed bool) string {
	label := n.DisplayLabel()
	if !detailed {
		return label
	}
	var parts []string
	if label != n.ID {
		parts = append(parts, "id: "+n.ID)
	}
	if k := n.Kind.String(); k != "" {
		parts = append(parts, k)
	}
	if len(parts) == 0 {
		return label
	}
	return label + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(n graph.Node, opts Options) []string {
	attrs := []string{fmt.Sprintf("label=%q", fmtLabel(n, opts.Detailed))}
	if n.Kind.Type {
		attrs = append(attrs, fmt.Sprintf("fillcolor=%q", colorType))
	}
	if n.Kind.Exemplar {
		attrs = append(attrs, "shape=ellipse")
	}
	switch {
	case n.Selected:
		attrs = append(attrs, fmt.Sprintf("color=%q", colorSelected), "penwidth=3")
	case n.Kind.Violation:
		attrs = append(attrs, fmt.Sprintf("color=%q", colorViolation), "penwidth=2")
	}
	if opts.Pinned && n.Position != nil {
		// Graphviz y grows upward.
		attrs = append(attrs, fmt.Sprintf("pos=\"%.1f,%.1f!\"", n.Position.X, -n.Position.Y))
	}
	return attrs
}

func edgeAttrs(e graph.Edge) []string {
	var attrs []string
	if e.Label != "" {
		attrs = append(attrs, fmt.Sprintf("label=%q", e.Label))
	}
	if e.Selected {
		attrs = append(attrs, fmt.Sprintf("color=%q", colorSelected), "penwidth=2")
	}
	return attrs
}

func ghostNodeAttrs(k preview.GhostKind) []string {
	if k == preview.GhostRemoval {
		return []string{"style=\"rounded,filled,dashed\"", fmt.Sprintf("color=%q", colorRemoval), fmt.Sprintf("fillcolor=%q", colorRemovalBg)}
	}
	return []string{"style=\"rounded,filled,dashed\"", fmt.Sprintf("color=%q", colorAddition), "fontcolor=gray40"}
}

func ghostEdgeAttrs(k preview.GhostKind) []string {
	if k == preview.GhostRemoval {
		return []string{"style=dashed", fmt.Sprintf("color=%q", colorRemoval)}
	}
	return []string{"style=dashed", fmt.Sprintf("color=%q", colorAddition)}
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with [render.ToPDF] or [render.ToPNG].
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.-]+)\s+([0-9.-]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

// Render produces the scene in the requested format.
func Render(ctx context.Context, s Scene, opts Options, format render.Format, scale float64) ([]byte, error) {
	dot := ToDOT(s, opts)
	if format == render.FormatDOT {
		return []byte(dot), nil
	}
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	switch format {
	case render.FormatPNG:
		return render.ToPNG(svg, scale)
	case render.FormatPDF:
		return render.ToPDF(svg)
	default:
		return svg, nil
	}
}
