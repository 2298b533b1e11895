// Package nodelink renders the disclosed graph as a node-link diagram.
//
// # Overview
//
// A [Scene] is what a user currently sees: the visible nodes and edges plus
// the ghosts of an active preview. [ToDOT] writes it as Graphviz DOT and
// [RenderSVG] lays it out and renders it in-process.
//
//	scene := nodelink.Scene{Nodes: frame.Nodes, Edges: frame.Edges, Preview: frame.Preview}
//	dot := nodelink.ToDOT(scene, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # Styling
//
// Type nodes are filled blue, violations get a red outline and exemplars are
// drawn as ellipses. Selected nodes and edges are drawn heavier.
//
// Preview ghosts are dashed: additions in green, removals in red. A removal
// ghost restyles a node that is still visible, so the diagram shows exactly
// what a commit would take away.
//
// # Positions
//
// With [Options.Pinned], nodes that carry a layout position are pinned there
// and the neato engine only places the rest. Otherwise Graphviz's
// hierarchical dot layout is used.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion goes through the render package.
package nodelink
