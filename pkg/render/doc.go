// Package render turns views of the disclosed graph into images.
//
// # Overview
//
// The [nodelink] subpackage writes the visible subgraph and the active
// preview as Graphviz DOT and renders it to SVG in-process. This package
// holds the format handling shared by all renderers:
//
//   - [ParseFormat] validates an output format name
//   - [ToPDF] and [ToPNG] convert SVG with the external rsvg-convert tool
//
//	dot := nodelink.ToDOT(scene, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	png, err := render.ToPNG(svg, 2.0)  // 2x scale
//
// [nodelink]: github.com/matzehuels/graphreveal/pkg/render/nodelink
package render
