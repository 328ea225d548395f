// Package nodelink exports positioned scenes as Graphviz node-link diagrams.
//
// [ToDOT] writes a DOT document in which every node carries a pinned
// pos="x,y!" attribute, its fill, stroke, opacity and label, so external
// Graphviz tools reproduce the simulated layout instead of computing their
// own. [RenderSVG] renders the document in process with neato, which honours
// pinned positions:
//
//	dot := nodelink.ToDOT(snap, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// This package uses [github.com/goccy/go-graphviz] and needs no system
// Graphviz installation.
package nodelink
