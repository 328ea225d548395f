// Package render turns positioned scenes into files.
//
// # Overview
//
// A [graph.Snapshot] holds everything needed to draw one move scope: placed
// nodes with their styles, shortened links, the spiral guide and the fit
// transform. [Render] dispatches a snapshot to the sink for a [Format]:
//
//   - svg: vector drawing ([sink.RenderSVG])
//   - png: raster at twice the viewport size ([sink.RenderPNG])
//   - json: the snapshot document ([sink.RenderJSON])
//   - dot: Graphviz source with pinned positions ([nodelink.ToDOT])
//   - graphviz: the DOT source laid out by neato to SVG ([nodelink.RenderSVG])
//
//	data, err := render.Render(ctx, snap, render.FormatPNG)
//	name := snap.FileName(render.FormatPNG.Ext())
//
// [sink.RenderSVG]: github.com/abid8042/chessnetviz/pkg/render/sink.RenderSVG
// [sink.RenderPNG]: github.com/abid8042/chessnetviz/pkg/render/sink.RenderPNG
// [sink.RenderJSON]: github.com/abid8042/chessnetviz/pkg/render/sink.RenderJSON
// [nodelink.ToDOT]: github.com/abid8042/chessnetviz/pkg/render/nodelink.ToDOT
// [nodelink.RenderSVG]: github.com/abid8042/chessnetviz/pkg/render/nodelink.RenderSVG
package render
