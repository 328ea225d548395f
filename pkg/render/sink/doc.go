// Package sink draws a positioned [graph.Snapshot] into output formats.
//
//   - [RenderSVG]: vector output via github.com/ajstarks/svgo, with the
//     arrowhead marker, the spiral guide and the fit transform on the root
//     group
//   - [RenderPNG]: raster output via git.sr.ht/~sbinet/gg at
//     [DefaultPNGScale] on the same background
//   - [RenderJSON]: the snapshot document itself
//
// Sinks never re-run the simulation; everything they draw is already in the
// snapshot.
//
//	svg := sink.RenderSVG(snap)
//	png, err := sink.RenderPNG(snap, sink.WithScale(2))
//
// The raster face only covers ASCII, so PNG labels show the FEN letter where
// the SVG shows a chess glyph.
package sink
