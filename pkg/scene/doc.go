// Package scene turns simulation frames into styled visual elements.
//
// A [Scene] holds one element per node and link, keyed by node id and by the
// "{source}-{target}" link key so that re-synchronising with filtered data
// keeps surviving elements and their positions. Every element carries the
// derived visual state sinks draw from:
//
//   - fill from a [ColorScale] built for the active [Coloring] and [Palette]
//   - stroke and opacity from the current selection and hover
//   - a chess glyph label and, for pieces, the square id below the circle
//   - link endpoints pulled back to the edge of the target circle
//
// [Scene.Bounds] measures the drawn content for the viewport fit and
// [Scene.Snapshot] exports the elements in the graph snapshot format.
package scene
