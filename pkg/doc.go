// Package pkg provides the core libraries for chessnetviz.
//
// # Overview
//
// chessnetviz turns per-move chess influence graphs into positioned, styled
// network diagrams. Board squares are nodes, influence relations between
// them are links, and one of three force layouts places them:
//
//   - force-directed: charge, link and centering forces plus a weak pull
//     toward each node's structural cluster
//   - radial: concentric rings ordered by a sort key
//   - spiral: an Archimedean spiral with nodes pinned along the curve
//
// # Architecture
//
// The data flow from a dataset file to an image:
//
//	dataset JSON
//	     ↓
//	[dataset] (decode, process one move scope, filter and sort)
//	     ↓
//	[layout] + [sim] (configure forces, tick until rest)
//	     ↓
//	[scene] (style nodes and links, hover and selection state)
//	     ↓
//	[viewport] (fit the scene into the view)
//	     ↓
//	[render] (svg, png, json, dot)
//
// [pipeline] runs these steps for the CLI and the HTTP server, with [cache]
// memoizing snapshots and rendered artifacts.
//
// # Packages
//
// [graph] - Node, link, scope, layout and snapshot types shared by every
// other package.
//
// [domain] - Color and filter domains resolved from node metrics.
//
// [dataset] - Dataset schema, per-move processing, filters, sorting and
// graph analysis (components, PageRank influence, metric summaries).
//
// [layout] - Layout parameters and the force configurations of the three
// layout engines.
//
// [sim] - The force simulation and the driver that reconfigures it.
//
// [scene] - Visual elements synchronized with the visible graph.
//
// [viewport] - Fit transforms, settle delays and debouncing.
//
// [render] - Output formats; [render/sink] writes them.
//
// [pipeline] - Load, lay out and render with caching.
//
// [cache], [config], [errors], [observability], [metrics], [watcher] and
// [buildinfo] - Supporting infrastructure.
//
// # Testing
//
//	go test ./pkg/...           # All tests
//	go test ./pkg/sim/...       # Specific package
//	go test -run Example ./...  # Examples only
package pkg
