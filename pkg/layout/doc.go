// Package layout implements the three node positioning strategies as engines
// for the force simulation in [sim].
//
// # Engines
//
// Each engine installs named forces on a simulation whose forces have just
// been cleared:
//
//   - [ForceDirected]: link, charge, collide and center forces. With several
//     connected components, x/y forces pull each component toward its own
//     anchor from [ComponentAnchors].
//   - [Radial]: one concentric ring per group tag ([Rings]), ordered by the
//     active sort, held by a radial force.
//   - [Spiral]: nodes pinned in sort order along an Archimedean spiral
//     ([SpiralPositions]); only a weak link force remains. [SpiralGuide]
//     samples the path for rendering.
//
// # Parameters
//
// [Params] carries one record per layout type with the defaults and ranges
// editors expose through [Definitions]. A *Params implements sim.Registry, so
// the driver always resolves engines configured with the current values:
//
//	params := layout.DefaultParams()
//	_ = params.Set(graph.LayoutSpiral, "coils", 5)
//	driver := sim.NewDriver(nil, &params, logger)
//
// # Node Sizes
//
// [CollisionRadius] and [VisualRadius] scale a piece or empty-square base
// radius by min(width, height)/800, clamped to [0.8, 1.2].
package layout
