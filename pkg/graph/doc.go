// Package graph provides the shared data model for chess influence graphs.
//
// This package defines the node and link types consumed by every other part
// of chessnetviz (layout engines, the simulation, the scene, the sinks) and
// the canonical wire format for positioned scenes.
//
// # Architecture
//
// The package sits between the dataset loader and the visualization core:
//
//   - pkg/dataset: decodes raw move data and produces [Node] and [Link] values
//   - pkg/layout, pkg/sim: position nodes for one move scope
//   - pkg/scene: reconciles positioned nodes into keyed visual elements
//   - [Snapshot]: serializable result of a run (this package)
//
// # Core Types
//
//   - [Node]: one board square, its optional piece and eight graph metrics
//   - [Link]: a directed influence edge between two squares
//   - [Metrics]: fixed-size metric record where NaN marks an absent value
//   - [Dimensions]: viewport size in layout units
//   - [Snapshot]: positioned nodes and links with style state and fit transform
//
// # Constants
//
// This package is the single source of truth for layout types, scopes and
// metric keys:
//
//	graph.LayoutForceDirected // "force-directed"
//	graph.LayoutRadial        // "radial"
//	graph.LayoutSpiral        // "spiral"
//	graph.ScopeCombined       // "combined"
//
// # Snapshot Serialization
//
// Snapshots use pretty-printed JSON:
//
//	data, err := graph.MarshalSnapshot(snap)
//	snap, err := graph.ReadSnapshotFile("move_12.json")
package graph
