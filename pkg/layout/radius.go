package layout

import (
	"math"

	"github.com/abid8042/chessnetviz/pkg/graph"
)

// Node size constants shared by physics and rendering.
const (
	PhysicsRadiusPiece = 16.0
	PhysicsRadiusEmpty = 11.0
	CollidePadding     = 2.0

	VisualRadiusPiece = 20.0
	VisualRadiusEmpty = 14.0

	ScaleReference = 800.0
	ScaleMin       = 0.8
	ScaleMax       = 1.2
)

// Scale returns the node scaling factor for a viewport: min(w, h) relative to
// ScaleReference, clamped to [ScaleMin, ScaleMax]. A viewport with a zero
// side scales by 1.
func Scale(dims graph.Dimensions) float64 {
	if dims.Width == 0 || dims.Height == 0 {
		return 1
	}
	s := dims.MinDim() / ScaleReference
	return math.Max(ScaleMin, math.Min(ScaleMax, s))
}

// CollisionRadius is the radius the collide force uses for a node.
func CollisionRadius(hasPiece bool, dims graph.Dimensions) float64 {
	base := PhysicsRadiusEmpty
	if hasPiece {
		base = PhysicsRadiusPiece
	}
	return base*Scale(dims) + CollidePadding
}

// VisualRadius is the rendered circle radius for a node.
func VisualRadius(hasPiece bool, dims graph.Dimensions) float64 {
	base := VisualRadiusEmpty
	if hasPiece {
		base = VisualRadiusPiece
	}
	return base * Scale(dims)
}

func collisionRadii(nodes []graph.Node, dims graph.Dimensions) []float64 {
	radii := make([]float64, len(nodes))
	for i := range nodes {
		radii[i] = CollisionRadius(nodes[i].HasPiece, dims)
	}
	return radii
}
