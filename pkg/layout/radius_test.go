package layout

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/abid8042/chessnetviz/pkg/graph"
)

func TestCollisionRadius(t *testing.T) {
	tests := []struct {
		name     string
		hasPiece bool
		dims     graph.Dimensions
		want     float64
	}{
		{"unmeasured piece", true, graph.Dimensions{}, 18},
		{"unmeasured empty", false, graph.Dimensions{Width: 500}, 13},
		{"reference piece", true, graph.Dimensions{Width: 800, Height: 800}, 18},
		{"small clamps up", true, graph.Dimensions{Width: 800, Height: 600}, 16*0.8 + 2},
		{"large clamps down", false, graph.Dimensions{Width: 2000, Height: 1500}, 11*1.2 + 2},
		{"in range", true, graph.Dimensions{Width: 900, Height: 1200}, 16*1.125 + 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CollisionRadius(tt.hasPiece, tt.dims); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CollisionRadius() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVisualRadius(t *testing.T) {
	tests := []struct {
		name     string
		hasPiece bool
		dims     graph.Dimensions
		want     float64
	}{
		{"unmeasured piece", true, graph.Dimensions{}, 20},
		{"unmeasured empty", false, graph.Dimensions{}, 14},
		{"reference", true, graph.Dimensions{Width: 800, Height: 800}, 20},
		{"small", false, graph.Dimensions{Width: 300, Height: 300}, 14 * 0.8},
		{"large", true, graph.Dimensions{Width: 1200, Height: 1000}, 24},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VisualRadius(tt.hasPiece, tt.dims); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("VisualRadius() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRadiusClampProperty(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("collision radius stays inside the clamp band", prop.ForAll(
		func(w, h float64, hasPiece bool) bool {
			base := PhysicsRadiusEmpty
			if hasPiece {
				base = PhysicsRadiusPiece
			}
			r := CollisionRadius(hasPiece, graph.Dimensions{Width: w, Height: h})
			return r >= base*ScaleMin+CollidePadding-1e-9 && r <= base*ScaleMax+CollidePadding+1e-9
		},
		gen.Float64Range(1, 5000),
		gen.Float64Range(1, 5000),
		gen.Bool(),
	))

	properties.Property("pieces are never smaller than empty squares", prop.ForAll(
		func(w, h float64) bool {
			d := graph.Dimensions{Width: w, Height: h}
			return VisualRadius(true, d) > VisualRadius(false, d) &&
				CollisionRadius(true, d) > CollisionRadius(false, d)
		},
		gen.Float64Range(0, 5000),
		gen.Float64Range(0, 5000),
	))

	properties.TestingRun(t)
}
