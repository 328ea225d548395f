package layout_test

import (
	"fmt"

	"github.com/abid8042/chessnetviz/pkg/graph"
	"github.com/abid8042/chessnetviz/pkg/layout"
)

func ExampleSpiralPositions() {
	dims := graph.Dimensions{Width: 800, Height: 600}
	params := layout.SpiralParams{Coils: 3, MaxRadiusMargin: 40}

	for i, p := range layout.SpiralPositions(3, dims, params) {
		fmt.Printf("%d: (%.1f, %.1f)\n", i, p.X, p.Y)
	}
	// Output:
	// 0: (400.0, 300.0)
	// 1: (270.0, 300.0)
	// 2: (660.0, 300.0)
}
