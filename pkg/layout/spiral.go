package layout

import (
	"math"

	"github.com/abid8042/chessnetviz/pkg/graph"
	"github.com/abid8042/chessnetviz/pkg/sim"
)

// Spiral guide styling.
const (
	GuideStroke      = "#cbd5e1"
	GuideStrokeWidth = 0.8
	GuideDash        = "2,3"
	minGuidePoints   = 100
)

// Spiral pins nodes, in their given order, along an Archimedean spiral from
// the viewport center outward. Only the link force stays installed.
type Spiral struct {
	Params SpiralParams
}

// Apply implements sim.Engine.
func (e Spiral) Apply(s *sim.Simulation, in sim.Input) {
	p := e.Params
	n := len(in.Nodes)
	if n == 0 {
		s.SetForce(sim.ForceLink, sim.NewLink(nil, p.LinkDistance, p.LinkStrength))
		for _, name := range []string{sim.ForceCharge, sim.ForceCollide, sim.ForceX, sim.ForceY, sim.ForceCenter} {
			s.SetForce(name, nil)
		}
		s.UnpinAll()
		return
	}

	for i, pt := range SpiralPositions(n, in.Dimensions, p) {
		s.Place(i, pt.X, pt.Y)
		s.Pin(i, pt.X, pt.Y)
	}

	s.SetForce(sim.ForceLink, sim.NewLink(in.Links, p.LinkDistance, p.LinkStrength))
	for _, name := range []string{sim.ForceCharge, sim.ForceCollide, sim.ForceX, sim.ForceY, sim.ForceCenter} {
		s.SetForce(name, nil)
	}
}

// SpiralPositions returns the pinned positions of n nodes. Node i sits at
// t = i/(n-1) along a spiral of radius maxR*t and angle 2π*coils*t, where
// maxR = max(0, min(w, h)/2 - margin). A single node sits at the center.
func SpiralPositions(n int, dims graph.Dimensions, p SpiralParams) []graph.Point {
	cx, cy := dims.Center()
	maxR := spiralMaxRadius(dims, p)
	pts := make([]graph.Point, n)
	for i := range pts {
		t, r := 0.5, 0.0
		if n > 1 {
			t = float64(i) / float64(n-1)
			r = maxR * t
		}
		a := 2 * math.Pi * p.Coils * t
		pts[i] = graph.Point{X: cx + r*math.Cos(a), Y: cy + r*math.Sin(a)}
	}
	return pts
}

// SpiralGuide samples the spiral's full path for rendering behind the nodes:
// max(100, 2n)+1 points from the center to the outer end.
func SpiralGuide(n int, dims graph.Dimensions, p SpiralParams) []graph.Point {
	cx, cy := dims.Center()
	maxR := spiralMaxRadius(dims, p)
	steps := max(minGuidePoints, 2*n)
	pts := make([]graph.Point, steps+1)
	for i := range pts {
		t := float64(i) / float64(steps)
		a := 2 * math.Pi * p.Coils * t
		r := maxR * t
		pts[i] = graph.Point{X: cx + r*math.Cos(a), Y: cy + r*math.Sin(a)}
	}
	return pts
}

func spiralMaxRadius(dims graph.Dimensions, p SpiralParams) float64 {
	return math.Max(0, dims.MinDim()/2-p.MaxRadiusMargin)
}
