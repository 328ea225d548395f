package layout

import (
	"math"

	"github.com/abid8042/chessnetviz/pkg/graph"
	"github.com/abid8042/chessnetviz/pkg/sim"
)

// ForceDirected is a free physics layout. When the visible graph has more
// than one component, each component is pulled toward its own anchor on a
// circle around the viewport center.
type ForceDirected struct {
	Params ForceDirectedParams
}

// Apply implements sim.Engine.
func (e ForceDirected) Apply(s *sim.Simulation, in sim.Input) {
	p := e.Params
	w, h := in.Dimensions.Width, in.Dimensions.Height
	cx, cy := in.Dimensions.Center()

	s.SetForce(sim.ForceLink, sim.NewLink(in.Links, p.LinkDistance, p.LinkStrength))
	s.SetForce(sim.ForceCharge, &sim.ManyBody{Strength: p.ChargeStrength})
	s.SetForce(sim.ForceCollide, &sim.Collide{
		Radii:    collisionRadii(in.Nodes, in.Dimensions),
		Strength: p.CollideStrength,
	})
	s.SetForce(sim.ForceCenter, &sim.Center{X: cx, Y: cy, Strength: p.CenterStrength / 2})

	anchors := ComponentAnchors(in.Nodes, w, h)
	if len(anchors) <= 1 {
		s.SetForce(sim.ForceX, nil)
		s.SetForce(sim.ForceY, nil)
		s.SetForce(sim.ForceCenter, &sim.Center{X: cx, Y: cy, Strength: p.CenterStrength})
		return
	}

	tx := make([]float64, len(in.Nodes))
	ty := make([]float64, len(in.Nodes))
	for i := range in.Nodes {
		a := anchors[in.Nodes[i].ComponentID]
		tx[i], ty[i] = a.X, a.Y
	}
	s.SetForce(sim.ForceX, &sim.PositionX{Targets: tx, Strength: p.ComponentCenterStrength})
	s.SetForce(sim.ForceY, &sim.PositionY{Targets: ty, Strength: p.ComponentCenterStrength})
}

// ComponentAnchors places the distinct component ids of nodes, in order of
// first appearance, evenly on a circle around the viewport center. The
// circle radius is min(w, h)/3 for more than two components and
// min(w, h)/2.5 for two. A single component sits at the center.
func ComponentAnchors(nodes []graph.Node, w, h float64) map[int]graph.Point {
	var ids []int
	seen := make(map[int]bool)
	for i := range nodes {
		id := nodes[i].ComponentID
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	cx, cy := w/2, h/2
	anchors := make(map[int]graph.Point, len(ids))
	if len(ids) == 1 {
		anchors[ids[0]] = graph.Point{X: cx, Y: cy}
		return anchors
	}

	div := 2.5
	if len(ids) > 2 {
		div = 3
	}
	r := math.Min(w, h) / div
	for i, id := range ids {
		a := float64(i) / float64(len(ids)) * 2 * math.Pi
		anchors[id] = graph.Point{X: cx + r*math.Cos(a), Y: cy + r*math.Sin(a)}
	}
	return anchors
}
