package layout

import (
	"math"
	"sort"
	"strings"

	"github.com/abid8042/chessnetviz/pkg/graph"
	"github.com/abid8042/chessnetviz/pkg/sim"
)

// radialCenterStrength is the weak whole-graph centering of radial layouts.
// Link and collide values come from DefaultForceDirected, with links scaled
// by the RadialParams factors.
const radialCenterStrength = 0.02

// Radial places each group tag on its own concentric ring, ordered by the
// active sort, and lets physics spread nodes along the rings.
type Radial struct {
	Params RadialParams
}

// Apply implements sim.Engine.
func (e Radial) Apply(s *sim.Simulation, in sim.Input) {
	p := e.Params
	cx, cy := in.Dimensions.Center()

	rings := Rings(in.Nodes, in.Sort, in.Dimensions, p)
	fallback := maxOuterRadius(in.Dimensions, p) / 2
	targets := make([]float64, len(in.Nodes))
	for i := range in.Nodes {
		r, ok := rings[in.Nodes[i].GroupTag()]
		if !ok {
			r = fallback
		}
		targets[i] = r
	}

	s.SetForce(sim.ForceLink, sim.NewLink(in.Links,
		DefaultForceDirected.LinkDistance*p.LinkDistanceFactor,
		DefaultForceDirected.LinkStrength*p.LinkStrengthFactor))
	s.SetForce(sim.ForceCharge, &sim.ManyBody{Strength: p.ChargeStrength})
	s.SetForce(sim.ForceCollide, &sim.Collide{
		Radii:    collisionRadii(in.Nodes, in.Dimensions),
		Strength: DefaultForceDirected.CollideStrength,
	})
	s.SetForce(sim.ForceRadial, &sim.Radial{Radii: targets, X: cx, Y: cy, Strength: p.RadialStrength})
	s.SetForce(sim.ForceCenter, &sim.Center{X: cx, Y: cy, Strength: radialCenterStrength})
	s.SetForce(sim.ForceX, nil)
	s.SetForce(sim.ForceY, nil)
}

func maxOuterRadius(dims graph.Dimensions, p RadialParams) float64 {
	return dims.MinDim() / p.MaxOuterRadiusFactor
}

// GroupOrder returns the distinct group tags of nodes in ring order.
//
// A metric sort key orders groups by their average metric, counting missing
// values as 0 but still dividing by the full group size. "component_id"
// orders by component, "community_id" by component then community, and any
// other key compares tags as strings. Descending order reverses each
// comparison; ties keep first-appearance order.
func GroupOrder(nodes []graph.Node, sortCfg graph.SortConfig) []string {
	var tags []string
	members := make(map[string][]int)
	for i := range nodes {
		tag := nodes[i].GroupTag()
		if _, ok := members[tag]; !ok {
			tags = append(tags, tag)
		}
		members[tag] = append(members[tag], i)
	}

	sign := sortCfg.Sign()
	var less func(a, b string) bool

	if k, ok := graph.ParseMetricKey(sortCfg.Key); ok {
		avg := make(map[string]float64, len(tags))
		for _, tag := range tags {
			var sum float64
			for _, i := range members[tag] {
				if v, ok := nodes[i].Metric(k); ok {
					sum += v
				}
			}
			avg[tag] = sum / float64(len(members[tag]))
		}
		less = func(a, b string) bool { return (avg[a]-avg[b])*sign < 0 }
	} else {
		switch sortCfg.Key {
		case "component_id":
			less = func(a, b string) bool {
				ca, _ := graph.SplitGroupTag(a)
				cb, _ := graph.SplitGroupTag(b)
				return float64(ca-cb)*sign < 0
			}
		case "community_id":
			less = func(a, b string) bool {
				ca, ma := graph.SplitGroupTag(a)
				cb, mb := graph.SplitGroupTag(b)
				if ca != cb {
					return float64(ca-cb)*sign < 0
				}
				return float64(ma-mb)*sign < 0
			}
		default:
			less = func(a, b string) bool { return float64(strings.Compare(a, b))*sign < 0 }
		}
	}

	sort.SliceStable(tags, func(i, j int) bool { return less(tags[i], tags[j]) })
	return tags
}

// Rings assigns a ring radius to every group tag. A single ring sits at half
// the maximum outer radius. Several rings run evenly from an inner radius of
// (largest physics radius + padding) * RingMinRadiusFactor out to the
// maximum outer radius, min(w, h) / MaxOuterRadiusFactor.
func Rings(nodes []graph.Node, sortCfg graph.SortConfig, dims graph.Dimensions, p RadialParams) map[string]float64 {
	tags := GroupOrder(nodes, sortCfg)
	radii := RingRadii(len(tags), dims, p)
	out := make(map[string]float64, len(tags))
	for i, tag := range tags {
		out[tag] = radii[i]
	}
	return out
}

// RingRadii returns n ring radii, innermost first.
func RingRadii(n int, dims graph.Dimensions, p RadialParams) []float64 {
	radii := make([]float64, n)
	outer := maxOuterRadius(dims, p)
	if n == 1 {
		radii[0] = math.Max(0, outer/2)
		return radii
	}
	inner := (math.Max(PhysicsRadiusPiece, PhysicsRadiusEmpty) + CollidePadding) * p.RingMinRadiusFactor
	spacing := 0.0
	if avail := outer - inner; avail > 0 {
		spacing = avail / float64(n-1)
	}
	for i := range radii {
		radii[i] = math.Max(0, inner+spacing*float64(i))
	}
	return radii
}
