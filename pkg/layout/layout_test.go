package layout

import (
	"context"
	"math"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/abid8042/chessnetviz/pkg/graph"
	"github.com/abid8042/chessnetviz/pkg/sim"
)

const tol = 1e-9

func node(id string, comp, comm int) graph.Node {
	return graph.Node{ID: id, ComponentID: comp, CommunityID: comm, Metrics: graph.MissingMetrics()}
}

func withMetric(n graph.Node, k graph.MetricKey, v float64) graph.Node {
	n.Metrics[k] = v
	return n
}

func bind(nodes []graph.Node) *sim.Simulation {
	ids := make([]string, len(nodes))
	for i := range nodes {
		ids[i] = nodes[i].ID
	}
	s := sim.New()
	s.SetNodes(ids)
	return s
}

// =============================================================================
// Spiral
// =============================================================================

func TestSpiralThreeNodes(t *testing.T) {
	params := DefaultParams()
	d := sim.NewDriver(nil, &params, nil)
	nodes := []graph.Node{node("a", 0, 0), node("b", 0, 0), node("c", 0, 0)}

	err := d.Configure(sim.Request{
		Nodes:      nodes,
		Layout:     graph.LayoutSpiral,
		Dimensions: graph.Dimensions{Width: 800, Height: 600},
		Sort:       graph.DefaultSort,
	})
	if err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if _, err := d.Run(context.Background(), 10, nil); err != nil {
		t.Fatal(err)
	}

	want := map[string]graph.Point{
		"a": {X: 400, Y: 300},
		"b": {X: 270, Y: 300},
		"c": {X: 660, Y: 300},
	}
	for i := 0; i < d.Sim.Len(); i++ {
		id := d.Sim.ID(i)
		x, y := d.Sim.Position(i)
		if math.Abs(x-want[id].X) > 1e-6 || math.Abs(y-want[id].Y) > 1e-6 {
			t.Errorf("%s at (%v, %v), want %+v", id, x, y, want[id])
		}
		if !d.Sim.Pinned(i) {
			t.Errorf("%s not pinned", id)
		}
	}
	if got := d.Sim.ForceNames(); !reflect.DeepEqual(got, []string{sim.ForceLink}) {
		t.Errorf("forces = %v, want only link", got)
	}
}

func TestSpiralSingleNodeAtCenter(t *testing.T) {
	pts := SpiralPositions(1, graph.Dimensions{Width: 500, Height: 300}, DefaultSpiral)
	if len(pts) != 1 || pts[0] != (graph.Point{X: 250, Y: 150}) {
		t.Errorf("SpiralPositions(1) = %+v, want center", pts)
	}
}

func TestSpiralEmpty(t *testing.T) {
	s := sim.New()
	s.SetForce(sim.ForceCharge, &sim.ManyBody{Strength: -30})
	Spiral{Params: DefaultSpiral}.Apply(s, sim.Input{Dimensions: graph.Dimensions{Width: 100, Height: 100}})

	if got := s.ForceNames(); !reflect.DeepEqual(got, []string{sim.ForceLink}) {
		t.Errorf("forces = %v, want only link", got)
	}
}

func TestSpiralMarginLargerThanViewport(t *testing.T) {
	p := DefaultSpiral
	p.MaxRadiusMargin = 150
	pts := SpiralPositions(4, graph.Dimensions{Width: 200, Height: 200}, p)
	for i, pt := range pts {
		if pt != (graph.Point{X: 100, Y: 100}) {
			t.Errorf("point %d = %+v, want center when radius collapses", i, pt)
		}
	}
}

func TestSpiralGuide(t *testing.T) {
	dims := graph.Dimensions{Width: 800, Height: 600}
	tests := []struct {
		n    int
		want int
	}{
		{0, 101},
		{10, 101},
		{50, 101},
		{80, 161},
	}
	for _, tt := range tests {
		if got := len(SpiralGuide(tt.n, dims, DefaultSpiral)); got != tt.want {
			t.Errorf("len(SpiralGuide(%d)) = %d, want %d", tt.n, got, tt.want)
		}
	}

	g := SpiralGuide(3, dims, DefaultSpiral)
	if g[0] != (graph.Point{X: 400, Y: 300}) {
		t.Errorf("guide starts at %+v, want center", g[0])
	}
	last := g[len(g)-1]
	if math.Abs(last.X-660) > 1e-6 || math.Abs(last.Y-300) > 1e-6 {
		t.Errorf("guide ends at %+v, want (660, 300)", last)
	}
}

func TestSpiralProperties(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("positions are deterministic", prop.ForAll(
		func(n int, w, h, coils float64) bool {
			dims := graph.Dimensions{Width: w, Height: h}
			p := DefaultSpiral
			p.Coils = coils
			return reflect.DeepEqual(SpiralPositions(n, dims, p), SpiralPositions(n, dims, p))
		},
		gen.IntRange(0, 64),
		gen.Float64Range(1, 3000),
		gen.Float64Range(1, 3000),
		gen.Float64Range(1, 10),
	))

	properties.Property("distance from center grows with order", prop.ForAll(
		func(n int, w, h float64) bool {
			dims := graph.Dimensions{Width: w, Height: h}
			cx, cy := dims.Center()
			prev := -1.0
			for _, pt := range SpiralPositions(n, dims, DefaultSpiral) {
				r := math.Hypot(pt.X-cx, pt.Y-cy)
				if r < prev-1e-6 {
					return false
				}
				prev = r
			}
			return true
		},
		gen.IntRange(2, 64),
		gen.Float64Range(1, 3000),
		gen.Float64Range(1, 3000),
	))

	properties.TestingRun(t)
}

// =============================================================================
// Force-Directed
// =============================================================================

func TestForceDirectedSingleComponent(t *testing.T) {
	nodes := []graph.Node{node("a", 0, 0), node("b", 0, 1)}
	s := bind(nodes)
	p := DefaultForceDirected

	ForceDirected{Params: p}.Apply(s, sim.Input{
		Nodes:      nodes,
		Dimensions: graph.Dimensions{Width: 800, Height: 600},
	})

	want := []string{sim.ForceLink, sim.ForceCharge, sim.ForceCollide, sim.ForceCenter}
	if got := s.ForceNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("forces = %v, want %v", got, want)
	}
	c := s.Force(sim.ForceCenter).(*sim.Center)
	if c.Strength != p.CenterStrength || c.X != 400 || c.Y != 300 {
		t.Errorf("center = %+v, want full strength at (400, 300)", c)
	}
	l := s.Force(sim.ForceLink).(*sim.Link)
	if l.Distance != p.LinkDistance || l.Strength != p.LinkStrength {
		t.Errorf("link = %v/%v", l.Distance, l.Strength)
	}
}

func TestForceDirectedComponents(t *testing.T) {
	nodes := []graph.Node{node("a", 7, 0), node("b", 2, 0), node("c", 7, 1)}
	s := bind(nodes)
	p := DefaultForceDirected

	ForceDirected{Params: p}.Apply(s, sim.Input{
		Nodes:      nodes,
		Dimensions: graph.Dimensions{Width: 800, Height: 600},
	})

	if s.Force(sim.ForceX) == nil || s.Force(sim.ForceY) == nil {
		t.Fatal("x/y forces missing with two components")
	}
	if c := s.Force(sim.ForceCenter).(*sim.Center); c.Strength != p.CenterStrength/2 {
		t.Errorf("center strength = %v, want %v", c.Strength, p.CenterStrength/2)
	}
	fx := s.Force(sim.ForceX).(*sim.PositionX)
	fy := s.Force(sim.ForceY).(*sim.PositionY)
	if fx.Strength != p.ComponentCenterStrength {
		t.Errorf("x strength = %v", fx.Strength)
	}
	// two components: radius 600/2.5 = 240, first-seen component at angle 0
	wantX := []float64{640, 160, 640}
	for i, w := range wantX {
		if math.Abs(fx.Targets[i]-w) > 1e-6 || math.Abs(fy.Targets[i]-300) > 1e-6 {
			t.Errorf("target %d = (%v, %v), want (%v, 300)", i, fx.Targets[i], fy.Targets[i], w)
		}
	}
}

func TestComponentAnchorsThree(t *testing.T) {
	nodes := []graph.Node{node("a", 0, 0), node("b", 1, 0), node("c", 2, 0)}
	anchors := ComponentAnchors(nodes, 900, 600)
	if len(anchors) != 3 {
		t.Fatalf("len = %d", len(anchors))
	}
	cx, cy := 450.0, 300.0
	for id, a := range anchors {
		if r := math.Hypot(a.X-cx, a.Y-cy); math.Abs(r-200) > 1e-6 {
			t.Errorf("component %d at radius %v, want 200", id, r)
		}
	}
}

// =============================================================================
// Radial
// =============================================================================

func TestGroupOrder(t *testing.T) {
	nodes := []graph.Node{
		withMetric(node("a", 1, 0), graph.InDegreeCentrality, 0.9),
		withMetric(node("b", 0, 2), graph.InDegreeCentrality, 0.1),
		withMetric(node("c", 0, 10), graph.InDegreeCentrality, 0.5),
		node("d", 0, 10),
		withMetric(node("e", 10, 0), graph.InDegreeCentrality, 0.3),
	}

	tests := []struct {
		name string
		sort graph.SortConfig
		want []string
	}{
		{"string asc", graph.SortConfig{Key: "id", Order: graph.SortAsc}, []string{"0-10", "0-2", "1-0", "10-0"}},
		{"string desc", graph.SortConfig{Key: "id", Order: graph.SortDesc}, []string{"10-0", "1-0", "0-2", "0-10"}},
		{"component asc keeps ties in appearance order", graph.SortConfig{Key: "component_id", Order: graph.SortAsc}, []string{"0-2", "0-10", "1-0", "10-0"}},
		{"component desc", graph.SortConfig{Key: "component_id", Order: graph.SortDesc}, []string{"10-0", "1-0", "0-2", "0-10"}},
		{"community asc", graph.SortConfig{Key: "community_id", Order: graph.SortAsc}, []string{"0-2", "0-10", "1-0", "10-0"}},
		{"community desc", graph.SortConfig{Key: "community_id", Order: graph.SortDesc}, []string{"10-0", "1-0", "0-10", "0-2"}},
		// group 0-10 averages (0.5 + missing as 0) / 2 = 0.25
		{"metric asc", graph.SortConfig{Key: "in_degree_centrality", Order: graph.SortAsc}, []string{"0-2", "0-10", "10-0", "1-0"}},
		{"metric desc", graph.SortConfig{Key: "in_degree_centrality", Order: graph.SortDesc}, []string{"1-0", "10-0", "0-10", "0-2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GroupOrder(nodes, tt.sort); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("GroupOrder() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRingRadii(t *testing.T) {
	dims := graph.Dimensions{Width: 800, Height: 600}
	tests := []struct {
		name   string
		n      int
		params RadialParams
		want   []float64
	}{
		{"none", 0, DefaultRadial, []float64{}},
		{"one ring at half outer", 1, DefaultRadial, []float64{120}},
		{"three rings", 3, DefaultRadial, []float64{72, 156, 240}},
		{"inner beyond outer collapses", 3, RadialParams{RingMinRadiusFactor: 10, MaxOuterRadiusFactor: 5}, []float64{180, 180, 180}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RingRadii(tt.n, dims, tt.params)
			if len(got) != len(tt.want) {
				t.Fatalf("RingRadii() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if math.Abs(got[i]-tt.want[i]) > tol {
					t.Errorf("ring %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestRadialForces(t *testing.T) {
	nodes := []graph.Node{node("a", 0, 0), node("b", 0, 1), node("c", 0, 0)}
	s := bind(nodes)
	p := DefaultRadial

	Radial{Params: p}.Apply(s, sim.Input{
		Nodes:      nodes,
		Dimensions: graph.Dimensions{Width: 800, Height: 600},
		Sort:       graph.DefaultSort,
	})

	want := []string{sim.ForceLink, sim.ForceCharge, sim.ForceCollide, sim.ForceRadial, sim.ForceCenter}
	if got := s.ForceNames(); !reflect.DeepEqual(got, want) {
		t.Fatalf("forces = %v, want %v", got, want)
	}
	l := s.Force(sim.ForceLink).(*sim.Link)
	if math.Abs(l.Distance-20) > tol || math.Abs(l.Strength-0.063) > tol {
		t.Errorf("link = %v/%v, want 20/0.063", l.Distance, l.Strength)
	}
	r := s.Force(sim.ForceRadial).(*sim.Radial)
	if r.X != 400 || r.Y != 300 || r.Strength != p.RadialStrength {
		t.Errorf("radial = %+v", r)
	}
	// two rings: "0-0" inner at 72, "0-1" outer at 240
	wantRadii := []float64{72, 240, 72}
	for i, w := range wantRadii {
		if math.Abs(r.Radii[i]-w) > tol {
			t.Errorf("target radius %d = %v, want %v", i, r.Radii[i], w)
		}
	}
	if c := s.Force(sim.ForceCenter).(*sim.Center); c.Strength != 0.02 {
		t.Errorf("center strength = %v, want 0.02", c.Strength)
	}
	if c := s.Force(sim.ForceCollide).(*sim.Collide); c.Strength != DefaultForceDirected.CollideStrength {
		t.Errorf("collide strength = %v, want force-directed default %v", c.Strength, DefaultForceDirected.CollideStrength)
	}
	wantDist := DefaultForceDirected.LinkDistance * p.LinkDistanceFactor
	wantStrength := DefaultForceDirected.LinkStrength * p.LinkStrengthFactor
	if l.Distance != wantDist || l.Strength != wantStrength {
		t.Errorf("link = %v/%v, want force-directed defaults scaled: %v/%v", l.Distance, l.Strength, wantDist, wantStrength)
	}
}

func TestRingOrdinalityProperty(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("ring radii never decrease and never go negative", prop.ForAll(
		func(n int, w, h, minFactor, outerFactor float64) bool {
			p := RadialParams{RingMinRadiusFactor: minFactor, MaxOuterRadiusFactor: outerFactor}
			radii := RingRadii(n, graph.Dimensions{Width: w, Height: h}, p)
			for i, r := range radii {
				if r < 0 || (i > 0 && r < radii[i-1]) {
					return false
				}
			}
			return len(radii) == n
		},
		gen.IntRange(0, 40),
		gen.Float64Range(1, 3000),
		gen.Float64Range(1, 3000),
		gen.Float64Range(1, 10),
		gen.Float64Range(1.5, 5),
	))

	properties.Property("every group gets a ring", prop.ForAll(
		func(comps []int) bool {
			nodes := make([]graph.Node, len(comps))
			for i, c := range comps {
				nodes[i] = node(string(rune('a'+i%26))+string(rune('0'+i/26)), c, c%3)
			}
			rings := Rings(nodes, graph.DefaultSort, graph.Dimensions{Width: 800, Height: 800}, DefaultRadial)
			for i := range nodes {
				if _, ok := rings[nodes[i].GroupTag()]; !ok {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 6)),
	))

	properties.TestingRun(t)
}
