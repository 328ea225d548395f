package sim

import (
	"math"

	"github.com/abid8042/chessnetviz/pkg/graph"
)

// Force acts on the bodies of a simulation once per tick.
type Force interface {
	// Initialize binds the force to the simulation's current bodies. It is
	// called when the force is installed and whenever the bodies change.
	Initialize(s *Simulation)

	// Apply adjusts velocities (or positions) for one tick at energy alpha.
	Apply(s *Simulation, alpha float64)
}

// Force names used by the layout engines.
const (
	ForceLink    = "link"
	ForceCharge  = "charge"
	ForceCollide = "collide"
	ForceCenter  = "center"
	ForceX       = "x"
	ForceY       = "y"
	ForceRadial  = "r"
)

// =============================================================================
// Link
// =============================================================================

// Link pulls linked bodies toward Distance apart with the given Strength.
// Links with an endpoint missing from the simulation are dropped silently.
type Link struct {
	Distance float64
	Strength float64

	links []graph.Link
	sim   *Simulation
	edges []edge
}

type edge struct {
	source, target int
	bias           float64
}

// NewLink creates a link force over links.
func NewLink(links []graph.Link, distance, strength float64) *Link {
	return &Link{Distance: distance, Strength: strength, links: links}
}

// SetLinks replaces the link list and re-resolves endpoints.
func (f *Link) SetLinks(links []graph.Link) {
	f.links = links
	if f.sim != nil {
		f.Initialize(f.sim)
	}
}

// Links returns the links currently bound to simulation bodies.
func (f *Link) Links() []graph.Link {
	out := make([]graph.Link, 0, len(f.edges))
	for _, e := range f.edges {
		out = append(out, graph.Link{Source: f.sim.ID(e.source), Target: f.sim.ID(e.target)})
	}
	return out
}

// Initialize resolves link endpoints to body indices.
func (f *Link) Initialize(s *Simulation) {
	f.sim = s
	f.edges = f.edges[:0]
	count := make([]int, s.Len())
	for _, l := range f.links {
		si, ok := s.Index(l.Source)
		if !ok {
			continue
		}
		ti, ok := s.Index(l.Target)
		if !ok {
			continue
		}
		count[si]++
		count[ti]++
		f.edges = append(f.edges, edge{source: si, target: ti})
	}
	for k := range f.edges {
		e := &f.edges[k]
		e.bias = float64(count[e.source]) / float64(count[e.source]+count[e.target])
	}
}

// Apply moves each linked pair toward the rest distance, splitting the
// correction by relative degree.
func (f *Link) Apply(s *Simulation, alpha float64) {
	for _, e := range f.edges {
		x := s.x[e.target] + s.vx[e.target] - s.x[e.source] - s.vx[e.source]
		if x == 0 {
			x = s.jiggle()
		}
		y := s.y[e.target] + s.vy[e.target] - s.y[e.source] - s.vy[e.source]
		if y == 0 {
			y = s.jiggle()
		}
		l := math.Sqrt(x*x + y*y)
		l = (l - f.Distance) / l * alpha * f.Strength
		x, y = x*l, y*l

		b := e.bias
		s.vx[e.target] -= x * b
		s.vy[e.target] -= y * b
		b = 1 - b
		s.vx[e.source] += x * b
		s.vy[e.source] += y * b
	}
}

// =============================================================================
// Collide
// =============================================================================

// Collide treats bodies as circles of per-body radius and pushes overlapping
// pairs apart. Radii is indexed in body order; missing entries count as 0.
type Collide struct {
	Radii    []float64
	Strength float64
}

// Initialize is a no-op; radii are supplied by the layout engine.
func (f *Collide) Initialize(*Simulation) {}

// Apply resolves overlaps using positions predicted from current velocities.
func (f *Collide) Apply(s *Simulation, _ float64) {
	n := s.Len()
	for i := 0; i < n; i++ {
		ri := f.radius(i)
		ri2 := ri * ri
		xi := s.x[i] + s.vx[i]
		yi := s.y[i] + s.vy[i]
		for j := i + 1; j < n; j++ {
			rj := f.radius(j)
			r := ri + rj
			x := xi - s.x[j] - s.vx[j]
			y := yi - s.y[j] - s.vy[j]
			l := x*x + y*y
			if l >= r*r {
				continue
			}
			if x == 0 {
				x = s.jiggle()
				l += x * x
			}
			if y == 0 {
				y = s.jiggle()
				l += y * y
			}
			l = math.Sqrt(l)
			l = (r - l) / l * f.Strength
			x, y = x*l, y*l
			rj2 := rj * rj
			frac := rj2 / (ri2 + rj2)
			s.vx[i] += x * frac
			s.vy[i] += y * frac
			s.vx[j] -= x * (1 - frac)
			s.vy[j] -= y * (1 - frac)
		}
	}
}

func (f *Collide) radius(i int) float64 {
	if i < len(f.Radii) {
		return f.Radii[i]
	}
	return 0
}

// =============================================================================
// Center
// =============================================================================

// Center translates all bodies so their mean moves toward (X, Y).
type Center struct {
	X, Y     float64
	Strength float64
}

// Initialize is a no-op.
func (f *Center) Initialize(*Simulation) {}

// Apply shifts every position by the scaled offset of the mean from center.
func (f *Center) Apply(s *Simulation, _ float64) {
	n := s.Len()
	if n == 0 {
		return
	}
	var sx, sy float64
	for i := 0; i < n; i++ {
		sx += s.x[i]
		sy += s.y[i]
	}
	sx = (sx/float64(n) - f.X) * f.Strength
	sy = (sy/float64(n) - f.Y) * f.Strength
	for i := 0; i < n; i++ {
		s.x[i] -= sx
		s.y[i] -= sy
	}
}

// =============================================================================
// Axis and Radial Targets
// =============================================================================

// PositionX pulls each body's x toward Targets[i].
type PositionX struct {
	Targets  []float64
	Strength float64
}

// Initialize is a no-op.
func (f *PositionX) Initialize(*Simulation) {}

// Apply nudges horizontal velocity toward the target.
func (f *PositionX) Apply(s *Simulation, alpha float64) {
	for i := 0; i < s.Len() && i < len(f.Targets); i++ {
		s.vx[i] += (f.Targets[i] - s.x[i]) * f.Strength * alpha
	}
}

// PositionY pulls each body's y toward Targets[i].
type PositionY struct {
	Targets  []float64
	Strength float64
}

// Initialize is a no-op.
func (f *PositionY) Initialize(*Simulation) {}

// Apply nudges vertical velocity toward the target.
func (f *PositionY) Apply(s *Simulation, alpha float64) {
	for i := 0; i < s.Len() && i < len(f.Targets); i++ {
		s.vy[i] += (f.Targets[i] - s.y[i]) * f.Strength * alpha
	}
}

// Radial pulls each body toward the circle of radius Radii[i] around (X, Y).
type Radial struct {
	Radii    []float64
	X, Y     float64
	Strength float64
}

// Initialize is a no-op.
func (f *Radial) Initialize(*Simulation) {}

// Apply moves bodies along the ray from the center toward their ring.
func (f *Radial) Apply(s *Simulation, alpha float64) {
	for i := 0; i < s.Len() && i < len(f.Radii); i++ {
		dx := s.x[i] - f.X
		if dx == 0 {
			dx = 1e-6
		}
		dy := s.y[i] - f.Y
		if dy == 0 {
			dy = 1e-6
		}
		r := math.Sqrt(dx*dx + dy*dy)
		k := (f.Radii[i] - r) * f.Strength * alpha / r
		s.vx[i] += dx * k
		s.vy[i] += dy * k
	}
}
