package sim

import (
	"context"
	"math"
	"math/rand"
)

// Defaults match the conventional force-simulation constants.
const (
	DefaultAlphaMin      = 0.001
	DefaultVelocityDecay = 0.4
	DefaultSeed          = 42

	// RestartAlpha is the energy a reconfiguration reheats to.
	RestartAlpha = 0.3

	initialRadius = 10.0
)

var (
	// DefaultAlphaDecay brings alpha from 1 to alphaMin in 300 ticks.
	DefaultAlphaDecay = 1 - math.Pow(DefaultAlphaMin, 1.0/300)

	initialAngle = math.Pi * (3 - math.Sqrt(5))
)

// Simulation is a long-lived force simulation over an arena of bodies.
// It is not safe for concurrent use.
type Simulation struct {
	ids   []string
	index map[string]int

	x, y, vx, vy []float64
	fx, fy       []float64
	pinned       []bool

	names  []string
	forces map[string]Force

	alpha         float64
	alphaMin      float64
	alphaDecay    float64
	alphaTarget   float64
	velocityDecay float64

	rng *rand.Rand
	seq uint64
}

// Option configures a Simulation.
type Option func(*Simulation)

// WithSeed seeds the jitter source used to separate coincident bodies.
func WithSeed(seed int64) Option {
	return func(s *Simulation) { s.rng = rand.New(rand.NewSource(seed)) }
}

// WithAlphaMin sets the energy below which iteration stops.
func WithAlphaMin(v float64) Option {
	return func(s *Simulation) { s.alphaMin = v }
}

// WithAlphaDecay sets the per-tick alpha decay rate.
func WithAlphaDecay(v float64) Option {
	return func(s *Simulation) { s.alphaDecay = v }
}

// WithVelocityDecay sets the fraction of velocity lost each tick.
func WithVelocityDecay(v float64) Option {
	return func(s *Simulation) { s.velocityDecay = v }
}

// New creates an empty simulation with alpha at 1.
func New(opts ...Option) *Simulation {
	s := &Simulation{
		index:         make(map[string]int),
		forces:        make(map[string]Force),
		alpha:         1,
		alphaMin:      DefaultAlphaMin,
		alphaDecay:    DefaultAlphaDecay,
		velocityDecay: DefaultVelocityDecay,
		rng:           rand.New(rand.NewSource(DefaultSeed)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// =============================================================================
// Bodies
// =============================================================================

// SetNodes rebinds the arena to ids, in order. Bodies whose id survives keep
// their position, velocity and pin; new bodies are placed on a phyllotaxis
// spiral around the origin. Every installed force is re-initialized.
func (s *Simulation) SetNodes(ids []string) {
	n := len(ids)
	x, y := make([]float64, n), make([]float64, n)
	vx, vy := make([]float64, n), make([]float64, n)
	fx, fy := make([]float64, n), make([]float64, n)
	pinned := make([]bool, n)
	index := make(map[string]int, n)

	for i, id := range ids {
		index[id] = i
		if j, ok := s.index[id]; ok {
			x[i], y[i] = s.x[j], s.y[j]
			vx[i], vy[i] = s.vx[j], s.vy[j]
			fx[i], fy[i], pinned[i] = s.fx[j], s.fy[j], s.pinned[j]
			continue
		}
		r := initialRadius * math.Sqrt(0.5+float64(i))
		a := float64(i) * initialAngle
		x[i], y[i] = r*math.Cos(a), r*math.Sin(a)
	}

	s.ids = append(s.ids[:0:0], ids...)
	s.index = index
	s.x, s.y, s.vx, s.vy = x, y, vx, vy
	s.fx, s.fy, s.pinned = fx, fy, pinned

	for _, name := range s.names {
		s.forces[name].Initialize(s)
	}
}

// Len returns the number of bodies.
func (s *Simulation) Len() int { return len(s.ids) }

// ID returns the id of body i.
func (s *Simulation) ID(i int) string { return s.ids[i] }

// Index returns the body index for id.
func (s *Simulation) Index(id string) (int, bool) {
	i, ok := s.index[id]
	return i, ok
}

// Position returns the current position of body i.
func (s *Simulation) Position(i int) (x, y float64) { return s.x[i], s.y[i] }

// Velocity returns the current velocity of body i.
func (s *Simulation) Velocity(i int) (vx, vy float64) { return s.vx[i], s.vy[i] }

// Place moves body i to (x, y) without pinning it.
func (s *Simulation) Place(i int, x, y float64) {
	s.x[i], s.y[i] = x, y
}

// Pin fixes body i at (x, y); forces no longer move it.
func (s *Simulation) Pin(i int, x, y float64) {
	s.fx[i], s.fy[i], s.pinned[i] = x, y, true
}

// Unpin releases body i.
func (s *Simulation) Unpin(i int) {
	s.pinned[i] = false
}

// UnpinAll releases every body.
func (s *Simulation) UnpinAll() {
	for i := range s.pinned {
		s.pinned[i] = false
	}
}

// Pinned reports whether body i is pinned.
func (s *Simulation) Pinned(i int) bool { return s.pinned[i] }

// =============================================================================
// Forces
// =============================================================================

// SetForce installs f under name, replacing any previous force of that name
// in place. A nil force removes the name.
func (s *Simulation) SetForce(name string, f Force) {
	if f == nil {
		if _, ok := s.forces[name]; ok {
			delete(s.forces, name)
			for i, n := range s.names {
				if n == name {
					s.names = append(s.names[:i], s.names[i+1:]...)
					break
				}
			}
		}
		return
	}
	if _, ok := s.forces[name]; !ok {
		s.names = append(s.names, name)
	}
	s.forces[name] = f
	f.Initialize(s)
}

// Force returns the force installed under name, or nil.
func (s *Simulation) Force(name string) Force {
	return s.forces[name]
}

// ForceNames returns the installed force names in application order.
func (s *Simulation) ForceNames() []string {
	return append([]string(nil), s.names...)
}

// ClearForces removes every installed force.
func (s *Simulation) ClearForces() {
	s.names = s.names[:0]
	s.forces = make(map[string]Force)
}

// =============================================================================
// Energy and Iteration
// =============================================================================

// Alpha returns the current energy.
func (s *Simulation) Alpha() float64 { return s.alpha }

// AlphaMin returns the energy below which iteration stops.
func (s *Simulation) AlphaMin() float64 { return s.alphaMin }

// SetAlphaTarget sets the value alpha decays toward.
func (s *Simulation) SetAlphaTarget(v float64) { s.alphaTarget = v }

// Restart reheats the simulation to alpha.
func (s *Simulation) Restart(alpha float64) {
	s.alpha = alpha
}

// Running reports whether the simulation still has energy to iterate.
func (s *Simulation) Running() bool {
	return s.alpha >= s.alphaMin
}

// Tick advances the simulation by one step and returns the resulting frame.
func (s *Simulation) Tick() Frame {
	s.alpha += (s.alphaTarget - s.alpha) * s.alphaDecay

	for _, name := range s.names {
		s.forces[name].Apply(s, s.alpha)
	}

	keep := 1 - s.velocityDecay
	for i := range s.ids {
		if s.pinned[i] {
			s.x[i], s.vx[i] = s.fx[i], 0
			s.y[i], s.vy[i] = s.fy[i], 0
			continue
		}
		s.vx[i] *= keep
		s.vy[i] *= keep
		s.x[i] += s.vx[i]
		s.y[i] += s.vy[i]
	}

	s.seq++
	return s.Frame()
}

// Run ticks until the simulation runs out of energy, maxTicks have elapsed
// (when positive) or ctx is done. onFrame, if non-nil, receives every frame.
// It returns the number of ticks performed.
func (s *Simulation) Run(ctx context.Context, maxTicks int, onFrame func(Frame)) (int, error) {
	ticks := 0
	for s.Running() && (maxTicks <= 0 || ticks < maxTicks) {
		if err := ctx.Err(); err != nil {
			return ticks, err
		}
		f := s.Tick()
		ticks++
		if onFrame != nil {
			onFrame(f)
		}
	}
	return ticks, nil
}

// Frame returns a copy of the current positions.
func (s *Simulation) Frame() Frame {
	f := Frame{
		Seq:       s.seq,
		Alpha:     s.alpha,
		Positions: make([]Position, len(s.ids)),
	}
	for i, id := range s.ids {
		f.Positions[i] = Position{ID: id, X: s.x[i], Y: s.y[i]}
	}
	return f
}

// jiggle returns a tiny random offset used to separate coincident bodies.
func (s *Simulation) jiggle() float64 {
	return (s.rng.Float64() - 0.5) * 1e-6
}
