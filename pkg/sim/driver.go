package sim

import (
	"context"
	"errors"
	"io"

	"github.com/charmbracelet/log"

	"github.com/abid8042/chessnetviz/pkg/graph"
)

// Sentinel errors returned by Driver.Configure.
var (
	// ErrNotReady is returned while the viewport has no area yet.
	ErrNotReady = errors.New("viewport not ready")

	// ErrUnknownLayout is returned when no engine is registered for a layout
	// type. The simulation keeps its previous configuration.
	ErrUnknownLayout = errors.New("unknown layout")
)

// SettleAlpha is the energy below which a running simulation counts as
// settling: positions change little enough that a viewport fit is useful.
const SettleAlpha = 0.1

// Input is everything a layout engine sees for one configuration pass.
// Nodes are already filtered and sorted; Links may still reference nodes
// that were filtered out.
type Input struct {
	Nodes      []graph.Node
	Links      []graph.Link
	Dimensions graph.Dimensions
	Sort       graph.SortConfig
}

// Engine installs forces (and, for fixed layouts, pins) on a simulation
// whose forces have just been cleared. Body i corresponds to in.Nodes[i].
type Engine interface {
	Apply(s *Simulation, in Input)
}

// Registry resolves a layout type to its engine.
type Registry interface {
	Engine(t graph.LayoutType) (Engine, bool)
}

// Request describes one reconfiguration.
type Request struct {
	Nodes      []graph.Node
	Links      []graph.Link
	Layout     graph.LayoutType
	Dimensions graph.Dimensions
	Sort       graph.SortConfig
}

// State is the driver's lifecycle phase.
type State int

// Driver states.
const (
	StateIdle State = iota
	StateConfiguring
	StateRunning
	StateSettling
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateConfiguring:
		return "configuring"
	case StateRunning:
		return "running"
	case StateSettling:
		return "settling"
	}
	return "idle"
}

// Driver owns a Simulation and reconfigures it on every input change.
// Reconfiguration always restarts forces from scratch; it never patches them.
type Driver struct {
	Sim     *Simulation
	Engines Registry
	Logger  *log.Logger

	state  State
	layout graph.LayoutType
}

// NewDriver creates a driver over sim using engines to resolve layouts.
// A nil sim gets a fresh Simulation; a nil logger discards output.
func NewDriver(s *Simulation, engines Registry, logger *log.Logger) *Driver {
	if s == nil {
		s = New()
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Driver{Sim: s, Engines: engines, Logger: logger}
}

// State returns the current lifecycle phase.
func (d *Driver) State() State { return d.state }

// Layout returns the layout type of the last successful configuration.
func (d *Driver) Layout() graph.LayoutType { return d.layout }

// Configure rebinds nodes, clears every force, unpins all bodies, runs the
// layout engine, binds links and reheats the simulation.
func (d *Driver) Configure(req Request) error {
	if !req.Dimensions.Ready() {
		return ErrNotReady
	}

	var engine Engine
	ok := false
	if d.Engines != nil {
		engine, ok = d.Engines.Engine(req.Layout)
	}
	if !ok {
		d.Logger.Warn("unknown layout, keeping previous forces", "layout", req.Layout)
		return ErrUnknownLayout
	}

	d.state = StateConfiguring

	ids := make([]string, len(req.Nodes))
	for i := range req.Nodes {
		ids[i] = req.Nodes[i].ID
	}
	d.Sim.SetNodes(ids)
	d.Sim.ClearForces()
	d.Sim.UnpinAll()

	engine.Apply(d.Sim, Input{
		Nodes:      req.Nodes,
		Links:      req.Links,
		Dimensions: req.Dimensions,
		Sort:       req.Sort,
	})

	if lf, ok := d.Sim.Force(ForceLink).(*Link); ok {
		lf.SetLinks(req.Links)
	}

	d.Sim.Restart(RestartAlpha)
	d.layout = req.Layout
	d.state = StateRunning

	d.Logger.Debug("configured simulation",
		"layout", req.Layout,
		"nodes", len(req.Nodes),
		"links", len(req.Links),
		"forces", d.Sim.ForceNames())
	return nil
}

// Step advances one tick and updates the lifecycle phase. It returns false
// once the simulation is idle.
func (d *Driver) Step() (Frame, bool) {
	if !d.Sim.Running() {
		d.state = StateIdle
		return d.Sim.Frame(), false
	}
	f := d.Sim.Tick()
	d.advance()
	return f, true
}

// Run ticks until idle, maxTicks (when positive) or ctx cancellation,
// delivering every frame to onFrame. It returns the number of ticks.
func (d *Driver) Run(ctx context.Context, maxTicks int, onFrame func(Frame)) (int, error) {
	n, err := d.Sim.Run(ctx, maxTicks, func(f Frame) {
		d.advance()
		if onFrame != nil {
			onFrame(f)
		}
	})
	d.advance()
	return n, err
}

func (d *Driver) advance() {
	switch {
	case !d.Sim.Running():
		d.state = StateIdle
	case d.Sim.Alpha() < SettleAlpha:
		d.state = StateSettling
	default:
		d.state = StateRunning
	}
}
