package layout

import (
	"sort"

	"github.com/abid8042/chessnetviz/pkg/errors"
	"github.com/abid8042/chessnetviz/pkg/graph"
	"github.com/abid8042/chessnetviz/pkg/sim"
)

// =============================================================================
// Parameter Records
// =============================================================================

// ForceDirectedParams tunes the force-directed engine.
type ForceDirectedParams struct {
	LinkDistance            float64 `json:"linkDistance" toml:"link_distance" yaml:"link_distance" validate:"gte=10,lte=200"`
	LinkStrength            float64 `json:"linkStrength" toml:"link_strength" yaml:"link_strength" validate:"gte=0.01,lte=1"`
	ChargeStrength          float64 `json:"chargeStrength" toml:"charge_strength" yaml:"charge_strength" validate:"gte=-500,lte=-10"`
	CollideStrength         float64 `json:"collideStrength" toml:"collide_strength" yaml:"collide_strength" validate:"gte=0.1,lte=1"`
	CenterStrength          float64 `json:"centerStrength" toml:"center_strength" yaml:"center_strength" validate:"gte=0.01,lte=0.5"`
	ComponentCenterStrength float64 `json:"componentCenterStrength" toml:"component_center_strength" yaml:"component_center_strength" validate:"gte=0.01,lte=0.5"`
}

// RadialParams tunes the radial engine.
type RadialParams struct {
	ChargeStrength       float64 `json:"chargeStrength" toml:"charge_strength" yaml:"charge_strength" validate:"gte=-300,lte=-10"`
	LinkDistanceFactor   float64 `json:"linkDistanceFactor" toml:"link_distance_factor" yaml:"link_distance_factor" validate:"gte=0.1,lte=2"`
	LinkStrengthFactor   float64 `json:"linkStrengthFactor" toml:"link_strength_factor" yaml:"link_strength_factor" validate:"gte=0.1,lte=2"`
	RadialStrength       float64 `json:"radialStrength" toml:"radial_strength" yaml:"radial_strength" validate:"gte=0.1,lte=1"`
	RingMinRadiusFactor  float64 `json:"ringMinRadiusFactor" toml:"ring_min_radius_factor" yaml:"ring_min_radius_factor" validate:"gte=1,lte=10"`
	MaxOuterRadiusFactor float64 `json:"maxOuterRadiusFactor" toml:"max_outer_radius_factor" yaml:"max_outer_radius_factor" validate:"gte=1.5,lte=5"`
}

// SpiralParams tunes the spiral engine.
type SpiralParams struct {
	Coils           float64 `json:"coils" toml:"coils" yaml:"coils" validate:"gte=1,lte=10"`
	MaxRadiusMargin float64 `json:"maxRadiusMargin" toml:"max_radius_margin" yaml:"max_radius_margin" validate:"gte=10,lte=150"`
	LinkDistance    float64 `json:"linkDistance" toml:"link_distance" yaml:"link_distance" validate:"gte=5,lte=70"`
	LinkStrength    float64 `json:"linkStrength" toml:"link_strength" yaml:"link_strength" validate:"gte=0.001,lte=0.2"`
}

// Params holds one parameter record per layout type. It also resolves layout
// types to engines configured with those records, so a *Params can be handed
// to sim.NewDriver directly.
type Params struct {
	ForceDirected ForceDirectedParams `json:"force-directed" toml:"force_directed" yaml:"force_directed"`
	Radial        RadialParams        `json:"radial" toml:"radial" yaml:"radial"`
	Spiral        SpiralParams        `json:"spiral" toml:"spiral" yaml:"spiral"`
}

// Default parameter records.
var (
	DefaultForceDirected = ForceDirectedParams{
		LinkDistance:            50,
		LinkStrength:            0.07,
		ChargeStrength:          -120,
		CollideStrength:         0.7,
		CenterStrength:          0.03,
		ComponentCenterStrength: 0.08,
	}
	DefaultRadial = RadialParams{
		ChargeStrength:       -70,
		LinkDistanceFactor:   0.4,
		LinkStrengthFactor:   0.9,
		RadialStrength:       0.8,
		RingMinRadiusFactor:  4,
		MaxOuterRadiusFactor: 2.5,
	}
	DefaultSpiral = SpiralParams{
		Coils:           3,
		MaxRadiusMargin: 40,
		LinkDistance:    15,
		LinkStrength:    0.01,
	}
)

// DefaultParams returns every layout's default record.
func DefaultParams() Params {
	return Params{
		ForceDirected: DefaultForceDirected,
		Radial:        DefaultRadial,
		Spiral:        DefaultSpiral,
	}
}

// Validate checks every record against its parameter ranges.
func (p *Params) Validate() error {
	return errors.ValidateStruct(errors.ErrCodeInvalidParams, p)
}

// Engine implements sim.Registry.
func (p *Params) Engine(t graph.LayoutType) (sim.Engine, bool) {
	switch t {
	case graph.LayoutForceDirected:
		return ForceDirected{Params: p.ForceDirected}, true
	case graph.LayoutRadial:
		return Radial{Params: p.Radial}, true
	case graph.LayoutSpiral:
		return Spiral{Params: p.Spiral}, true
	}
	return nil, false
}

// =============================================================================
// Mutation by Key
// =============================================================================

// field resolves a parameter key of layout t to its storage.
func (p *Params) field(t graph.LayoutType, key string) (*float64, bool) {
	var m map[string]*float64
	switch t {
	case graph.LayoutForceDirected:
		f := &p.ForceDirected
		m = map[string]*float64{
			"linkDistance":            &f.LinkDistance,
			"linkStrength":            &f.LinkStrength,
			"chargeStrength":          &f.ChargeStrength,
			"collideStrength":         &f.CollideStrength,
			"centerStrength":          &f.CenterStrength,
			"componentCenterStrength": &f.ComponentCenterStrength,
		}
	case graph.LayoutRadial:
		r := &p.Radial
		m = map[string]*float64{
			"chargeStrength":       &r.ChargeStrength,
			"linkDistanceFactor":   &r.LinkDistanceFactor,
			"linkStrengthFactor":   &r.LinkStrengthFactor,
			"radialStrength":       &r.RadialStrength,
			"ringMinRadiusFactor":  &r.RingMinRadiusFactor,
			"maxOuterRadiusFactor": &r.MaxOuterRadiusFactor,
		}
	case graph.LayoutSpiral:
		s := &p.Spiral
		m = map[string]*float64{
			"coils":           &s.Coils,
			"maxRadiusMargin": &s.MaxRadiusMargin,
			"linkDistance":    &s.LinkDistance,
			"linkStrength":    &s.LinkStrength,
		}
	default:
		return nil, false
	}
	ptr, ok := m[key]
	return ptr, ok
}

// Set changes one parameter of layout t. Out-of-range values are rejected
// and leave the record unchanged.
func (p *Params) Set(t graph.LayoutType, key string, value float64) error {
	ptr, ok := p.field(t, key)
	if !ok {
		if _, known := definitions[t]; !known {
			return errors.New(errors.ErrCodeInvalidLayout, "unknown layout: %q", t)
		}
		return errors.New(errors.ErrCodeInvalidParams, "unknown %s parameter: %q", t, key)
	}
	old := *ptr
	*ptr = value
	if err := p.Validate(); err != nil {
		*ptr = old
		return err
	}
	return nil
}

// Reset restores layout t's record to its defaults.
func (p *Params) Reset(t graph.LayoutType) {
	switch t {
	case graph.LayoutForceDirected:
		p.ForceDirected = DefaultForceDirected
	case graph.LayoutRadial:
		p.Radial = DefaultRadial
	case graph.LayoutSpiral:
		p.Spiral = DefaultSpiral
	}
}

// Values returns layout t's parameters keyed by parameter name.
func (p *Params) Values(t graph.LayoutType) map[string]float64 {
	defs := Definitions(t)
	out := make(map[string]float64, len(defs))
	for _, d := range defs {
		if ptr, ok := p.field(t, d.Key); ok {
			out[d.Key] = *ptr
		}
	}
	return out
}

// Keys returns layout t's parameter names in sorted order.
func Keys(t graph.LayoutType) []string {
	defs := Definitions(t)
	keys := make([]string, len(defs))
	for i, d := range defs {
		keys[i] = d.Key
	}
	sort.Strings(keys)
	return keys
}

// =============================================================================
// Definitions
// =============================================================================

// Definition describes one tunable parameter for editors.
type Definition struct {
	Key         string  `json:"key"`
	Label       string  `json:"label"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	Step        float64 `json:"step"`
	Description string  `json:"description"`
}

var definitions = map[graph.LayoutType][]Definition{
	graph.LayoutForceDirected: {
		{"linkDistance", "Link Distance", 10, 200, 1, "Target distance between linked nodes. Higher values spread linked nodes further apart."},
		{"linkStrength", "Link Strength", 0.01, 1, 0.01, "How strongly links pull nodes together. Higher values make links more rigid."},
		{"chargeStrength", "Charge Strength", -500, -10, 1, "Negative values make nodes repel each other. More negative means stronger repulsion."},
		{"collideStrength", "Collide Strength", 0.1, 1, 0.05, "Strength of the force that keeps nodes from overlapping."},
		{"centerStrength", "Center Strength (Overall)", 0.01, 0.5, 0.01, "Pull of all nodes toward the viewport center. Strongest with a single connected component."},
		{"componentCenterStrength", "Component Separation", 0.01, 0.5, 0.01, "Pull of nodes toward their component's anchor when several components exist."},
	},
	graph.LayoutRadial: {
		{"chargeStrength", "Charge Strength", -300, -10, 1, "Repulsion between nodes, spreading them along their rings."},
		{"linkDistanceFactor", "Link Distance Factor", 0.1, 2, 0.05, "Multiplier on the base link distance."},
		{"linkStrengthFactor", "Link Strength Factor", 0.1, 2, 0.05, "Multiplier on the base link strength."},
		{"radialStrength", "Radial Strength", 0.1, 1, 0.05, "Pull of nodes toward their group's ring. Higher values give crisper rings."},
		{"ringMinRadiusFactor", "Min. Ring Radius Factor", 1, 10, 0.5, "Multiplier on the largest node radius giving the innermost ring radius."},
		{"maxOuterRadiusFactor", "Max. Outer Radius Factor", 1.5, 5, 0.1, "Divides min(width, height) to give the outermost ring radius."},
	},
	graph.LayoutSpiral: {
		{"coils", "Number of Coils", 1, 10, 0.5, "Full rotations the spiral makes from center to edge."},
		{"maxRadiusMargin", "Max Radius Margin (px)", 10, 150, 5, "Gap between the viewport edge and the outermost spiral point."},
		{"linkDistance", "Link Distance", 5, 70, 1, "Link rest length. Nodes are pinned, so this barely moves anything."},
		{"linkStrength", "Link Strength", 0.001, 0.2, 0.001, "Link stiffness. Nodes are pinned, so this barely moves anything."},
	},
}

// Definitions returns layout t's parameter definitions in display order.
func Definitions(t graph.LayoutType) []Definition {
	return append([]Definition(nil), definitions[t]...)
}
