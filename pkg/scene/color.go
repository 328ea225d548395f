package scene

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/abid8042/chessnetviz/pkg/domain"
	"github.com/abid8042/chessnetviz/pkg/graph"
)

// Fixed colors.
const (
	FallbackFill   = "#cccccc"
	FallbackStroke = "#9ca3af"
	StrokeDarken   = 0.6
)

// =============================================================================
// Palettes
// =============================================================================

// Palette names a sequential color ramp.
type Palette string

// Sequential palettes.
const (
	PaletteViridis Palette = "viridis"
	PaletteMagma   Palette = "magma"
	PalettePlasma  Palette = "plasma"
	PaletteCividis Palette = "cividis"
	PaletteCool    Palette = "cool"
	PaletteBlues   Palette = "blues"

	DefaultPalette = PalettePlasma
)

// Palettes lists every palette in display order.
var Palettes = []Palette{PaletteViridis, PaletteMagma, PalettePlasma, PaletteCividis, PaletteCool, PaletteBlues}

// ParsePalette converts a string into a Palette.
func ParsePalette(s string) (Palette, error) {
	for _, p := range Palettes {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("invalid palette: %q (must be one of: viridis, magma, plasma, cividis, cool, blues)", s)
}

var paletteStops = map[Palette][]string{
	PaletteViridis: {"#440154", "#472c7a", "#3b518b", "#2c718e", "#21908d", "#27ad81", "#5cc863", "#aadc32", "#fde725"},
	PaletteMagma:   {"#000004", "#1c1044", "#4f127b", "#812581", "#b5367a", "#e55064", "#fb8761", "#fec287", "#fcfdbf"},
	PalettePlasma:  {"#0d0887", "#4c02a1", "#7e03a8", "#a92395", "#cc4778", "#e66c5c", "#f89540", "#fdc527", "#f0f921"},
	PaletteCividis: {"#00224e", "#123570", "#3b496c", "#575d6d", "#707173", "#8a8678", "#a59c74", "#c3b369", "#fee838"},
	PaletteCool:    {"#6e40aa", "#6054c8", "#4c6edb", "#368ce1", "#23abd8", "#1ac7c2", "#1ddfa3", "#30ef82", "#52f667", "#7ff658", "#aff05b"},
	PaletteBlues:   {"#f7fbff", "#deebf7", "#c6dbef", "#9ecae1", "#6baed6", "#4292c6", "#2171b5", "#08519c", "#08306b"},
}

// Categorical schemes.
var (
	Category10 = []string{"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd", "#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf"}
	Tableau10  = []string{"#4e79a7", "#f28e2c", "#e15759", "#76b7b2", "#59a14f", "#edc949", "#af7aa1", "#ff9da7", "#9c755f", "#bab0ab"}
)

// At samples the palette at t in [0, 1], interpolating linearly in RGB
// between stops. t is clamped; NaN samples the low end.
func (p Palette) At(t float64) string {
	stops, ok := paletteStops[p]
	if !ok {
		stops = paletteStops[DefaultPalette]
	}
	if math.IsNaN(t) || t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	pos := t * float64(len(stops)-1)
	i := int(math.Floor(pos))
	if i >= len(stops)-1 {
		return stops[len(stops)-1]
	}
	a, _ := colorful.Hex(stops[i])
	b, _ := colorful.Hex(stops[i+1])
	return a.BlendRgb(b, pos-float64(i)).Clamped().Hex()
}

// =============================================================================
// Coloring
// =============================================================================

// Coloring selects how node fills are derived. It is either Categorical or
// Sequential.
type Coloring interface {
	// ID is the coloring's identifier, as used in file names and flags.
	ID() string
	coloring()
}

// CategoricalField names the node attribute a Categorical coloring reads.
type CategoricalField int

// Categorical fields.
const (
	FieldGroupTag CategoricalField = iota
	FieldComponent
	FieldCommunity
)

// Categorical colors nodes by a discrete attribute.
type Categorical struct {
	Field CategoricalField
}

// ID implements Coloring.
func (c Categorical) ID() string {
	switch c.Field {
	case FieldComponent:
		return "component_id_color"
	case FieldCommunity:
		return "community_id_color"
	}
	return "default"
}

func (Categorical) coloring() {}

// Sequential colors nodes along a palette by a metric.
type Sequential struct {
	Metric graph.MetricKey
}

// ID implements Coloring.
func (s Sequential) ID() string { return s.Metric.String() }

func (Sequential) coloring() {}

// DefaultColoring colors nodes by group tag.
var DefaultColoring Coloring = Categorical{Field: FieldGroupTag}

// ParseColoring resolves a coloring identifier: "default",
// "component_id_color", "community_id_color" or a metric key.
func ParseColoring(id string) (Coloring, error) {
	switch id {
	case "default", "":
		return Categorical{Field: FieldGroupTag}, nil
	case "component_id_color":
		return Categorical{Field: FieldComponent}, nil
	case "community_id_color":
		return Categorical{Field: FieldCommunity}, nil
	}
	if k, ok := graph.ParseMetricKey(id); ok {
		return Sequential{Metric: k}, nil
	}
	return nil, fmt.Errorf("invalid coloring: %q", id)
}

// ColoringIDs lists every coloring identifier.
func ColoringIDs() []string {
	ids := []string{"default", "component_id_color", "community_id_color"}
	for _, k := range graph.MetricKeys() {
		ids = append(ids, k.String())
	}
	return ids
}

// =============================================================================
// Color Scale
// =============================================================================

// ColorScale is a coloring resolved against one set of visible nodes. Build
// it once per render pass and query it per node.
type ColorScale struct {
	coloring Coloring
	palette  Palette

	// categorical
	scheme []string
	order  []string
	index  map[string]int

	// sequential
	domain domain.Domain
}

// NewColorScale resolves c for nodes. Sequential colorings fall back to
// ranges[metric] when no visible node has a value.
func NewColorScale(c Coloring, p Palette, nodes []graph.Node, ranges map[graph.MetricKey]domain.Range) *ColorScale {
	if c == nil {
		c = DefaultColoring
	}
	s := &ColorScale{coloring: c, palette: p, index: make(map[string]int)}

	switch c := c.(type) {
	case Categorical:
		if c.Field == FieldGroupTag {
			s.scheme = Category10
			for i := range nodes {
				s.add(nodes[i].GroupTag())
			}
			break
		}
		s.scheme = Tableau10
		var ids []int
		seen := make(map[int]bool)
		for i := range nodes {
			id := categoricalID(c.Field, &nodes[i])
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
		sort.Ints(ids)
		for _, id := range ids {
			s.add(strconv.Itoa(id))
		}
	case Sequential:
		fallback, ok := ranges[c.Metric]
		if !ok {
			fallback = domain.Range{Min: math.NaN(), Max: math.NaN()}
		}
		s.domain = domain.ForMetric(nodes, c.Metric, fallback)
	}
	return s
}

func categoricalID(f CategoricalField, n *graph.Node) int {
	if f == FieldCommunity {
		return n.CommunityID
	}
	return n.ComponentID
}

func (s *ColorScale) add(key string) int {
	if i, ok := s.index[key]; ok {
		return i
	}
	i := len(s.order)
	s.index[key] = i
	s.order = append(s.order, key)
	return i
}

// Coloring returns the coloring the scale was built for.
func (s *ColorScale) Coloring() Coloring { return s.coloring }

// Fill returns the fill color for n.
func (s *ColorScale) Fill(n *graph.Node) string {
	switch c := s.coloring.(type) {
	case Categorical:
		key := n.GroupTag()
		if c.Field != FieldGroupTag {
			key = strconv.Itoa(categoricalID(c.Field, n))
		}
		return s.scheme[s.add(key)%len(s.scheme)]
	case Sequential:
		v, ok := n.Metric(c.Metric)
		if !ok {
			return FallbackFill
		}
		return s.palette.At(s.domain.Normalize(v))
	}
	return FallbackFill
}

// Domain returns the sequential domain, or false for categorical scales.
func (s *ColorScale) Domain() (domain.Domain, bool) {
	if _, ok := s.coloring.(Sequential); ok {
		return s.domain, true
	}
	return domain.Domain{}, false
}

// LegendEntry is one categorical value and its color.
type LegendEntry struct {
	Value string `json:"value"`
	Color string `json:"color"`
}

// Legend lists categorical values in domain order.
func (s *ColorScale) Legend() []LegendEntry {
	if _, ok := s.coloring.(Categorical); !ok {
		return nil
	}
	out := make([]LegendEntry, len(s.order))
	for i, v := range s.order {
		out[i] = LegendEntry{Value: v, Color: s.scheme[i%len(s.scheme)]}
	}
	return out
}

// =============================================================================
// Color Helpers
// =============================================================================

// Darker darkens a hex color by k steps, scaling each channel by 0.7^k. It
// returns FallbackStroke for unparseable input.
func Darker(hex string, k float64) string {
	c, err := colorful.Hex(hex)
	if err != nil {
		return FallbackStroke
	}
	f := math.Pow(0.7, k)
	return colorful.Color{R: c.R * f, G: c.G * f, B: c.B * f}.Clamped().Hex()
}

// Lightness returns the HSL lightness of a hex color in [0, 1], or 0 for
// unparseable input.
func Lightness(hex string) float64 {
	c, err := colorful.Hex(hex)
	if err != nil {
		return 0
	}
	_, _, l := c.Hsl()
	return l
}
