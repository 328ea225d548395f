package cli

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abid8042/chessnetviz/pkg/errors"
	"github.com/abid8042/chessnetviz/pkg/graph"
	"github.com/abid8042/chessnetviz/pkg/pipeline"
	"github.com/abid8042/chessnetviz/pkg/render"
	"github.com/abid8042/chessnetviz/pkg/scene"
)

// optionFlags are the pipeline flags shared by render, layout and view.
// Only flags the user set override the configuration.
type optionFlags struct {
	move     int
	scope    string
	layout   string
	params   []string
	width    float64
	height   float64
	maxTicks int
	seed     int64
	sort     string
	coloring string
	palette  string
	selected string

	search      string
	pieceTypes  []int
	pieceColor  string
	components  []int
	communities []int
	metrics     []string
	missing     string
}

// addOptionFlags registers the shared pipeline flags on cmd.
func addOptionFlags(cmd *cobra.Command, f *optionFlags) {
	fs := cmd.Flags()
	fs.IntVarP(&f.move, "move", "m", 0, "zero-based move index")
	fs.StringVarP(&f.scope, "scope", "s", "", "graph scope: combined (default), white, black")
	fs.StringVarP(&f.layout, "layout", "l", "", "layout: force-directed (default), radial, spiral")
	fs.StringArrayVarP(&f.params, "param", "p", nil, "layout parameter override key=value (repeatable)")
	fs.Float64Var(&f.width, "width", 0, "viewport width")
	fs.Float64Var(&f.height, "height", 0, "viewport height")
	fs.IntVar(&f.maxTicks, "max-ticks", 0, "upper bound on simulation ticks")
	fs.Int64Var(&f.seed, "seed", 0, "simulation seed")
	fs.StringVar(&f.sort, "sort", "", "node sort key[:asc|desc]")
	fs.StringVarP(&f.coloring, "color", "c", "", "coloring: default, component_id_color, community_id_color or a metric")
	fs.StringVar(&f.palette, "palette", "", "sequential palette: viridis, magma, plasma, cividis, cool, blues")
	fs.StringVar(&f.selected, "select", "", "highlight a square and its neighbours")

	fs.StringVar(&f.search, "search", "", "keep nodes whose id, position or piece symbol contains this")
	fs.IntSliceVar(&f.pieceTypes, "piece-type", nil, "keep squares holding these piece types (1-6)")
	fs.StringVar(&f.pieceColor, "piece-color", "", "keep squares holding pieces of this color")
	fs.IntSliceVar(&f.components, "component", nil, "keep these component ids")
	fs.IntSliceVar(&f.communities, "community", nil, "keep these community ids")
	fs.StringArrayVar(&f.metrics, "metric", nil, "metric window name=lo:hi (repeatable)")
	fs.StringVar(&f.missing, "missing", "", "missing-metric policy under a narrowed window: exclude, include")

	registerCompletions(cmd)
}

// registerCompletions adds static completions for enumerated flags.
func registerCompletions(cmd *cobra.Command) {
	fixed := func(values ...string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return values, cobra.ShellCompDirectiveNoFileComp
		}
	}
	var scopes, layouts, palettes []string
	for _, s := range graph.Scopes {
		scopes = append(scopes, string(s))
	}
	for _, l := range graph.LayoutTypes {
		layouts = append(layouts, string(l))
	}
	for _, p := range scene.Palettes {
		palettes = append(palettes, string(p))
	}
	_ = cmd.RegisterFlagCompletionFunc("scope", fixed(scopes...))
	_ = cmd.RegisterFlagCompletionFunc("layout", fixed(layouts...))
	_ = cmd.RegisterFlagCompletionFunc("palette", fixed(palettes...))
	_ = cmd.RegisterFlagCompletionFunc("color", fixed(scene.ColoringIDs()...))
	_ = cmd.RegisterFlagCompletionFunc("missing", fixed("exclude", "include"))
}

// options merges the configuration and the flags set on cmd.
func (c *CLI) options(cmd *cobra.Command, f *optionFlags) (pipeline.Options, error) {
	opts := c.Config.PipelineOptions()
	fs := cmd.Flags()

	if fs.Changed("layout") && f.layout != opts.Layout {
		opts.Layout = f.layout
		opts.Params = c.Config.LayoutParams(graph.LayoutType(f.layout))
	}
	overrides, err := parseParams(f.params)
	if err != nil {
		return opts, err
	}
	if len(overrides) > 0 {
		merged := make(map[string]float64, len(opts.Params)+len(overrides))
		for k, v := range opts.Params {
			merged[k] = v
		}
		for k, v := range overrides {
			merged[k] = v
		}
		opts.Params = merged
	}

	opts.Move = f.move
	setIfChanged(fs.Changed("scope"), &opts.Scope, f.scope)
	setIfChanged(fs.Changed("width"), &opts.Width, f.width)
	setIfChanged(fs.Changed("height"), &opts.Height, f.height)
	setIfChanged(fs.Changed("max-ticks"), &opts.MaxTicks, f.maxTicks)
	setIfChanged(fs.Changed("seed"), &opts.Seed, f.seed)
	setIfChanged(fs.Changed("sort"), &opts.Sort, f.sort)
	setIfChanged(fs.Changed("color"), &opts.Coloring, f.coloring)
	setIfChanged(fs.Changed("palette"), &opts.Palette, f.palette)
	setIfChanged(fs.Changed("missing"), &opts.Filters.Missing, f.missing)
	opts.Selected = f.selected

	opts.Filters.Search = f.search
	opts.Filters.PieceTypes = f.pieceTypes
	opts.Filters.PieceColor = f.pieceColor
	opts.Filters.Components = f.components
	opts.Filters.Communities = f.communities
	if opts.Filters.Metrics, err = parseMetricWindows(f.metrics); err != nil {
		return opts, err
	}
	opts.Logger = c.Logger
	return opts, nil
}

func setIfChanged[T any](changed bool, dst *T, v T) {
	if changed {
		*dst = v
	}
}

// parseParams parses key=value layout parameter overrides.
func parseParams(args []string) (map[string]float64, error) {
	if len(args) == 0 {
		return nil, nil
	}
	out := make(map[string]float64, len(args))
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, errors.New(errors.ErrCodeInvalidParams, "invalid parameter %q (want key=value)", a)
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidParams, err, "parameter %s", k)
		}
		out[k] = f
	}
	return out, nil
}

// parseMetricWindows parses name=lo:hi metric filter windows.
func parseMetricWindows(args []string) (map[string][2]float64, error) {
	if len(args) == 0 {
		return nil, nil
	}
	out := make(map[string][2]float64, len(args))
	for _, a := range args {
		name, window, ok := strings.Cut(a, "=")
		lo, hi, ok2 := strings.Cut(window, ":")
		if !ok || !ok2 || name == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "invalid metric window %q (want name=lo:hi)", a)
		}
		l, err := strconv.ParseFloat(lo, 64)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "metric window %s", name)
		}
		h, err := strconv.ParseFloat(hi, 64)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "metric window %s", name)
		}
		if l > h {
			l, h = h, l
		}
		out[name] = [2]float64{l, h}
	}
	return out, nil
}

// parseFormats parses a comma-separated --format value; empty means svg.
func parseFormats(s string) ([]string, error) {
	if s == "" {
		return []string{string(render.FormatSVG)}, nil
	}
	formats, err := render.ParseFormats(s)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(formats))
	for i, f := range formats {
		out[i] = string(f)
	}
	return out, nil
}
