package sink

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	svg "github.com/ajstarks/svgo"

	"github.com/abid8042/chessnetviz/pkg/graph"
	"github.com/abid8042/chessnetviz/pkg/layout"
	"github.com/abid8042/chessnetviz/pkg/scene"
)

// Scene colors shared by the vector and raster sinks.
const (
	Background  = "#f9fafb"
	ArrowPath   = "M 0 0 L 10 5 L 0 10 z"
	ArrowID     = "arrowhead"
	arrowSize   = 6
	arrowRefX   = 9
	arrowRefY   = 5
	labelFamily = "sans-serif"
)

// SVGOption configures SVG rendering.
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	background string
	guide      bool
	title      string
}

// WithBackground sets the background fill; "" leaves it transparent.
func WithBackground(c string) SVGOption { return func(r *svgRenderer) { r.background = c } }

// WithoutGuide omits the spiral guide path.
func WithoutGuide() SVGOption { return func(r *svgRenderer) { r.guide = false } }

// WithTitle adds a document title.
func WithTitle(t string) SVGOption { return func(r *svgRenderer) { r.title = t } }

// RenderSVG draws the snapshot as an SVG document. The fit transform is
// applied to the root group, so coordinates inside it are layout units.
func RenderSVG(s graph.Snapshot, opts ...SVGOption) []byte {
	r := svgRenderer{background: Background, guide: true}
	for _, opt := range opts {
		opt(&r)
	}

	w, h := int(math.Round(s.Width)), int(math.Round(s.Height))
	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Start(w, h)
	if r.title != "" {
		canvas.Title(r.title)
	}

	canvas.Def()
	canvas.Marker(ArrowID, arrowRefX, arrowRefY, arrowSize, arrowSize,
		`viewBox="0 0 10 10"`, `orient="auto"`, `markerUnits="strokeWidth"`)
	canvas.Path(ArrowPath, "fill:"+scene.LinkStroke)
	canvas.MarkerEnd()
	canvas.DefEnd()

	if r.background != "" {
		canvas.Rect(0, 0, w, h, "fill:"+r.background)
	}

	t := s.Transform
	if t.K == 0 {
		t = graph.Identity
	}
	canvas.Gtransform(fmt.Sprintf("translate(%s,%s) scale(%s)", num(t.X), num(t.Y), num(t.K)))

	if r.guide && len(s.Guide) > 1 {
		canvas.Path(polyline(s.Guide),
			fmt.Sprintf("fill:none;stroke:%s;stroke-width:%s;stroke-dasharray:%s",
				layout.GuideStroke, num(layout.GuideStrokeWidth), layout.GuideDash))
	}

	canvas.Group(`id="links"`)
	for _, l := range s.Links {
		canvas.Path(fmt.Sprintf("M %s %s L %s %s", num(l.X1), num(l.Y1), num(l.X2), num(l.Y2)),
			fmt.Sprintf("fill:none;stroke:%s;stroke-width:%s;stroke-opacity:%s",
				scene.LinkStroke, num(l.Width), num(l.Opacity)),
			fmt.Sprintf(`marker-end="url(#%s)"`, ArrowID),
			fmt.Sprintf(`data-key="%s"`, l.Key))
	}
	canvas.Gend()

	canvas.Group(`id="nodes"`)
	for _, n := range s.Nodes {
		renderNodeSVG(canvas, n)
	}
	canvas.Gend()

	canvas.Gend()
	canvas.End()
	return buf.Bytes()
}

func renderNodeSVG(canvas *svg.SVG, n graph.PlacedNode) {
	x, y := int(math.Round(n.X)), int(math.Round(n.Y))
	canvas.Group(fmt.Sprintf(`id="node-%s"`, n.ID), fmt.Sprintf("opacity:%s", num(n.Opacity)))
	canvas.Circle(x, y, int(math.Round(n.Radius)),
		fmt.Sprintf("fill:%s;stroke:%s;stroke-width:%s", n.Fill, n.Stroke, num(n.StrokeWidth)))
	canvas.Text(x, y, n.Label,
		fmt.Sprintf("fill:%s;font-size:%spx;font-family:%s;font-weight:bold;text-anchor:middle;dominant-baseline:central;pointer-events:none",
			n.LabelFill, num(n.LabelSize), labelFamily))
	if n.SubLabel != "" {
		canvas.Text(x, int(math.Round(n.Y+n.SubLabelDY)), n.SubLabel,
			fmt.Sprintf("fill:%s;font-size:%spx;font-family:%s;text-anchor:middle;pointer-events:none",
				n.SubLabelFill, num(n.SubLabelSize), labelFamily))
	}
	canvas.Gend()
}

func polyline(pts []graph.Point) string {
	var b strings.Builder
	for i, p := range pts {
		if i == 0 {
			b.WriteString("M ")
		} else {
			b.WriteString(" L ")
		}
		b.WriteString(num(p.X))
		b.WriteByte(' ')
		b.WriteString(num(p.Y))
	}
	return b.String()
}

// num formats a coordinate with at most two decimals.
func num(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" {
		return "0"
	}
	return s
}
