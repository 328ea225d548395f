package sink

import (
	"bytes"
	"math"
	"unicode/utf8"

	"git.sr.ht/~sbinet/gg"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font/basicfont"

	"github.com/abid8042/chessnetviz/pkg/graph"
	"github.com/abid8042/chessnetviz/pkg/layout"
	"github.com/abid8042/chessnetviz/pkg/scene"
)

// DefaultPNGScale renders at twice the viewport resolution.
const DefaultPNGScale = 2.0

// basicfont glyphs are 13px tall.
const faceHeight = 13.0

// PNGOption configures PNG rendering.
type PNGOption func(*pngRenderer)

type pngRenderer struct {
	scale      float64
	background string
	guide      bool
}

// WithScale sets the raster scale factor.
func WithScale(s float64) PNGOption {
	return func(r *pngRenderer) {
		if s > 0 {
			r.scale = s
		}
	}
}

// WithPNGBackground sets the background fill.
func WithPNGBackground(c string) PNGOption { return func(r *pngRenderer) { r.background = c } }

// WithoutPNGGuide omits the spiral guide path.
func WithoutPNGGuide() PNGOption { return func(r *pngRenderer) { r.guide = false } }

// RenderPNG rasterizes the snapshot. Coordinates are mapped through the fit
// transform and the raster scale, so stroke widths stay proportional.
func RenderPNG(s graph.Snapshot, opts ...PNGOption) ([]byte, error) {
	r := pngRenderer{scale: DefaultPNGScale, background: Background, guide: true}
	for _, opt := range opts {
		opt(&r)
	}

	t := s.Transform
	if t.K == 0 {
		t = graph.Identity
	}
	w := max(1, int(math.Round(s.Width*r.scale)))
	h := max(1, int(math.Round(s.Height*r.scale)))
	dc := gg.NewContext(w, h)
	if r.background != "" {
		setColor(dc, r.background, 1)
		dc.Clear()
	}

	k := t.K * r.scale
	at := func(x, y float64) (float64, float64) {
		px, py := t.Apply(x, y)
		return px * r.scale, py * r.scale
	}

	if r.guide && len(s.Guide) > 1 {
		setColor(dc, layout.GuideStroke, 1)
		dc.SetLineWidth(layout.GuideStrokeWidth * k)
		dc.SetDash(2*k, 3*k)
		for i, p := range s.Guide {
			x, y := at(p.X, p.Y)
			if i == 0 {
				dc.MoveTo(x, y)
			} else {
				dc.LineTo(x, y)
			}
		}
		dc.Stroke()
		dc.SetDash()
	}

	for _, l := range s.Links {
		x1, y1 := at(l.X1, l.Y1)
		x2, y2 := at(l.X2, l.Y2)
		width := l.Width * k
		setColor(dc, scene.LinkStroke, l.Opacity)
		dc.SetLineWidth(width)
		dc.DrawLine(x1, y1, x2, y2)
		dc.Stroke()
		drawArrowhead(dc, x1, y1, x2, y2, width)
	}

	dc.SetFontFace(basicfont.Face7x13)
	for _, n := range s.Nodes {
		x, y := at(n.X, n.Y)
		radius := n.Radius * k

		setColor(dc, n.Fill, n.Opacity)
		dc.DrawCircle(x, y, radius)
		dc.Fill()
		setColor(dc, n.Stroke, n.Opacity)
		dc.SetLineWidth(n.StrokeWidth * k)
		dc.DrawCircle(x, y, radius)
		dc.Stroke()

		drawLabel(dc, rasterLabel(n), x, y, n.LabelSize*k, n.LabelFill, n.Opacity)
		if n.SubLabel != "" {
			drawLabel(dc, n.SubLabel, x, y+n.SubLabelDY*k, n.SubLabelSize*k, n.SubLabelFill, n.Opacity)
		}
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// drawArrowhead fills the marker triangle with its reference point on the
// link end, sized in stroke widths like the SVG marker.
func drawArrowhead(dc *gg.Context, x1, y1, x2, y2, width float64) {
	d := math.Hypot(x2-x1, y2-y1)
	if d == 0 || width == 0 {
		return
	}
	ux, uy := (x2-x1)/d, (y2-y1)/d
	unit := float64(arrowSize) / 10 * width
	tipX, tipY := x2+ux*unit*(10-arrowRefX), y2+uy*unit*(10-arrowRefX)
	baseX, baseY := x2-ux*unit*arrowRefX, y2-uy*unit*arrowRefX
	half := unit * arrowRefY

	dc.NewSubPath()
	dc.MoveTo(tipX, tipY)
	dc.LineTo(baseX-uy*half, baseY+ux*half)
	dc.LineTo(baseX+uy*half, baseY-ux*half)
	dc.ClosePath()
	dc.Fill()
}

func drawLabel(dc *gg.Context, text string, x, y, size float64, fill string, opacity float64) {
	if text == "" || size <= 0 {
		return
	}
	f := size / faceHeight
	setColor(dc, fill, opacity)
	dc.Push()
	dc.ScaleAbout(f, f, x, y)
	dc.DrawStringAnchored(text, x, y, 0.5, 0.35)
	dc.Pop()
}

// rasterLabel returns a label the bitmap face can draw: chess glyphs fall
// back to the FEN letter.
func rasterLabel(n graph.PlacedNode) string {
	for _, r := range n.Label {
		if r >= utf8.RuneSelf {
			if n.Symbol != "" {
				return n.Symbol
			}
			return n.ID
		}
	}
	return n.Label
}

func setColor(dc *gg.Context, hex string, alpha float64) {
	c, err := colorful.Hex(hex)
	if err != nil {
		c, _ = colorful.Hex(scene.FallbackFill)
	}
	dc.SetRGBA(c.R, c.G, c.B, alpha)
}
