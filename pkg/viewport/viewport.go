// Package viewport computes zoom-to-fit transforms for a rendered scene and
// schedules them after a layout has had time to settle.
//
// Fitting is a pure function of the scene's bounding box and the viewport
// size. Scheduling goes through a [Debouncer] driven by an injectable
// [Clock], so tests advance time explicitly instead of sleeping.
package viewport

import (
	"math"
	"time"

	"github.com/abid8042/chessnetviz/pkg/graph"
)

// Fit and zoom limits.
const (
	Padding     = 50.0
	MaxFitScale = 2.0
	MinFitScale = 0.1

	ZoomMin = 0.1
	ZoomMax = 10.0
)

// Settle timing.
const (
	SettleBase       = 300 * time.Millisecond
	TransitionLength = 600 * time.Millisecond
)

// =============================================================================
// Bounds
// =============================================================================

// Bounds is an axis-aligned bounding box. The zero value is empty.
type Bounds struct {
	MinX, MinY float64
	MaxX, MaxY float64
	set        bool
}

// NewBounds returns the box spanning two corners.
func NewBounds(x0, y0, x1, y1 float64) Bounds {
	var b Bounds
	b.AddPoint(x0, y0)
	b.AddPoint(x1, y1)
	return b
}

// Empty reports whether nothing has been added.
func (b Bounds) Empty() bool { return !b.set }

// Width returns the horizontal extent.
func (b Bounds) Width() float64 { return b.MaxX - b.MinX }

// Height returns the vertical extent.
func (b Bounds) Height() float64 { return b.MaxY - b.MinY }

// AddPoint grows the box to include (x, y).
func (b *Bounds) AddPoint(x, y float64) {
	if !b.set {
		b.MinX, b.MaxX, b.MinY, b.MaxY, b.set = x, x, y, y, true
		return
	}
	b.MinX = math.Min(b.MinX, x)
	b.MaxX = math.Max(b.MaxX, x)
	b.MinY = math.Min(b.MinY, y)
	b.MaxY = math.Max(b.MaxY, y)
}

// AddCircle grows the box to include a circle.
func (b *Bounds) AddCircle(cx, cy, r float64) {
	b.AddPoint(cx-r, cy-r)
	b.AddPoint(cx+r, cy+r)
}

// AddRect grows the box to include a rectangle anchored at its top-left.
func (b *Bounds) AddRect(x, y, w, h float64) {
	b.AddPoint(x, y)
	b.AddPoint(x+w, y+h)
}

// Union grows the box to include o.
func (b *Bounds) Union(o Bounds) {
	if o.Empty() {
		return
	}
	b.AddPoint(o.MinX, o.MinY)
	b.AddPoint(o.MaxX, o.MaxY)
}

// degenerate reports a box fitting cannot scale to.
func (b Bounds) degenerate() bool {
	if b.Empty() {
		return true
	}
	for _, v := range []float64{b.MinX, b.MinY, b.MaxX, b.MaxY} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}
	return b.Width() == 0 || b.Height() == 0
}

// =============================================================================
// Fitting
// =============================================================================

// Fit returns the transform that centers b in the viewport with Padding on
// every side. Scale is clamped to [MinFitScale, MaxFitScale]. Degenerate
// bounds (empty, zero-area or non-finite) yield translate(w/2, h/2) at
// scale 1.
func Fit(b Bounds, dims graph.Dimensions) graph.Transform {
	w, h := dims.Width, dims.Height
	if b.degenerate() {
		return graph.Transform{X: w / 2, Y: h / 2, K: 1}
	}

	fullW := b.Width() + 2*Padding
	fullH := b.Height() + 2*Padding
	midX := b.MinX + b.Width()/2
	midY := b.MinY + b.Height()/2

	k := math.Min(MaxFitScale, math.Max(MinFitScale, math.Min(w/fullW, h/fullH)))
	return graph.Transform{X: w/2 - midX*k, Y: h/2 - midY*k, K: k}
}

// ClampZoom limits a user-driven zoom to [ZoomMin, ZoomMax].
func ClampZoom(t graph.Transform) graph.Transform {
	t.K = math.Max(ZoomMin, math.Min(ZoomMax, t.K))
	return t
}

// SettleDelay is how long to wait after a reconfiguration before fitting.
// Spiral layouts are pinned and fit immediately.
func SettleDelay(layout graph.LayoutType) time.Duration {
	switch layout {
	case graph.LayoutForceDirected:
		return SettleBase + 200*time.Millisecond
	case graph.LayoutRadial:
		return SettleBase + 100*time.Millisecond
	}
	return 0
}

// Transition is how long an interactive host animates the fit.
func Transition(layout graph.LayoutType) time.Duration {
	if layout == graph.LayoutSpiral {
		return 0
	}
	return TransitionLength
}
