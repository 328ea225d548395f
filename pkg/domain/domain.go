// Package domain derives numeric color and filter domains from node metrics.
//
// A domain is the [Lo, Hi] input range of a sequential color scale. The
// resolver is pure: callers memoize results on their own dependency set
// (visible nodes, scope, metric) and call [Resolve] again when any of them
// changes.
//
// # Resolution Rules
//
//  1. Visible finite values present: [min(visible), max(visible)]
//  2. Otherwise: the fallback range of the full, unfiltered scope
//  3. Lo == Hi: widen by 0.5 on each side, or [-0.5, 0.5] when the value is 0
//  4. Non-finite bounds or Lo > Hi: [0, 1]
//
// The result is always finite with Lo <= Hi.
package domain

import (
	"math"

	"github.com/abid8042/chessnetviz/pkg/graph"
)

// Range is a closed numeric interval.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Domain is a resolved [Lo, Hi] scale input range.
type Domain struct {
	Lo float64 `json:"lo"`
	Hi float64 `json:"hi"`
}

// Unit is the domain used when nothing usable is available.
var Unit = Domain{Lo: 0, Hi: 1}

// Width returns Hi - Lo.
func (d Domain) Width() float64 { return d.Hi - d.Lo }

// Normalize maps v into [0, 1] relative to the domain. The result is not
// clamped.
func (d Domain) Normalize(v float64) float64 {
	w := d.Width()
	if w == 0 {
		return 0.5
	}
	return (v - d.Lo) / w
}

// Resolve computes the domain for the visible values with fallback used when
// no visible value is finite.
func Resolve(visible []float64, fallback Range) Domain {
	lo, hi := math.Inf(1), math.Inf(-1)
	found := false
	for _, v := range visible {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		found = true
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	var d Domain
	if found {
		d = widen(lo, hi)
	} else {
		d = widen(fallback.Min, fallback.Max)
	}

	if !finite(d.Lo) || !finite(d.Hi) || d.Lo > d.Hi {
		d = Unit
	}
	if d.Lo == 0 && d.Hi == 0 {
		d = Domain{Lo: -0.5, Hi: 0.5}
	}
	return d
}

// ForMetric collects the values of k from nodes and resolves them against
// the fallback range.
func ForMetric(nodes []graph.Node, k graph.MetricKey, fallback Range) Domain {
	values := make([]float64, 0, len(nodes))
	for i := range nodes {
		if v, ok := nodes[i].Metric(k); ok {
			values = append(values, v)
		}
	}
	return Resolve(values, fallback)
}

func widen(lo, hi float64) Domain {
	if lo == hi {
		if lo == 0 {
			return Domain{Lo: -0.5, Hi: 0.5}
		}
		return Domain{Lo: lo - 0.5, Hi: hi + 0.5}
	}
	return Domain{Lo: lo, Hi: hi}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
