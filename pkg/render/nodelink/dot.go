package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/abid8042/chessnetviz/pkg/graph"
	"github.com/abid8042/chessnetviz/pkg/scene"
)

// pointsPerInch converts layout units (treated as points) to Graphviz inches.
const pointsPerInch = 72.0

// Options configures DOT generation.
type Options struct {
	// Detailed adds the group tag under each node label.
	Detailed bool
	// Background is the graph background; "" is transparent.
	Background string
}

// ToDOT converts a snapshot to Graphviz DOT with every node pinned at its
// simulated position. Graphviz's y axis points up, so y is negated.
func ToDOT(s graph.Snapshot, opts Options) string {
	bg := opts.Background
	if bg == "" {
		bg = "transparent"
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  bgcolor=%q;\n", bg)
	buf.WriteString("  splines=false;\n")
	buf.WriteString("  overlap=true;\n")
	buf.WriteString("  outputorder=edgesfirst;\n")
	buf.WriteString("  node [shape=circle, fixedsize=true, style=filled, fontname=\"sans-serif\"];\n")
	fmt.Fprintf(&buf, "  edge [color=%q, arrowsize=0.5];\n", scene.LinkStroke)
	buf.WriteString("\n")

	for _, n := range s.Nodes {
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(nodeAttrs(n, opts.Detailed), ", "))
	}

	buf.WriteString("\n")
	for _, l := range s.Links {
		fmt.Fprintf(&buf, "  %q -> %q [penwidth=%s, color=%q];\n",
			l.Source, l.Target, fnum(l.Width), withAlpha(scene.LinkStroke, l.Opacity))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(n graph.PlacedNode, detailed bool) []string {
	label := n.Label
	if n.SubLabel != "" {
		label += "\n" + n.SubLabel
	}
	if detailed {
		label += "\n" + n.GroupTag
	}
	return []string{
		fmt.Sprintf("pos=\"%s,%s!\"", fnum(n.X), fnum(-n.Y)),
		fmt.Sprintf("width=%s", fnum(2*n.Radius/pointsPerInch)),
		fmt.Sprintf("label=%q", label),
		fmt.Sprintf("fillcolor=%q", withAlpha(n.Fill, n.Opacity)),
		fmt.Sprintf("color=%q", withAlpha(n.Stroke, n.Opacity)),
		fmt.Sprintf("fontcolor=%q", n.LabelFill),
		fmt.Sprintf("fontsize=%s", fnum(n.LabelSize)),
		fmt.Sprintf("penwidth=%s", fnum(n.StrokeWidth)),
	}
}

// withAlpha appends an alpha byte to a #rrggbb color when opacity < 1.
func withAlpha(hex string, opacity float64) string {
	if opacity >= 1 || len(hex) != 7 {
		return hex
	}
	a := int(math.Round(math.Max(0, opacity) * 255))
	return fmt.Sprintf("%s%02x", hex, a)
}

func fnum(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// RenderSVG lays out a DOT graph with neato, which keeps pinned positions,
// and returns the SVG bytes.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-sized root element with a plain
// pixel-sized one so the output scales like the other sinks.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
