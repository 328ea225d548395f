package render

import (
	"context"
	"strings"

	"github.com/abid8042/chessnetviz/pkg/errors"
	"github.com/abid8042/chessnetviz/pkg/graph"
	"github.com/abid8042/chessnetviz/pkg/render/nodelink"
	"github.com/abid8042/chessnetviz/pkg/render/sink"
)

// Format is an output format.
type Format string

// Output formats.
const (
	FormatSVG      Format = "svg"
	FormatPNG      Format = "png"
	FormatJSON     Format = "json"
	FormatDOT      Format = "dot"
	FormatGraphviz Format = "graphviz"
)

// Formats lists every format in help order.
var Formats = []Format{FormatSVG, FormatPNG, FormatJSON, FormatDOT, FormatGraphviz}

// ParseFormat converts a string into a Format.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats {
		if string(f) == strings.ToLower(s) {
			return f, nil
		}
	}
	return "", errors.New(errors.ErrCodeInvalidFormat,
		"invalid format: %q (must be one of: svg, png, json, dot, graphviz)", s)
}

// ParseFormats parses a comma-separated format list, dropping duplicates.
func ParseFormats(s string) ([]Format, error) {
	var out []Format
	seen := make(map[Format]bool)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		f, err := ParseFormat(part)
		if err != nil {
			return nil, err
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "no output format given")
	}
	return out, nil
}

// Ext returns the file extension for the format.
func (f Format) Ext() string {
	if f == FormatGraphviz {
		return "gv.svg"
	}
	return string(f)
}

// ContentType returns the MIME type of the format's output.
func (f Format) ContentType() string {
	switch f {
	case FormatSVG, FormatGraphviz:
		return "image/svg+xml"
	case FormatPNG:
		return "image/png"
	case FormatJSON:
		return "application/json"
	case FormatDOT:
		return "text/vnd.graphviz"
	}
	return "application/octet-stream"
}

// Render draws s in format f.
func Render(ctx context.Context, s graph.Snapshot, f Format) ([]byte, error) {
	switch f {
	case FormatSVG:
		return sink.RenderSVG(s), nil
	case FormatPNG:
		data, err := sink.RenderPNG(s)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode png")
		}
		return data, nil
	case FormatJSON:
		return sink.RenderJSON(s)
	case FormatDOT:
		return []byte(nodelink.ToDOT(s, nodelink.Options{Detailed: true})), nil
	case FormatGraphviz:
		data, err := nodelink.RenderSVG(ctx, nodelink.ToDOT(s, nodelink.Options{Background: sink.Background}))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "graphviz")
		}
		return data, nil
	}
	return nil, errors.New(errors.ErrCodeUnsupported, "unsupported format %q", f)
}
