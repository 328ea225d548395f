package pipeline

import (
	"context"
	"time"

	"github.com/abid8042/chessnetviz/pkg/graph"
	"github.com/abid8042/chessnetviz/pkg/observability"
	"github.com/abid8042/chessnetviz/pkg/render"
)

// RenderArtifacts encodes s in every format, keyed by format name.
func RenderArtifacts(ctx context.Context, s graph.Snapshot, formats []render.Format) (map[string][]byte, error) {
	names := formatNames(formats)
	observability.Pipeline().OnRenderStart(ctx, names)
	start := time.Now()

	out, err := renderAll(ctx, s, formats)
	observability.Pipeline().OnRenderComplete(ctx, names, time.Since(start), err)
	return out, err
}

func renderAll(ctx context.Context, s graph.Snapshot, formats []render.Format) (map[string][]byte, error) {
	out := make(map[string][]byte, len(formats))
	for _, f := range formats {
		data, err := render.Render(ctx, s, f)
		if err != nil {
			return nil, err
		}
		out[string(f)] = data
	}
	return out, nil
}

func formatNames(formats []render.Format) []string {
	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = string(f)
	}
	return names
}
