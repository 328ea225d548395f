package sink

import "github.com/abid8042/chessnetviz/pkg/graph"

// RenderJSON exports the snapshot itself. The output can be read back with
// graph.UnmarshalSnapshot and re-rendered by any other sink.
func RenderJSON(s graph.Snapshot) ([]byte, error) {
	return graph.MarshalSnapshot(s)
}
