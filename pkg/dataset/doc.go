// Package dataset loads chess influence-graph datasets and prepares one move
// scope at a time for layout.
//
// A dataset file holds every half-move of a game. Each move carries the piece
// list and three scope graphs (combined, white, black) of squares connected
// by influence links, with eight per-node metrics. [ReadFile] decodes and
// validates the file; failures carry errors.ErrCodeInvalidDataset.
//
// # Processing
//
// [Dataset.Process] turns one move scope into graph nodes and links with
// group tags, piece names and per-metric data ranges. [Filters] then selects
// the visible subset and [ApplyFiltersAndSort] orders it, keeping only links
// whose endpoints both survive:
//
//	p, err := ds.Process(12, graph.ScopeWhite)
//	if err != nil {
//		return err
//	}
//	f := dataset.NewFilters(p.Ranges)
//	f.SetRange(graph.InDegreeCentrality, 0.1, 1)
//	nodes, links := dataset.ApplyFiltersAndSort(p.Nodes, p.Links, f, graph.DefaultSort)
//
// When the move or scope changes, [Filters.Rebase] carries the user's windows
// over to the new data ranges.
//
// # Inspection
//
// [CapturedPieces], [Components], [StronglyConnected], [Influence] and
// [Summarize] back the inspect command and the HTTP API.
package dataset
