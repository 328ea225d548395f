package cli

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abid8042/chessnetviz/pkg/dataset"
	"github.com/abid8042/chessnetviz/pkg/errors"
	"github.com/abid8042/chessnetviz/pkg/graph"
	"github.com/abid8042/chessnetviz/pkg/pipeline"
)

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		move  int
		scope string
		top   int
	)

	cmd := &cobra.Command{
		Use:   "inspect [dataset.json]",
		Short: "Summarize a dataset or one of its moves",
		Long: `Without --move, list every move with its graph sizes per scope.

With --move, show the move's aggregate statistics, connected components,
metric summaries, most influential squares and captured pieces.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := pipeline.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("move") {
				printMoves(src)
				return nil
			}
			s, err := graph.ParseScope(scope)
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidScope, err, "scope")
			}
			return inspectMove(cmd.Context(), src, move, s, top)
		},
	}

	cmd.Flags().IntVarP(&move, "move", "m", 0, "move to inspect")
	cmd.Flags().StringVarP(&scope, "scope", "s", string(graph.ScopeCombined), "graph scope: combined, white, black")
	cmd.Flags().IntVar(&top, "top", 5, "number of most influential squares to list")

	return cmd
}

// printMoves lists every move with node and link counts per scope.
func printMoves(src *pipeline.Source) {
	d := src.Dataset
	printKeyValue("Dataset", src.Name)
	if d.Metadata.Description != "" {
		printKeyValue("Description", d.Metadata.Description)
	}
	printKeyValue("Moves", strconv.Itoa(d.Len()))
	printNewline()

	rows := make([][]string, 0, d.Len())
	for i := range d.Moves {
		m := &d.Moves[i]
		row := []string{strconv.Itoa(i), m.Label()}
		for _, s := range graph.Scopes {
			sd := m.Graphs.Scope(s)
			if sd == nil {
				row = append(row, "-")
				continue
			}
			row = append(row, fmt.Sprintf("%d / %d", len(sd.Nodes), len(sd.Links)))
		}
		rows = append(rows, row)
	}
	printTable("Moves", []string{"#", "Move", "Combined n/l", "White n/l", "Black n/l"}, rows)
}

// inspectMove prints the detail tables of one move scope.
func inspectMove(_ context.Context, src *pipeline.Source, idx int, s graph.Scope, top int) error {
	p, err := src.Dataset.Process(idx, s)
	if err != nil {
		return err
	}
	m, _ := src.Dataset.Move(idx)

	printKeyValue("Move", fmt.Sprintf("%d (%s)", idx, m.Label()))
	printKeyValue("FEN", m.FEN)
	printKeyValue("Scope", string(s))
	printKeyValue("Nodes", strconv.Itoa(len(p.Nodes)))
	printKeyValue("Links", strconv.Itoa(len(p.Links)))
	printKeyValue("Groups", strconv.Itoa(len(p.Groups)))
	printNewline()

	a := p.Aggregate
	printTable("Aggregate statistics", []string{"Statistic", "Value"}, [][]string{
		{"Fiedler value", optFloat(a.FiedlerValue)},
		{"Out-diameter", fmtFloat(a.OutDiameter)},
		{"In-diameter", fmtFloat(a.InDiameter)},
		{"In-degree avg / var", fmtFloat(a.InDegreeAvg) + " / " + fmtFloat(a.InDegreeVar)},
		{"Out-degree avg / var", fmtFloat(a.OutDegreeAvg) + " / " + fmtFloat(a.OutDegreeVar)},
		{"Modularity", fmtFloat(a.Modularity)},
		{"Communities", strconv.Itoa(a.CommunityCount)},
		{"Clustering", fmtFloat(a.Clustering)},
		{"Size entropy", fmtFloat(a.SizeEntropy)},
	})

	comps := dataset.Components(p.Nodes, p.Links)
	scc := dataset.StronglyConnected(p.Nodes, p.Links)
	rows := make([][]string, 0, len(comps))
	for i, cmp := range comps {
		rows = append(rows, []string{strconv.Itoa(i), strconv.Itoa(len(cmp)), truncate(strings.Join(cmp, " "), 48)})
	}
	printTable(fmt.Sprintf("Components (%d weak, %d strong)", len(comps), len(scc)), []string{"#", "Size", "Squares"}, rows)

	rows = nil
	for _, sm := range dataset.Summarize(p.Nodes) {
		if sm.Count == 0 {
			rows = append(rows, []string{sm.Name, "0", "-", "-", "-", "-"})
			continue
		}
		rows = append(rows, []string{sm.Name, strconv.Itoa(sm.Count), fmtFloat(sm.Min), fmtFloat(sm.Max), fmtFloat(sm.Mean), fmtFloat(sm.StdDev)})
	}
	printTable("Metrics", []string{"Metric", "N", "Min", "Max", "Mean", "StdDev"}, rows)

	if top > 0 {
		printTable("Most influential squares", []string{"Square", "Piece", "PageRank"}, influenceRows(p, top))
	}

	captured := dataset.CapturedPieces(src.Dataset.Moves, idx)
	if len(captured) > 0 {
		rows = nil
		for _, pc := range captured {
			at := "-"
			if pc.CapturedAt != nil {
				at = strconv.Itoa(*pc.CapturedAt)
			}
			rows = append(rows, []string{pc.ID, pc.Color, pc.Type, at})
		}
		printTable("Captured pieces", []string{"Piece", "Color", "Type", "Move"}, rows)
	}
	return nil
}

// influenceRows lists the top squares by PageRank over the influence links.
func influenceRows(p *dataset.Processed, top int) [][]string {
	inf := dataset.Influence(p.Nodes, p.Links)
	ids := make([]string, 0, len(inf))
	for id := range inf {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if inf[ids[i]] != inf[ids[j]] {
			return inf[ids[i]] > inf[ids[j]]
		}
		return ids[i] < ids[j]
	})
	if len(ids) > top {
		ids = ids[:top]
	}

	symbol := make(map[string]string, len(p.Nodes))
	for i := range p.Nodes {
		symbol[p.Nodes[i].ID] = p.Nodes[i].PieceSymbol
	}
	rows := make([][]string, len(ids))
	for i, id := range ids {
		sym := symbol[id]
		if sym == "" {
			sym = "-"
		}
		rows[i] = []string{id, sym, fmtFloat(inf[id])}
	}
	return rows
}

func fmtFloat(v float64) string { return strconv.FormatFloat(v, 'f', 3, 64) }

func optFloat(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmtFloat(*v)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
