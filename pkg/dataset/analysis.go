package dataset

import (
	"math"
	"sort"

	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/stat"

	"github.com/abid8042/chessnetviz/pkg/graph"
)

// =============================================================================
// Structure
// =============================================================================

// index maps square ids to gonum node ids.
type index struct {
	ids   map[string]int64
	names map[int64]string
}

func newIndex(nodes []graph.Node) index {
	ix := index{ids: make(map[string]int64, len(nodes)), names: make(map[int64]string, len(nodes))}
	for i := range nodes {
		if _, ok := ix.ids[nodes[i].ID]; ok {
			continue
		}
		id := int64(len(ix.ids))
		ix.ids[nodes[i].ID] = id
		ix.names[id] = nodes[i].ID
	}
	return ix
}

func (ix index) groups(in [][]gonum.Node) [][]string {
	out := make([][]string, 0, len(in))
	for _, c := range in {
		ids := make([]string, len(c))
		for i, n := range c {
			ids[i] = ix.names[n.ID()]
		}
		sort.Strings(ids)
		out = append(out, ids)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) > len(out[j])
		}
		return out[i][0] < out[j][0]
	})
	return out
}

func (ix index) undirected(links []graph.Link) *simple.UndirectedGraph {
	g := simple.NewUndirectedGraph()
	for _, id := range ix.ids {
		g.AddNode(simple.Node(id))
	}
	for _, l := range links {
		u, uok := ix.ids[l.Source]
		v, vok := ix.ids[l.Target]
		if !uok || !vok || u == v {
			continue
		}
		g.SetEdge(g.NewEdge(simple.Node(u), simple.Node(v)))
	}
	return g
}

func (ix index) directed(links []graph.Link) *simple.DirectedGraph {
	g := simple.NewDirectedGraph()
	for _, id := range ix.ids {
		g.AddNode(simple.Node(id))
	}
	for _, l := range links {
		u, uok := ix.ids[l.Source]
		v, vok := ix.ids[l.Target]
		if !uok || !vok || u == v {
			continue
		}
		g.SetEdge(g.NewEdge(simple.Node(u), simple.Node(v)))
	}
	return g
}

// Components returns the weakly connected components of the subgraph induced
// by nodes, largest first. Ids inside a component are sorted.
func Components(nodes []graph.Node, links []graph.Link) [][]string {
	ix := newIndex(nodes)
	return ix.groups(topo.ConnectedComponents(ix.undirected(links)))
}

// StronglyConnected returns the strongly connected components of the
// directed subgraph induced by nodes, largest first.
func StronglyConnected(nodes []graph.Node, links []graph.Link) [][]string {
	ix := newIndex(nodes)
	return ix.groups(topo.TarjanSCC(ix.directed(links)))
}

// Influence ranks squares by PageRank over the influence links.
func Influence(nodes []graph.Node, links []graph.Link) map[string]float64 {
	ix := newIndex(nodes)
	if len(ix.ids) == 0 {
		return map[string]float64{}
	}
	ranks := network.PageRank(ix.directed(links), 0.85, 1e-6)
	out := make(map[string]float64, len(ranks))
	for id, r := range ranks {
		out[ix.names[id]] = r
	}
	return out
}

// =============================================================================
// Metric Summaries
// =============================================================================

// Summary describes the present values of one metric.
type Summary struct {
	Metric graph.MetricKey `json:"-"`
	Name   string          `json:"metric"`
	Count  int             `json:"count"`
	Min    float64         `json:"min"`
	Max    float64         `json:"max"`
	Mean   float64         `json:"mean"`
	StdDev float64         `json:"std_dev"`
}

// Summarize computes a Summary for every metric over nodes. Metrics without
// values report a zero count and zero statistics.
func Summarize(nodes []graph.Node) []Summary {
	out := make([]Summary, 0, graph.NumMetrics)
	for _, k := range graph.MetricKeys() {
		s := Summary{Metric: k, Name: k.String()}
		var values []float64
		for i := range nodes {
			if v, ok := nodes[i].Metric(k); ok {
				values = append(values, v)
			}
		}
		s.Count = len(values)
		if s.Count > 0 {
			s.Min, s.Max = math.Inf(1), math.Inf(-1)
			for _, v := range values {
				s.Min = math.Min(s.Min, v)
				s.Max = math.Max(s.Max, v)
			}
			s.Mean, s.StdDev = stat.MeanStdDev(values, nil)
			if s.Count == 1 || math.IsNaN(s.StdDev) {
				s.StdDev = 0
			}
		}
		out = append(out, s)
	}
	return out
}
