// Package euler computes Eulerian circuits and paths over street multigraphs.
//
// Circuits that do not exist are made possible by eulerizing: odd degree
// nodes are paired and every edge on a shortest path between the two nodes
// of a pair is traversed one extra time. Extra traversals reuse the existing
// edge; no new geometry is created.
package euler

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/katalvlaran/lvlath/dijkstra"
	"github.com/katalvlaran/lvlath/tsp"

	"github.com/mohammed-shakir/eulerian-streets/internal/core/model"
)

var (
	ErrNotEulerian     = errors.New("graph is not eulerian")
	ErrNoEulerianPath  = errors.New("graph has no eulerian path")
	ErrDisconnected    = errors.New("graph is not connected")
	ErrInvalidSource   = errors.New("invalid source node")
	ErrUnknownEndpoint = errors.New("edge endpoint not in node set")
)

// HasCircuit reports whether g is connected and every degree is even.
func HasCircuit(g model.Graph) bool {
	mg, err := newMultigraph(g)
	if err != nil {
		return false
	}
	return mg.connected() && len(mg.odd()) == 0
}

// HasPath reports whether g is connected with zero or two odd degree nodes.
func HasPath(g model.Graph) bool {
	mg, err := newMultigraph(g)
	if err != nil {
		return false
	}
	n := len(mg.odd())
	return mg.connected() && (n == 0 || n == 2)
}

// Eulerize returns g with duplicated edges appended so that every node has
// even degree. Odd nodes are paired greedily in node order, each with the
// nearest unpaired odd node by shortest path length.
func Eulerize(g model.Graph) (model.Graph, error) {
	mg, err := newMultigraph(g)
	if err != nil {
		return model.Graph{}, err
	}
	if !mg.connected() {
		return model.Graph{}, ErrDisconnected
	}

	odd := mg.odd()
	if len(odd) == 0 {
		return g, nil
	}
	routes, err := mg.routing()
	if err != nil {
		return model.Graph{}, err
	}

	light := mg.lightest()
	paired := make(map[int]bool, len(odd))
	var extra []model.Edge
	for _, u := range odd {
		if paired[u] {
			continue
		}
		dist, prev, err := dijkstra.Dijkstra(routes, dijkstra.Source(vertexID(u)), dijkstra.WithReturnPath())
		if err != nil {
			return model.Graph{}, fmt.Errorf("shortest paths from node %d: %w", mg.ids[u], err)
		}
		best := -1
		for _, v := range odd {
			d, ok := dist[vertexID(v)]
			if v == u || paired[v] || !ok || d == math.MaxInt64 {
				continue
			}
			if best < 0 || d < dist[vertexID(best)] {
				best = v
			}
		}
		if best < 0 {
			return model.Graph{}, fmt.Errorf("%w: no partner for node %d", ErrDisconnected, mg.ids[u])
		}
		paired[u], paired[best] = true, true
		edges, err := mg.pathEdges(u, best, prev, light)
		if err != nil {
			return model.Graph{}, err
		}
		for _, e := range edges {
			extra = append(extra, g.Edges[e])
		}
	}

	out := model.Graph{
		Nodes: g.Nodes,
		Edges: make([]model.Edge, 0, len(g.Edges)+len(extra)),
	}
	out.Edges = append(out.Edges, g.Edges...)
	out.Edges = append(out.Edges, extra...)
	return out, nil
}

// Circuit returns an Eulerian circuit as hops, starting at source when given
// or at the first node with edges otherwise.
func Circuit(g model.Graph, source *model.NodeID) ([]model.Hop, error) {
	mg, err := newMultigraph(g)
	if err != nil {
		return nil, err
	}
	if !mg.connected() || len(mg.odd()) > 0 {
		return nil, ErrNotEulerian
	}
	start, err := mg.source(source)
	if err != nil {
		return nil, err
	}
	if start < 0 {
		return nil, nil
	}
	return mg.circuit(start)
}

// Path returns an Eulerian path. With two odd nodes it starts at source,
// which must be one of them, or at the first odd node in node order.
func Path(g model.Graph, source *model.NodeID) ([]model.Hop, error) {
	mg, err := newMultigraph(g)
	if err != nil {
		return nil, err
	}
	if !mg.connected() {
		return nil, ErrNoEulerianPath
	}

	odd := mg.odd()
	switch len(odd) {
	case 0:
		start, err := mg.source(source)
		if err != nil {
			return nil, err
		}
		if start < 0 {
			return nil, nil
		}
		return mg.circuit(start)
	case 2:
		start := odd[0]
		if source != nil {
			s, ok := mg.index[*source]
			if !ok || (s != odd[0] && s != odd[1]) {
				return nil, fmt.Errorf("%w: %d must have odd degree", ErrInvalidSource, *source)
			}
			start = s
		}
		return mg.path(odd[0], odd[1], start)
	default:
		return nil, fmt.Errorf("%w: %d odd degree nodes", ErrNoEulerianPath, len(odd))
	}
}

// Result is the output of Sequence.
type Result struct {
	Hops []model.Hop
	// Added counts edges duplicated by eulerization.
	Added int
}

// Sequence produces the hop sequence for mode. Path mode fails when no
// Eulerian path exists; circuit mode eulerizes first when needed.
func Sequence(g model.Graph, mode model.Mode, source *model.NodeID) (Result, error) {
	switch mode {
	case model.ModePath:
		hops, err := Path(g, source)
		if err != nil {
			return Result{}, err
		}
		return Result{Hops: hops}, nil
	case model.ModeCircuit, "":
		work := g
		if !HasCircuit(g) {
			eg, err := Eulerize(g)
			if err != nil {
				return Result{}, err
			}
			work = eg
		}
		hops, err := Circuit(work, source)
		if err != nil {
			return Result{}, err
		}
		return Result{Hops: hops, Added: len(work.Edges) - len(g.Edges)}, nil
	default:
		return Result{}, fmt.Errorf("%w: %q", model.ErrUnknownMode, mode)
	}
}

func (mg *multigraph) source(source *model.NodeID) (int, error) {
	if source == nil {
		return mg.firstWithEdges(), nil
	}
	s, ok := mg.index[*source]
	if !ok || len(mg.adj[s]) == 0 {
		return 0, fmt.Errorf("%w: %d has no edges", ErrInvalidSource, *source)
	}
	return s, nil
}

// circuit walks every edge once from start and back.
func (mg *multigraph) circuit(start int) ([]model.Hop, error) {
	tour := tsp.EulerianCircuit(mg.vertexAdj(), start)
	if len(tour) != len(mg.ends)+1 {
		return nil, ErrNotEulerian
	}
	slices.Reverse(tour)
	return mg.hops(tour), nil
}

// path joins the odd nodes a and b through a virtual vertex, walks the
// resulting circuit from it and cuts the virtual vertex off both ends.
func (mg *multigraph) path(a, b, start int) ([]model.Hop, error) {
	adj := mg.vertexAdj()
	x := len(adj)
	adj[a] = append(adj[a], x)
	adj[b] = append(adj[b], x)
	adj = append(adj, []int{a, b})

	tour := tsp.EulerianCircuit(adj, x)
	if len(tour) != len(mg.ends)+3 {
		return nil, ErrNoEulerianPath
	}
	tour = tour[1 : len(tour)-1]
	if tour[0] != start {
		slices.Reverse(tour)
	}
	return mg.hops(tour), nil
}

func (mg *multigraph) hops(tour []int) []model.Hop {
	out := make([]model.Hop, 0, len(tour)-1)
	for i := 1; i < len(tour); i++ {
		out = append(out, model.Hop{U: mg.ids[tour[i-1]], V: mg.ids[tour[i]]})
	}
	return out
}
