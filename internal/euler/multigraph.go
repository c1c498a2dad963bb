package euler

import (
	"fmt"
	"math"
	"strconv"

	"github.com/katalvlaran/lvlath/bfs"
	"github.com/katalvlaran/lvlath/core"
	"github.com/paulmach/orb/geo"

	"github.com/mohammed-shakir/eulerian-streets/internal/core/model"
)

// multigraph is an index based view of a model.Graph. Edge i of the view is
// edge i of the source graph, so parallel edges stay distinct.
type multigraph struct {
	ids    []model.NodeID
	index  map[model.NodeID]int
	adj    [][]int
	ends   [][2]int
	weight []float64
}

func newMultigraph(g model.Graph) (*multigraph, error) {
	mg := &multigraph{
		ids:    make([]model.NodeID, len(g.Nodes)),
		index:  make(map[model.NodeID]int, len(g.Nodes)),
		adj:    make([][]int, len(g.Nodes)),
		ends:   make([][2]int, 0, len(g.Edges)),
		weight: make([]float64, 0, len(g.Edges)),
	}
	for i, n := range g.Nodes {
		if _, dup := mg.index[n.ID]; dup {
			return nil, fmt.Errorf("duplicate node %d", n.ID)
		}
		mg.ids[i] = n.ID
		mg.index[n.ID] = i
	}
	for i, e := range g.Edges {
		u, ok := mg.index[e.U]
		if !ok {
			return nil, fmt.Errorf("edge %d: %w: %d", i, ErrUnknownEndpoint, e.U)
		}
		v, ok := mg.index[e.V]
		if !ok {
			return nil, fmt.Errorf("edge %d: %w: %d", i, ErrUnknownEndpoint, e.V)
		}
		w := e.Length
		if w <= 0 && len(e.Geometry) > 1 {
			w = geo.Length(e.Geometry)
		}
		mg.ends = append(mg.ends, [2]int{u, v})
		mg.weight = append(mg.weight, w)
		mg.adj[u] = append(mg.adj[u], v)
		if u != v {
			mg.adj[v] = append(mg.adj[v], u)
		}
	}
	return mg, nil
}

func (mg *multigraph) degree(u int) int {
	d := 0
	for _, v := range mg.adj[u] {
		if v == u {
			d += 2
		} else {
			d++
		}
	}
	return d
}

// odd returns odd degree vertices in node order.
func (mg *multigraph) odd() []int {
	var out []int
	for u := range mg.adj {
		if mg.degree(u)%2 == 1 {
			out = append(out, u)
		}
	}
	return out
}

// connected reports whether all vertices with edges are in one component.
func (mg *multigraph) connected() bool {
	start := mg.firstWithEdges()
	if start < 0 {
		return true
	}
	g := core.NewGraph(core.WithMultiEdges(), core.WithLoops())
	withEdges := 0
	for u := range mg.adj {
		if len(mg.adj[u]) > 0 {
			withEdges++
		}
	}
	for _, ends := range mg.ends {
		if _, err := g.AddEdge(vertexID(ends[0]), vertexID(ends[1]), 0); err != nil {
			return false
		}
	}
	res, err := bfs.BFS(g, vertexID(start))
	if err != nil {
		return false
	}
	return len(res.Order) == withEdges
}

func (mg *multigraph) firstWithEdges() int {
	for u := range mg.adj {
		if len(mg.adj[u]) > 0 {
			return u
		}
	}
	return -1
}

// vertexAdj lists neighbours per vertex, one entry per edge end. Self loops
// appear twice so the tour removes them as a pair.
func (mg *multigraph) vertexAdj() [][]int {
	adj := make([][]int, len(mg.adj))
	for u, near := range mg.adj {
		adj[u] = make([]int, 0, len(near))
		for _, v := range near {
			adj[u] = append(adj[u], v)
			if v == u {
				adj[u] = append(adj[u], u)
			}
		}
	}
	return adj
}

func vertexID(u int) string { return strconv.Itoa(u) }

// millimetres keeps lengths integral for the routing graph.
func millimetres(m float64) int64 {
	if m <= 0 || math.IsNaN(m) {
		return 0
	}
	return int64(math.Round(m * 1000))
}

// routing builds a weighted multigraph for shortest path queries. Every
// street is added in both directions; loops never shorten a route and are
// left out.
func (mg *multigraph) routing() (*core.Graph, error) {
	g := core.NewGraph(core.WithDirected(true), core.WithWeighted(), core.WithMultiEdges())
	for i, ends := range mg.ends {
		u, v := ends[0], ends[1]
		if u == v {
			continue
		}
		w := millimetres(mg.weight[i])
		if _, err := g.AddEdge(vertexID(u), vertexID(v), w); err != nil {
			return nil, fmt.Errorf("routing edge %d: %w", i, err)
		}
		if _, err := g.AddEdge(vertexID(v), vertexID(u), w); err != nil {
			return nil, fmt.Errorf("routing edge %d: %w", i, err)
		}
	}
	return g, nil
}

// lightest maps each unordered vertex pair to its shortest edge, lowest
// index first on equal length.
func (mg *multigraph) lightest() map[[2]int]int {
	out := make(map[[2]int]int, len(mg.ends))
	for i, ends := range mg.ends {
		k := pairKey(ends[0], ends[1])
		if j, ok := out[k]; !ok || millimetres(mg.weight[i]) < millimetres(mg.weight[j]) {
			out[k] = i
		}
	}
	return out
}

func pairKey(u, v int) [2]int {
	if u > v {
		u, v = v, u
	}
	return [2]int{u, v}
}

// pathEdges follows prev back from v to u and returns the edges on the way,
// picking the lightest of any parallel edges for each step.
func (mg *multigraph) pathEdges(u, v int, prev map[string]string, light map[[2]int]int) ([]int, error) {
	var out []int
	for v != u {
		p, err := strconv.Atoi(prev[vertexID(v)])
		if err != nil {
			return nil, fmt.Errorf("%w: no route to node %d", ErrDisconnected, mg.ids[v])
		}
		e, ok := light[pairKey(p, v)]
		if !ok {
			return nil, fmt.Errorf("%w: no edge between %d and %d", ErrDisconnected, mg.ids[p], mg.ids[v])
		}
		out = append(out, e)
		v = p
	}
	return out, nil
}
