package osmgraph

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"github.com/mohammed-shakir/eulerian-streets/internal/core/model"
)

type rawWay struct {
	id   int64
	name string
	refs []model.NodeID
}

// buildGraph splits ways at intersections and way ends. A node is an
// intersection when it is referenced more than once across all kept ways.
// order lists node ids in file order and fixes the output node order.
func buildGraph(points map[model.NodeID]orb.Point, order []model.NodeID, ways []rawWay) model.Graph {
	refs := make(map[model.NodeID]int)
	for _, w := range ways {
		for _, id := range w.refs {
			refs[id]++
		}
	}

	used := make(map[model.NodeID]bool)
	var edges []model.Edge
	for _, w := range ways {
		for _, run := range knownRuns(w.refs, points) {
			start := 0
			for i := 1; i < len(run); i++ {
				if i != len(run)-1 && refs[run[i]] < 2 {
					continue
				}
				if e, ok := segment(run[start:i+1], points, w); ok {
					edges = append(edges, e)
					used[e.U], used[e.V] = true, true
				}
				start = i
			}
		}
	}

	nodes := make([]model.Node, 0, len(used))
	for _, id := range order {
		if used[id] {
			nodes = append(nodes, model.Node{ID: id, Point: points[id]})
			delete(used, id)
		}
	}
	return model.Graph{Nodes: nodes, Edges: edges}
}

// knownRuns cuts refs wherever a node has no coordinates, which happens at
// the border of clipped extracts.
func knownRuns(refs []model.NodeID, points map[model.NodeID]orb.Point) [][]model.NodeID {
	var out [][]model.NodeID
	var cur []model.NodeID
	for _, id := range refs {
		if _, ok := points[id]; !ok {
			if len(cur) > 1 {
				out = append(out, cur)
			}
			cur = nil
			continue
		}
		cur = append(cur, id)
	}
	if len(cur) > 1 {
		out = append(out, cur)
	}
	return out
}

func segment(ids []model.NodeID, points map[model.NodeID]orb.Point, w rawWay) (model.Edge, bool) {
	ls := make(orb.LineString, 0, len(ids))
	for _, id := range ids {
		p := points[id]
		if n := len(ls); n > 0 && ls[n-1].Equal(p) {
			continue
		}
		ls = append(ls, p)
	}
	if len(ls) < 2 {
		return model.Edge{}, false
	}
	return model.Edge{
		U:        ids[0],
		V:        ids[len(ids)-1],
		Geometry: ls,
		Length:   geo.Length(ls),
		WayID:    w.id,
		Name:     w.name,
	}, true
}

// LargestComponent keeps the connected component with the most nodes. Ties
// go to the component holding the earliest node.
func LargestComponent(g model.Graph) model.Graph {
	if len(g.Nodes) == 0 {
		return g
	}
	idx := g.NodeIndex()
	parent := make([]int, len(g.Nodes))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	for _, e := range g.Edges {
		a, okA := idx[e.U]
		b, okB := idx[e.V]
		if !okA || !okB {
			continue
		}
		ra, rb := find(a), find(b)
		if ra != rb {
			if rb < ra {
				ra, rb = rb, ra
			}
			parent[rb] = ra
		}
	}

	size := make(map[int]int)
	for i := range g.Nodes {
		size[find(i)]++
	}
	best := find(0)
	for i := range g.Nodes {
		r := find(i)
		if size[r] > size[best] {
			best = r
		}
	}

	out := model.Graph{}
	for i, n := range g.Nodes {
		if find(i) == best {
			out.Nodes = append(out.Nodes, n)
		}
	}
	for _, e := range g.Edges {
		if a, ok := idx[e.U]; ok && find(a) == best {
			out.Edges = append(out.Edges, e)
		}
	}
	return out
}
