// Package trail turns an Eulerian hop sequence into a continuous coordinate
// trail.
//
// A Catalog indexes edge geometries by unordered node pair. When several
// geometries share a pair (parallel streets between two intersections) each
// traversal of that pair takes the next one in round-robin order, so every
// physical segment is used before any repeats. A pair with a single geometry
// always yields that geometry, which is how duplicate traversals added by
// eulerization are rendered.
//
// Catalog cursors are per computation state. Use Clone or Reset before
// walking a second hop sequence over the same graph.
package trail

import (
	"sort"

	"github.com/paulmach/orb"

	"github.com/mohammed-shakir/eulerian-streets/internal/core/model"
)

type record struct {
	geoms  []orb.LineString
	cursor int
}

// Catalog maps node pairs to their edge geometries and hands parallel edges out round-robin.
type Catalog struct {
	pairs map[model.Pair]*record
	// reuses counts how many times a pair was traversed again after all of
	// its geometries had been used once.
	reuses int
	seen   map[model.Pair]int
}

// NewCatalog groups edge geometries by unordered endpoint pair, keeping input
// order. Parallel edges stay distinct entries.
func NewCatalog(edges []model.Edge) *Catalog {
	c := &Catalog{
		pairs: make(map[model.Pair]*record, len(edges)),
		seen:  make(map[model.Pair]int),
	}
	for _, e := range edges {
		k := model.PairOf(e.U, e.V)
		r, ok := c.pairs[k]
		if !ok {
			r = &record{}
			c.pairs[k] = r
		}
		r.geoms = append(r.geoms, e.Geometry)
	}
	return c
}

// Next returns the geometry to use for the current traversal of {u, v} and
// advances that pair's cursor when it holds more than one geometry.
func (c *Catalog) Next(u, v model.NodeID) (orb.LineString, error) {
	k := model.PairOf(u, v)
	r, ok := c.pairs[k]
	if !ok || len(r.geoms) == 0 {
		return nil, &EdgeNotFoundError{U: u, V: v}
	}

	c.seen[k]++
	if c.seen[k] > len(r.geoms) {
		c.reuses++
	}

	g := r.geoms[r.cursor]
	if len(r.geoms) > 1 {
		r.cursor = (r.cursor + 1) % len(r.geoms)
	}
	return g, nil
}

// Reset rewinds every cursor to zero.
func (c *Catalog) Reset() {
	for _, r := range c.pairs {
		r.cursor = 0
	}
	c.reuses = 0
	c.seen = make(map[model.Pair]int)
}

// Clone returns a catalog with fresh cursors that shares the geometry lists.
func (c *Catalog) Clone() *Catalog {
	out := &Catalog{
		pairs: make(map[model.Pair]*record, len(c.pairs)),
		seen:  make(map[model.Pair]int),
	}
	for k, r := range c.pairs {
		out.pairs[k] = &record{geoms: r.geoms}
	}
	return out
}

// Len returns the number of distinct node pairs.
func (c *Catalog) Len() int { return len(c.pairs) }

// Multiplicity returns how many geometries connect u and v.
func (c *Catalog) Multiplicity(u, v model.NodeID) int {
	if r, ok := c.pairs[model.PairOf(u, v)]; ok {
		return len(r.geoms)
	}
	return 0
}

// Reuses reports traversals that repeated an already used geometry.
func (c *Catalog) Reuses() int { return c.reuses }

// Pairs returns the catalog keys sorted by (A, B).
func (c *Catalog) Pairs() []model.Pair {
	out := make([]model.Pair, 0, len(c.pairs))
	for k := range c.pairs {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].A != out[j].A {
			return out[i].A < out[j].A
		}
		return out[i].B < out[j].B
	})
	return out
}
