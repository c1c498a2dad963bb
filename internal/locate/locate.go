// Package locate resolves user supplied start locations to graph nodes.
package locate

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/mohammed-shakir/eulerian-streets/internal/core/model"
)

var (
	ErrEmptyGraph  = errors.New("graph has no nodes")
	ErrUnknownNode = errors.New("node not in graph")
	ErrNoGeocoder  = errors.New("address start requires a geocoder")
)

// Geocoder turns a free-form address into a lon/lat point.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (orb.Point, error)
}

// Nearest returns the id of the node closest to p after projecting p and all
// nodes with proj. Equal distances resolve to the earliest node. A nil proj
// selects the UTM zone of the centroid of the nodes and p together.
func Nearest(p orb.Point, nodes []model.Node, proj orb.Projection) (model.NodeID, error) {
	if len(nodes) == 0 {
		return 0, ErrEmptyGraph
	}
	if proj == nil {
		proj = UTMFor(append(points(nodes), p)...)
	}

	target := proj(p)
	best := -1
	bestDist := math.Inf(1)
	for i, n := range nodes {
		d := planar.Distance(target, proj(n.Point))
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		// every distance was NaN
		best = 0
	}
	return nodes[best].ID, nil
}

// Resolve turns a start specification into a node id. ok is false when the
// start is StartNone and the caller should use its default.
func Resolve(ctx context.Context, s model.Start, nodes []model.Node, gc Geocoder) (id model.NodeID, ok bool, err error) {
	switch s.Kind {
	case model.StartNone:
		return 0, false, nil
	case model.StartNode:
		for _, n := range nodes {
			if n.ID == s.Node {
				return n.ID, true, nil
			}
		}
		return 0, false, fmt.Errorf("%w: %d", ErrUnknownNode, s.Node)
	case model.StartPoint:
		id, err := Nearest(s.Point, nodes, nil)
		if err != nil {
			return 0, false, err
		}
		return id, true, nil
	case model.StartAddress:
		if gc == nil {
			return 0, false, ErrNoGeocoder
		}
		if len(nodes) == 0 {
			return 0, false, ErrEmptyGraph
		}
		p, err := gc.Geocode(ctx, strings.TrimSpace(s.Address))
		if err != nil {
			return 0, false, fmt.Errorf("geocode start %q: %w", s.Address, err)
		}
		id, err := Nearest(p, nodes, nil)
		if err != nil {
			return 0, false, err
		}
		return id, true, nil
	default:
		return 0, false, fmt.Errorf("unsupported start kind %d", s.Kind)
	}
}

func points(nodes []model.Node) []orb.Point {
	out := make([]orb.Point, len(nodes))
	for i, n := range nodes {
		out[i] = n.Point
	}
	return out
}
