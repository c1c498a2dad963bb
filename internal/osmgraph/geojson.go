package osmgraph

import (
	"fmt"
	"io"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"

	"github.com/mohammed-shakir/eulerian-streets/internal/core/model"
)

// DecodeGeoJSON reads a FeatureCollection holding Point features with an
// "osmid" property (nodes) and LineString features with "u" and "v"
// properties (edges). Edge endpoints without a node feature take their
// coordinates from the first and last geometry point.
func DecodeGeoJSON(r io.Reader) (model.Graph, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return model.Graph{}, fmt.Errorf("read geojson: %w", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(raw)
	if err != nil {
		return model.Graph{}, fmt.Errorf("parse geojson: %w", err)
	}

	points := make(map[model.NodeID]orb.Point)
	var order []model.NodeID
	addNode := func(id model.NodeID, p orb.Point) {
		if _, ok := points[id]; ok {
			return
		}
		points[id] = p
		order = append(order, id)
	}

	var edges []model.Edge
	for i, f := range fc.Features {
		switch geom := f.Geometry.(type) {
		case orb.Point:
			id, ok := propID(f.Properties, "osmid")
			if !ok {
				return model.Graph{}, fmt.Errorf("feature %d: point without osmid", i)
			}
			addNode(id, geom)
		case orb.LineString:
			u, okU := propID(f.Properties, "u")
			v, okV := propID(f.Properties, "v")
			if !okU || !okV {
				return model.Graph{}, fmt.Errorf("feature %d: linestring without u/v", i)
			}
			if len(geom) < 2 {
				return model.Graph{}, fmt.Errorf("feature %d: linestring has < 2 points", i)
			}
			length := f.Properties.MustFloat64("length", 0)
			if length <= 0 {
				length = geo.Length(geom)
			}
			edges = append(edges, model.Edge{
				U:        u,
				V:        v,
				Geometry: geom,
				Length:   length,
				WayID:    int64(f.Properties.MustFloat64("osmid", 0)),
				Name:     f.Properties.MustString("name", ""),
			})
		}
	}

	// endpoints missing a node feature
	for _, e := range edges {
		addNode(e.U, e.Geometry[0])
		addNode(e.V, e.Geometry[len(e.Geometry)-1])
	}
	if len(edges) == 0 {
		return model.Graph{}, ErrNoStreets
	}

	nodes := make([]model.Node, 0, len(order))
	for _, id := range order {
		nodes = append(nodes, model.Node{ID: id, Point: points[id]})
	}
	return model.Graph{Nodes: nodes, Edges: edges}, nil
}

// EncodeGeoJSON writes g in the format DecodeGeoJSON reads.
func EncodeGeoJSON(w io.Writer, g model.Graph) error {
	fc := geojson.NewFeatureCollection()
	for _, n := range g.Nodes {
		f := geojson.NewFeature(n.Point)
		f.Properties["osmid"] = int64(n.ID)
		fc.Append(f)
	}
	for _, e := range g.Edges {
		f := geojson.NewFeature(e.Geometry)
		f.Properties["u"] = int64(e.U)
		f.Properties["v"] = int64(e.V)
		f.Properties["length"] = e.Length
		if e.WayID != 0 {
			f.Properties["osmid"] = e.WayID
		}
		if e.Name != "" {
			f.Properties["name"] = e.Name
		}
		fc.Append(f)
	}
	b, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshal geojson: %w", err)
	}
	if _, err := w.Write(b); err != nil {
		return fmt.Errorf("write geojson: %w", err)
	}
	return nil
}

func propID(p geojson.Properties, key string) (model.NodeID, bool) {
	switch v := p[key].(type) {
	case float64:
		return model.NodeID(v), true
	case int64:
		return model.NodeID(v), true
	case int:
		return model.NodeID(v), true
	default:
		return 0, false
	}
}
