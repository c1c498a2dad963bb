// Package osmgraph builds undirected street graphs from OpenStreetMap data.
package osmgraph

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmxml"

	"github.com/mohammed-shakir/eulerian-streets/internal/core/model"
)

var ErrNoStreets = errors.New("no streets in input")

type Options struct {
	Network NetworkType
	// RetainAll keeps every component instead of only the largest one.
	RetainAll bool
}

// Decode reads OSM XML and returns the street graph selected by opts.
func Decode(ctx context.Context, r io.Reader, opts Options) (model.Graph, error) {
	if opts.Network == "" {
		opts.Network = NetworkWalk
	}

	scanner := osmxml.New(ctx, r)
	defer func() { _ = scanner.Close() }()

	points := make(map[model.NodeID]orb.Point)
	var order []model.NodeID
	var ways []rawWay

	for scanner.Scan() {
		switch o := scanner.Object().(type) {
		case *osm.Node:
			id := model.NodeID(o.ID)
			if _, seen := points[id]; !seen {
				order = append(order, id)
			}
			points[id] = orb.Point{o.Lon, o.Lat}
		case *osm.Way:
			if !opts.Network.Allows(o.Tags) {
				continue
			}
			w := rawWay{id: int64(o.ID), name: o.Tags.Find("name")}
			for _, wn := range o.Nodes {
				w.refs = append(w.refs, model.NodeID(wn.ID))
			}
			ways = append(ways, w)
		}
	}
	if err := scanner.Err(); err != nil {
		return model.Graph{}, fmt.Errorf("scan osm xml: %w", err)
	}

	g := buildGraph(points, order, ways)
	if !opts.RetainAll {
		g = LargestComponent(g)
	}
	if len(g.Edges) == 0 {
		return model.Graph{}, ErrNoStreets
	}
	return g, nil
}

// LoadFile reads a graph snapshot from disk. Files ending in .geojson or
// .json are read as GeoJSON, anything else as OSM XML.
func LoadFile(ctx context.Context, path string, opts Options) (model.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Graph{}, fmt.Errorf("open snapshot: %w", err)
	}
	defer func() { _ = f.Close() }()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".geojson", ".json":
		g, err := DecodeGeoJSON(f)
		if err != nil {
			return model.Graph{}, err
		}
		if !opts.RetainAll {
			g = LargestComponent(g)
		}
		return g, nil
	default:
		return Decode(ctx, f, opts)
	}
}
