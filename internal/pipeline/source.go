package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/paulmach/orb"

	"github.com/mohammed-shakir/eulerian-streets/internal/core/model"
	"github.com/mohammed-shakir/eulerian-streets/internal/geocode"
	"github.com/mohammed-shakir/eulerian-streets/internal/osmgraph"
)

var ErrNoPlaceLookup = errors.New("place and address queries require a geocoder")

type Fetcher interface {
	Fetch(ctx context.Context, bb model.BBox, opts osmgraph.Options) (model.Graph, error)
}

type PlaceLookup interface {
	Lookup(ctx context.Context, query string) (geocode.Place, error)
	Geocode(ctx context.Context, address string) (orb.Point, error)
}

// Upstream loads graphs from Overpass, resolving place names and addresses
// through the geocoder first, or from local snapshots for file queries.
type Upstream struct {
	fetcher   Fetcher
	places    PlaceLookup
	retainAll bool
}

func NewUpstream(fetcher Fetcher, places PlaceLookup, retainAll bool) *Upstream {
	return &Upstream{fetcher: fetcher, places: places, retainAll: retainAll}
}

func (u *Upstream) Load(ctx context.Context, q model.Query, network string) (model.Graph, error) {
	nt, err := osmgraph.ParseNetworkType(network)
	if err != nil {
		return model.Graph{}, err
	}
	opts := osmgraph.Options{Network: nt, RetainAll: u.retainAll}

	switch q.Kind {
	case model.QueryFile:
		return osmgraph.LoadFile(ctx, q.Path, opts)
	case model.QueryBBox:
		return u.fetch(ctx, q.BBox, opts)
	case model.QueryPlace:
		if u.places == nil {
			return model.Graph{}, ErrNoPlaceLookup
		}
		p, err := u.places.Lookup(ctx, q.Place)
		if err != nil {
			return model.Graph{}, fmt.Errorf("lookup place %q: %w", q.Place, err)
		}
		return u.fetch(ctx, p.BBox, opts)
	case model.QueryAddress:
		if u.places == nil {
			return model.Graph{}, ErrNoPlaceLookup
		}
		p, err := u.places.Geocode(ctx, q.Address)
		if err != nil {
			return model.Graph{}, fmt.Errorf("geocode %q: %w", q.Address, err)
		}
		return u.fetch(ctx, osmgraph.BBoxAround(p, q.Dist), opts)
	default:
		return model.Graph{}, fmt.Errorf("unsupported query kind %q", q.Kind)
	}
}

func (u *Upstream) fetch(ctx context.Context, bb model.BBox, opts osmgraph.Options) (model.Graph, error) {
	if u.fetcher == nil {
		return model.Graph{}, errors.New("no overpass fetcher configured")
	}
	return u.fetcher.Fetch(ctx, bb, opts)
}

// Static serves one pre-loaded graph for every query.
type Static struct {
	Graph model.Graph
}

func (s Static) Load(context.Context, model.Query, string) (model.Graph, error) {
	return s.Graph, nil
}
