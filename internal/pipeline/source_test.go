package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"

	"github.com/mohammed-shakir/eulerian-streets/internal/core/model"
	"github.com/mohammed-shakir/eulerian-streets/internal/geocode"
	"github.com/mohammed-shakir/eulerian-streets/internal/osmgraph"
)

type recordingFetcher struct {
	got  []model.BBox
	opts osmgraph.Options
}

func (f *recordingFetcher) Fetch(_ context.Context, bb model.BBox, opts osmgraph.Options) (model.Graph, error) {
	f.got = append(f.got, bb)
	f.opts = opts
	return square(), nil
}

type fakePlaces struct {
	place geocode.Place
	point orb.Point
	err   error
}

func (f fakePlaces) Lookup(context.Context, string) (geocode.Place, error) { return f.place, f.err }
func (f fakePlaces) Geocode(context.Context, string) (orb.Point, error)    { return f.point, f.err }

func TestUpstream_BBoxPlaceAndAddress(t *testing.T) {
	bb := model.BBox{North: 59.33, South: 59.32, East: 18.08, West: 18.06}
	f := &recordingFetcher{}
	u := NewUpstream(f, fakePlaces{place: geocode.Place{BBox: bb}, point: orb.Point{18.07, 59.325}}, false)
	ctx := context.Background()

	if _, err := u.Load(ctx, model.Query{Kind: model.QueryBBox, BBox: bb}, "drive"); err != nil {
		t.Fatalf("bbox: %v", err)
	}
	if f.got[0] != bb || f.opts.Network != osmgraph.NetworkDrive {
		t.Fatalf("bbox=%v network=%q", f.got[0], f.opts.Network)
	}

	if _, err := u.Load(ctx, model.Query{Kind: model.QueryPlace, Place: "Gamla stan"}, ""); err != nil {
		t.Fatalf("place: %v", err)
	}
	if f.got[1] != bb || f.opts.Network != osmgraph.NetworkWalk {
		t.Fatalf("place bbox=%v network=%q", f.got[1], f.opts.Network)
	}

	if _, err := u.Load(ctx, model.Query{Kind: model.QueryAddress, Address: "x", Dist: 500}, "walk"); err != nil {
		t.Fatalf("address: %v", err)
	}
	want := osmgraph.BBoxAround(orb.Point{18.07, 59.325}, 500)
	if f.got[2] != want {
		t.Fatalf("address bbox=%v want %v", f.got[2], want)
	}
}

func TestUpstream_Errors(t *testing.T) {
	ctx := context.Background()
	f := &recordingFetcher{}

	u := NewUpstream(f, nil, false)
	if _, err := u.Load(ctx, model.Query{Kind: model.QueryPlace, Place: "x"}, "walk"); !errors.Is(err, ErrNoPlaceLookup) {
		t.Fatalf("err=%v want ErrNoPlaceLookup", err)
	}
	if _, err := u.Load(ctx, model.Query{Kind: model.QueryBBox}, "boat"); err == nil {
		t.Fatalf("expected unknown network error")
	}

	u = NewUpstream(f, fakePlaces{err: geocode.ErrNoResult}, false)
	if _, err := u.Load(ctx, model.Query{Kind: model.QueryPlace, Place: "nowhere"}, "walk"); !errors.Is(err, geocode.ErrNoResult) {
		t.Fatalf("err=%v want ErrNoResult", err)
	}
	if len(f.got) != 0 {
		t.Fatalf("fetcher must not be called on failed lookups")
	}
}

func TestUpstream_FileSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "square.geojson")
	fh, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := osmgraph.EncodeGeoJSON(fh, square()); err != nil {
		t.Fatalf("encode: %v", err)
	}
	_ = fh.Close()

	u := NewUpstream(nil, nil, false)
	g, err := u.Load(context.Background(), model.Query{Kind: model.QueryFile, Path: path}, "walk")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(g.Nodes) != 4 || len(g.Edges) != 4 {
		t.Fatalf("nodes=%d edges=%d want 4/4", len(g.Nodes), len(g.Edges))
	}

	r := New(nil, u, nil, nil)
	res, err := r.Run(context.Background(), Request{Query: model.Query{Kind: model.QueryFile, Path: path}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Stats.Hops != 4 {
		t.Fatalf("hops=%d want 4", res.Stats.Hops)
	}
}
