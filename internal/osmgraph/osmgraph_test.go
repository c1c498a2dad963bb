package osmgraph

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"

	"github.com/mohammed-shakir/eulerian-streets/internal/core/model"
)

const sampleOSM = `<?xml version="1.0" encoding="UTF-8"?>
<osm version="0.6" generator="test">
  <node id="1" lat="0" lon="0"/>
  <node id="2" lat="0" lon="0.001"/>
  <node id="3" lat="0" lon="0.002"/>
  <node id="4" lat="0.001" lon="0.001"/>
  <node id="5" lat="-0.001" lon="0.001"/>
  <node id="6" lat="10" lon="10"/>
  <node id="7" lat="10" lon="10.001"/>
  <way id="100">
    <nd ref="1"/><nd ref="2"/><nd ref="3"/>
    <tag k="highway" v="residential"/>
    <tag k="name" v="Main Street"/>
  </way>
  <way id="101">
    <nd ref="4"/><nd ref="2"/><nd ref="5"/>
    <tag k="highway" v="footway"/>
  </way>
  <way id="102">
    <nd ref="6"/><nd ref="7"/>
    <tag k="highway" v="residential"/>
  </way>
  <way id="103">
    <nd ref="1"/><nd ref="3"/>
    <tag k="building" v="yes"/>
  </way>
</osm>`

func pairs(g model.Graph) map[model.Pair]int {
	out := map[model.Pair]int{}
	for _, e := range g.Edges {
		out[model.PairOf(e.U, e.V)]++
	}
	return out
}

func TestDecode_WalkSplitsAtIntersections(t *testing.T) {
	g, err := Decode(context.Background(), strings.NewReader(sampleOSM), Options{Network: NetworkWalk})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	want := map[model.Pair]int{
		model.PairOf(1, 2): 1, model.PairOf(2, 3): 1,
		model.PairOf(4, 2): 1, model.PairOf(2, 5): 1,
	}
	got := pairs(g)
	if len(got) != len(want) {
		t.Fatalf("pairs=%v want %v", got, want)
	}
	for k, n := range want {
		if got[k] != n {
			t.Fatalf("pair %s count=%d want %d", k, got[k], n)
		}
	}

	var ids []model.NodeID
	for _, n := range g.Nodes {
		ids = append(ids, n.ID)
	}
	if len(ids) != 5 || ids[0] != 1 || ids[4] != 5 {
		t.Fatalf("node order=%v want file order without the small component", ids)
	}

	for _, e := range g.Edges {
		nu, _ := g.Node(e.U)
		nv, _ := g.Node(e.V)
		first, last := e.Geometry[0], e.Geometry[len(e.Geometry)-1]
		if !first.Equal(nu.Point) || !last.Equal(nv.Point) {
			t.Fatalf("edge %d-%d geometry ends %v %v do not sit on its nodes", e.U, e.V, first, last)
		}
		if e.Length <= 0 {
			t.Fatalf("edge %d-%d has no length", e.U, e.V)
		}
		if e.WayID == 100 && e.Name != "Main Street" {
			t.Fatalf("name=%q", e.Name)
		}
	}
}

func TestDecode_DriveKeepsWholeWay(t *testing.T) {
	g, err := Decode(context.Background(), strings.NewReader(sampleOSM), Options{Network: NetworkDrive})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(g.Edges) != 1 {
		t.Fatalf("edges=%d want 1", len(g.Edges))
	}
	e := g.Edges[0]
	if model.PairOf(e.U, e.V) != model.PairOf(1, 3) || len(e.Geometry) != 3 {
		t.Fatalf("unexpected edge %+v", e)
	}
}

func TestDecode_RetainAll(t *testing.T) {
	g, err := Decode(context.Background(), strings.NewReader(sampleOSM), Options{Network: NetworkAll, RetainAll: true})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(g.Nodes) != 7 || len(g.Edges) != 5 {
		t.Fatalf("nodes=%d edges=%d want 7/5", len(g.Nodes), len(g.Edges))
	}
}

func TestDecode_NoStreets(t *testing.T) {
	in := `<osm version="0.6"><node id="1" lat="0" lon="0"/></osm>`
	if _, err := Decode(context.Background(), strings.NewReader(in), Options{}); err != ErrNoStreets {
		t.Fatalf("err=%v want ErrNoStreets", err)
	}
}

func TestNetworkType_Allows(t *testing.T) {
	cases := []struct {
		net  NetworkType
		tags osm.Tags
		want bool
	}{
		{NetworkWalk, osm.Tags{{Key: "highway", Value: "footway"}}, true},
		{NetworkWalk, osm.Tags{{Key: "highway", Value: "motorway"}}, false},
		{NetworkWalk, osm.Tags{{Key: "highway", Value: "residential"}, {Key: "foot", Value: "no"}}, false},
		{NetworkDrive, osm.Tags{{Key: "highway", Value: "footway"}}, false},
		{NetworkDrive, osm.Tags{{Key: "highway", Value: "service"}}, false},
		{NetworkBike, osm.Tags{{Key: "highway", Value: "cycleway"}}, true},
		{NetworkAll, osm.Tags{{Key: "highway", Value: "residential"}, {Key: "access", Value: "private"}}, false},
		{NetworkAllPrivate, osm.Tags{{Key: "highway", Value: "residential"}, {Key: "access", Value: "private"}}, true},
		{NetworkAll, osm.Tags{{Key: "highway", Value: "pedestrian"}, {Key: "area", Value: "yes"}}, false},
		{NetworkAll, osm.Tags{{Key: "building", Value: "yes"}}, false},
	}
	for i, c := range cases {
		if got := c.net.Allows(c.tags); got != c.want {
			t.Fatalf("case %d: %s allows %v = %v want %v", i, c.net, c.tags, got, c.want)
		}
	}
}

func TestGeoJSON_RoundTripThroughFile(t *testing.T) {
	g, err := Decode(context.Background(), strings.NewReader(sampleOSM), Options{Network: NetworkWalk})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	var buf bytes.Buffer
	if err := EncodeGeoJSON(&buf, g); err != nil {
		t.Fatalf("EncodeGeoJSON: %v", err)
	}
	path := filepath.Join(t.TempDir(), "graph.geojson")
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	back, err := LoadFile(context.Background(), path, Options{})
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(back.Nodes) != len(g.Nodes) || len(back.Edges) != len(g.Edges) {
		t.Fatalf("nodes=%d edges=%d want %d/%d", len(back.Nodes), len(back.Edges), len(g.Nodes), len(g.Edges))
	}
	for i := range g.Nodes {
		if back.Nodes[i] != g.Nodes[i] {
			t.Fatalf("node %d = %+v want %+v", i, back.Nodes[i], g.Nodes[i])
		}
	}
}

func TestDecodeGeoJSON_InfersMissingNodes(t *testing.T) {
	in := `{"type":"FeatureCollection","features":[
	  {"type":"Feature","properties":{"u":1,"v":2},"geometry":{"type":"LineString","coordinates":[[0,0],[1,0]]}}
	]}`
	g, err := DecodeGeoJSON(strings.NewReader(in))
	if err != nil {
		t.Fatalf("DecodeGeoJSON: %v", err)
	}
	n2, ok := g.Node(2)
	if !ok || !n2.Point.Equal(orb.Point{1, 0}) {
		t.Fatalf("node 2=%+v ok=%v", n2, ok)
	}
}

func TestBuildQuery_AndBBoxAround(t *testing.T) {
	q := BuildQuery(model.BBox{North: 59.4, South: 59.3, East: 18.1, West: 18.0}, 0)
	if !strings.Contains(q, "(59.3000000,18.0000000,59.4000000,18.1000000)") {
		t.Fatalf("query bbox order wrong: %s", q)
	}
	if !strings.HasPrefix(q, "[out:xml][timeout:180]") {
		t.Fatalf("query header wrong: %s", q)
	}

	bb := BBoxAround(orb.Point{18, 60}, 1000)
	if bb.North-bb.South < 0.0179 || bb.North-bb.South > 0.0181 {
		t.Fatalf("lat span=%f", bb.North-bb.South)
	}
	// at 60N a degree of longitude is half as long
	if span := bb.East - bb.West; span < 2*(bb.North-bb.South)*0.99 || span > 2*(bb.North-bb.South)*1.01 {
		t.Fatalf("lon span=%f", span)
	}
}

func TestOverpass_FetchDecodesResponse(t *testing.T) {
	var gotData, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		gotData = r.PostForm.Get("data")
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/osm3s+xml")
		_, _ = io.WriteString(w, sampleOSM)
	}))
	defer srv.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	o, err := NewOverpass(logger, srv.Client(), srv.URL, "eulerian-streets-test")
	if err != nil {
		t.Fatalf("NewOverpass: %v", err)
	}
	g, err := o.Fetch(context.Background(), model.BBox{North: 0.01, South: -0.01, East: 0.01, West: -0.01}, Options{Network: NetworkWalk})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(g.Edges) != 4 {
		t.Fatalf("edges=%d want 4", len(g.Edges))
	}
	if !strings.Contains(gotData, `way["highway"]`) {
		t.Fatalf("overpass query not sent: %q", gotData)
	}
	if gotUA != "eulerian-streets-test" {
		t.Fatalf("user agent=%q", gotUA)
	}
}

func TestOverpass_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	o, _ := NewOverpass(slog.New(slog.NewTextHandler(io.Discard, nil)), srv.Client(), srv.URL, "")
	_, err := o.Fetch(context.Background(), model.BBox{North: 1, South: 0, East: 1, West: 0}, Options{})
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("err=%v want upstream status 429", err)
	}

	if _, err := o.Fetch(context.Background(), model.BBox{North: 0, South: 1, East: 1, West: 0}, Options{}); err == nil {
		t.Fatal("expected error for inverted bbox")
	}
}
