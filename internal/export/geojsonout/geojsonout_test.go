package geojsonout

import (
	"bytes"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/mohammed-shakir/eulerian-streets/internal/core/model"
)

func TestWrite_LineStringWithProperties(t *testing.T) {
	tr := model.Trail{{0, 0}, {1, 0}, {1, 0}, {1, 1}}
	var buf bytes.Buffer
	err := Write(&buf, tr, Summary{LengthM: 12.5, Points: 4, Hops: 2, H3Cells: []string{"8a1"}})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	f, err := geojson.UnmarshalFeature(buf.Bytes())
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	ls, ok := f.Geometry.(orb.LineString)
	if !ok {
		t.Fatalf("geometry %T, want LineString", f.Geometry)
	}
	if len(ls) != 4 || !ls[2].Equal(orb.Point{1, 0}) {
		t.Fatalf("coordinates=%v", ls)
	}
	if got := f.Properties.MustFloat64("length_m"); got != 12.5 {
		t.Fatalf("length_m=%v", got)
	}
	if got := f.Properties.MustInt("hops"); got != 2 {
		t.Fatalf("hops=%v", got)
	}
	if got := f.Properties.MustInt("points"); got != 4 {
		t.Fatalf("points=%v", got)
	}
}

func TestFeature_EmptyCellsEncodeAsArray(t *testing.T) {
	b, err := Marshal(model.Trail{{0, 0}, {1, 1}}, Summary{})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !bytes.Contains(b, []byte(`"h3_cells":[]`)) {
		t.Fatalf("h3_cells not an empty array: %s", b)
	}
}
