package h3mapper

import (
	"reflect"
	"sort"
	"testing"

	"github.com/paulmach/orb"
	h3 "github.com/uber/h3-go/v4"

	"github.com/mohammed-shakir/eulerian-streets/internal/core/model"
)

func TestTrail_HappyPath_SortedUnique(t *testing.T) {
	m := New()
	tr := model.Trail{{18.0686, 59.3293}, {18.0686, 59.3293}, {18.0800, 59.3350}, {18.0686, 59.3293}}

	cells, err := m.CellsForTrail(tr, 9)
	if err != nil {
		t.Fatalf("CellsForTrail err: %v", err)
	}
	if len(cells) == 0 {
		t.Fatalf("expected non-empty cells for trail")
	}
	if !sort.StringsAreSorted(cells) {
		t.Fatalf("cells must be sorted")
	}
	if hasDups(cells) {
		t.Fatalf("cells must be de-duplicated")
	}

	again, err := m.CellsForTrail(tr, 9)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if !reflect.DeepEqual(cells, again) {
		t.Fatalf("expected identical output for identical input")
	}
}

func TestTrail_IncludesEndpointsAndFillsGaps(t *testing.T) {
	m := New()
	a := orb.Point{18.0686, 59.3293}
	b := orb.Point{18.1000, 59.3293}
	res := 10

	ca, _ := h3.LatLngToCell(h3.LatLng{Lat: a.Lat(), Lng: a.Lon()}, res)
	cb, _ := h3.LatLngToCell(h3.LatLng{Lat: b.Lat(), Lng: b.Lon()}, res)

	cells, err := m.CellsForTrail(model.Trail{a, b}, res)
	if err != nil {
		t.Fatalf("CellsForTrail: %v", err)
	}
	if !contains(cells, ca.String()) || !contains(cells, cb.String()) {
		t.Fatalf("endpoint cells missing from %v", cells)
	}
	if len(cells) <= 2 {
		t.Fatalf("expected intermediate cells for a ~1.8 km segment, got %d", len(cells))
	}
}

func TestBounds_InvalidResolutionAndEmptyTrail(t *testing.T) {
	m := New()
	tr := model.Trail{{11, 55}}

	if _, err := m.CellsForTrail(tr, -1); err == nil {
		t.Fatalf("expected error for res=-1")
	}
	if _, err := m.CellsForTrail(tr, 16); err == nil {
		t.Fatalf("expected error for res=16")
	}

	cells, err := m.CellsForTrail(nil, 8)
	if err != nil {
		t.Fatalf("empty trail: %v", err)
	}
	if len(cells) != 0 {
		t.Fatalf("expected no cells, got %v", cells)
	}
}

func hasDups(xs []string) bool {
	seen := make(map[string]struct{}, len(xs))
	for _, x := range xs {
		if _, ok := seen[x]; ok {
			return true
		}
		seen[x] = struct{}{}
	}
	return false
}

func contains(xs []string, v string) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}
