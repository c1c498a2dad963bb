package scenarios

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mohammed-shakir/eulerian-streets/internal/core/model"
	"github.com/mohammed-shakir/eulerian-streets/internal/pipeline"
)

func TestEncodeAndWriteTrail(t *testing.T) {
	res := pipeline.Result{
		Trail: model.Trail{{18.07, 59.32}, {18.08, 59.32}},
		Stats: pipeline.Stats{Hops: 1, Points: 2, LengthM: 567.89},
	}

	body, err := Encode(model.FormatGPX, res)
	if err != nil {
		t.Fatalf("Encode gpx: %v", err)
	}
	if !strings.Contains(string(body), `<trkpt lon="18.08" lat="59.32"/>`) {
		t.Fatalf("gpx body:\n%s", body)
	}

	rr := httptest.NewRecorder()
	WriteTrail(rr, model.FormatGPX, body, &res.Stats, "MISS")
	if ct := rr.Header().Get("Content-Type"); ct != "application/gpx+xml" {
		t.Fatalf("content-type=%q", ct)
	}
	if rr.Header().Get("X-Trail-Length-M") != "567.9" || rr.Header().Get("X-Cache") != "MISS" {
		t.Fatalf("headers=%v", rr.Header())
	}

	body, err = Encode(model.FormatGeoJSON, res)
	if err != nil {
		t.Fatalf("Encode geojson: %v", err)
	}
	if !strings.Contains(string(body), `"type":"LineString"`) {
		t.Fatalf("geojson body: %s", body)
	}

	if _, err := Encode("kml", res); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}
