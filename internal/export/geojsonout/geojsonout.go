// Package geojsonout renders a trail as a GeoJSON Feature.
package geojsonout

import (
	"fmt"
	"io"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/mohammed-shakir/eulerian-streets/internal/core/model"
)

// Summary holds the properties attached to the feature.
type Summary struct {
	LengthM float64
	Points  int
	Hops    int
	H3Cells []string
}

func Feature(t model.Trail, s Summary) *geojson.Feature {
	f := geojson.NewFeature(orb.LineString(t))
	f.Properties["length_m"] = s.LengthM
	f.Properties["points"] = s.Points
	f.Properties["hops"] = s.Hops
	cells := s.H3Cells
	if cells == nil {
		cells = []string{}
	}
	f.Properties["h3_cells"] = cells
	return f
}

func Marshal(t model.Trail, s Summary) ([]byte, error) {
	b, err := Feature(t, s).MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("marshal geojson: %w", err)
	}
	return b, nil
}

func Write(w io.Writer, t model.Trail, s Summary) error {
	b, err := Marshal(t, s)
	if err != nil {
		return err
	}
	if _, err := w.Write(b); err != nil {
		return fmt.Errorf("write geojson: %w", err)
	}
	return nil
}

func WriteFile(path string, t model.Trail, s Summary) error {
	b, err := Marshal(t, s)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write geojson: %w", err)
	}
	return nil
}
