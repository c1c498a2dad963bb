package h3mapper

import (
	"fmt"
	"sort"

	h3 "github.com/uber/h3-go/v4"

	"github.com/mohammed-shakir/eulerian-streets/internal/core/model"
)

type Mapper struct{}

func New() *Mapper { return &Mapper{} }

// CellsForTrail returns the sorted distinct cells the trail passes through.
// Consecutive points are joined with a grid path so long segments do not
// skip cells.
func (m *Mapper) CellsForTrail(t model.Trail, res int) ([]string, error) {
	if err := validateRes(res); err != nil {
		return nil, err
	}

	seen := make(map[h3.Cell]struct{}, len(t))
	var prev h3.Cell
	for i, p := range t {
		c, err := h3.LatLngToCell(h3.LatLng{Lat: p.Lat(), Lng: p.Lon()}, res)
		if err != nil {
			return nil, fmt.Errorf("h3 cell for %v: %w", p, err)
		}
		seen[c] = struct{}{}
		if i > 0 && c != prev {
			// grid paths fail across pentagons; endpoints are still recorded
			if path, err := h3.GridPath(prev, c); err == nil {
				for _, pc := range path {
					seen[pc] = struct{}{}
				}
			}
		}
		prev = c
	}

	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c.String())
	}
	sort.Strings(out)
	return out, nil
}

func validateRes(res int) error {
	if res < 0 || res > 15 {
		return fmt.Errorf("invalid H3 resolution %d (must be 0..15)", res)
	}
	return nil
}
