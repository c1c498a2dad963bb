package cache

import (
	"encoding/json"
	"fmt"

	"github.com/mohammed-shakir/eulerian-streets/internal/pipeline"
)

// entry is the stored form of a trail: the encoded payload plus the stats
// that back the X-Trail-* response headers.
type entry struct {
	Hops    int     `json:"hops"`
	Points  int     `json:"points"`
	LengthM float64 `json:"length_m"`
	Body    []byte  `json:"body"`
}

func marshalEntry(body []byte, s pipeline.Stats) ([]byte, error) {
	return json.Marshal(entry{Hops: s.Hops, Points: s.Points, LengthM: s.LengthM, Body: body})
}

func unmarshalEntry(raw []byte) ([]byte, pipeline.Stats, error) {
	var en entry
	if err := json.Unmarshal(raw, &en); err != nil {
		return nil, pipeline.Stats{}, fmt.Errorf("decode cache entry: %w", err)
	}
	if en.Body == nil {
		return nil, pipeline.Stats{}, fmt.Errorf("decode cache entry: missing body")
	}
	return en.Body, pipeline.Stats{Hops: en.Hops, Points: en.Points, LengthM: en.LengthM}, nil
}
