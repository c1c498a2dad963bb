package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"github.com/mohammed-shakir/eulerian-streets/internal/core/model"
)

// city centers the synthetic hot boxes cycle through
var centers = []orb.Point{
	{18.0686, 59.3293}, // Stockholm
	{11.9746, 57.7089}, // Göteborg
	{13.0038, 55.6050}, // Malmö
	{22.1547, 65.5848}, // Luleå
}

// boxAround returns a box of half size h degrees centered on c.
func boxAround(c orb.Point, h float64) model.BBox {
	return model.BBox{North: c.Lat() + h, South: c.Lat() - h, East: c.Lon() + h, West: c.Lon() - h}
}

// makeBBoxes creates a mix of hot boxes near city centers and cold boxes
// spread over Sweden. Boxes stay small so each one is a few blocks of streets.
func makeBBoxes(count int, r *rand.Rand) []model.BBox {
	if count <= 0 {
		return nil
	}
	out := make([]model.BBox, 0, count)

	hot := max(8, count/4)
	for i := 0; i < hot && len(out) < count; i++ {
		c := centers[i%len(centers)]
		off := orb.Point{c.Lon() + (r.Float64()-0.5)*0.02, c.Lat() + (r.Float64()-0.5)*0.02}
		out = append(out, boxAround(off, 0.002+r.Float64()*0.002))
	}
	for len(out) < count {
		p := orb.Point{11 + r.Float64()*(24-11), 55 + r.Float64()*(66-55)}
		out = append(out, boxAround(p, 0.002+r.Float64()*0.003))
	}
	return out
}

type centroid struct {
	ID    string
	Point orb.Point
}

func loadCentroidsCSV(path string) ([]centroid, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open centroids: %w", err)
	}
	defer func() { _ = f.Close() }()
	return readCentroids(f)
}

// readCentroids reads rows with id, lon and lat columns in any order.
func readCentroids(rd io.Reader) ([]centroid, error) {
	r := csv.NewReader(rd)

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := map[string]int{}
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	idIdx, okID := col["id"]
	lonIdx, okLon := col["lon"]
	latIdx, okLat := col["lat"]
	if !okID || !okLon || !okLat {
		return nil, fmt.Errorf("centroid csv: expected columns id,lon,lat; got %v", header)
	}

	var out []centroid
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		id := strings.TrimSpace(rec[idIdx])
		lonStr := strings.TrimSpace(rec[lonIdx])
		latStr := strings.TrimSpace(rec[latIdx])
		if id == "" || lonStr == "" || latStr == "" {
			continue
		}
		lon, err := strconv.ParseFloat(lonStr, 64)
		if err != nil {
			return nil, fmt.Errorf("parse lon %q: %w", lonStr, err)
		}
		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil {
			return nil, fmt.Errorf("parse lat %q: %w", latStr, err)
		}
		out = append(out, centroid{ID: id, Point: orb.Point{lon, lat}})
	}
	return out, nil
}

func bboxesFromCentroids(cs []centroid, count int) []model.BBox {
	if len(cs) == 0 || count <= 0 {
		return nil
	}
	count = min(count, len(cs))
	out := make([]model.BBox, 0, count)
	for _, c := range cs[:count] {
		out = append(out, boxAround(c.Point, 0.003))
	}
	return out
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}
	k := (p / 100.0) * float64(len(sorted)-1)
	f := math.Floor(k)
	i := int(f)
	if i >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	d := k - f
	return sorted[i]*(1-d) + sorted[i+1]*d
}
