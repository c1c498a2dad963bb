package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"

	"github.com/mohammed-shakir/eulerian-streets/internal/core/config"
	"github.com/mohammed-shakir/eulerian-streets/internal/core/model"
	"github.com/mohammed-shakir/eulerian-streets/internal/core/observability"
	"github.com/mohammed-shakir/eulerian-streets/internal/osmgraph"
)

const defaultDist = 1000.0

// receives validated trail requests and serves them
type TrailHandler interface {
	HandleTrail(ctx context.Context, w http.ResponseWriter, r *http.Request, q model.TrailRequest)
}

// validates input query params and calls the handler
func HandleTrail(logger *slog.Logger, cfg config.Config, h TrailHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}

		q, warn, err := ParseTrailRequest(r, cfg)
		if warn != "" {
			logger.WarnContext(r.Context(), warn)
		}
		if err != nil {
			http.Error(sw, err.Error(), http.StatusBadRequest)
			observability.ObserveHTTP(r.Method, "/trail", http.StatusBadRequest, time.Since(start).Seconds())
			return
		}

		h.HandleTrail(r.Context(), sw, r, q)
		observability.ObserveHTTP(r.Method, "/trail", sw.code, time.Since(start).Seconds())
	}
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// ParseTrailRequest reads one of bbox, place or address (bbox wins, then
// place), the trail options and at most one start.
func ParseTrailRequest(r *http.Request, cfg config.Config) (model.TrailRequest, string, error) {
	var warns []string
	v := r.URL.Query()

	rawBBox := strings.TrimSpace(v.Get("bbox"))
	place := strings.TrimSpace(v.Get("place"))
	address := strings.TrimSpace(v.Get("address"))

	var q model.Query
	switch {
	case rawBBox != "":
		if place != "" || address != "" {
			warns = append(warns, "several areas supplied; preferring bbox")
		}
		bb, err := ParseBBox(rawBBox)
		if err != nil {
			return model.TrailRequest{}, "", fmt.Errorf("invalid bbox: %w", err)
		}
		q = model.Query{Kind: model.QueryBBox, BBox: bb}
	case place != "":
		if address != "" {
			warns = append(warns, "both place and address supplied; preferring place")
		}
		q = model.Query{Kind: model.QueryPlace, Place: place}
	case address != "":
		dist := defaultDist
		if raw := strings.TrimSpace(v.Get("dist")); raw != "" {
			d, err := parseFloat(raw)
			if err != nil || d <= 0 {
				return model.TrailRequest{}, "", errors.New("dist must be a positive number of meters")
			}
			dist = d
		}
		q = model.Query{Kind: model.QueryAddress, Address: address, Dist: dist}
	default:
		return model.TrailRequest{}, "", errors.New("missing area: one of bbox, place or address is required")
	}

	modeRaw := v.Get("mode")
	if modeRaw == "" {
		modeRaw = cfg.TrailMode
	}
	mode, err := model.ParseMode(modeRaw)
	if err != nil {
		return model.TrailRequest{}, "", err
	}

	netRaw := v.Get("network")
	if netRaw == "" {
		netRaw = cfg.NetworkType
	}
	nt, err := osmgraph.ParseNetworkType(netRaw)
	if err != nil {
		return model.TrailRequest{}, "", err
	}

	format, err := model.ParseFormat(v.Get("format"))
	if err != nil {
		return model.TrailRequest{}, "", err
	}

	st, warn, err := parseStart(v.Get("start_node"), v.Get("start"), v.Get("start_address"))
	if err != nil {
		return model.TrailRequest{}, "", err
	}
	if warn != "" {
		warns = append(warns, warn)
	}

	return model.TrailRequest{
		Query:   q,
		Network: string(nt),
		Mode:    mode,
		Start:   st,
		Format:  format,
	}, strings.Join(warns, "; "), nil
}

// start_node wins over start, which wins over start_address
func parseStart(node, point, address string) (model.Start, string, error) {
	node, point, address = strings.TrimSpace(node), strings.TrimSpace(point), strings.TrimSpace(address)
	n := 0
	for _, s := range []string{node, point, address} {
		if s != "" {
			n++
		}
	}
	var warn string
	if n > 1 {
		warn = "several starts supplied; using the most specific"
	}

	switch {
	case node != "":
		id, err := strconv.ParseInt(node, 10, 64)
		if err != nil {
			return model.Start{}, "", fmt.Errorf("invalid start_node: %w", err)
		}
		return model.StartAtNode(model.NodeID(id)), warn, nil
	case point != "":
		p, err := ParseLonLat(point)
		if err != nil {
			return model.Start{}, "", fmt.Errorf("invalid start: %w", err)
		}
		return model.StartAtPoint(p), warn, nil
	case address != "":
		return model.StartAtAddress(address), warn, nil
	default:
		return model.Start{}, "", nil
	}
}

// ParseBBox reads north,south,east,west.
func ParseBBox(raw string) (model.BBox, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return model.BBox{}, errors.New("expected 4 comma-separated values: north,south,east,west")
	}
	var vals [4]float64
	for i, name := range []string{"north", "south", "east", "west"} {
		f, err := parseFloat(parts[i])
		if err != nil {
			return model.BBox{}, fmt.Errorf("%s: %w", name, err)
		}
		vals[i] = f
	}
	bb := model.BBox{North: vals[0], South: vals[1], East: vals[2], West: vals[3]}

	if !(bb.West >= -180 && bb.West <= 180 && bb.East >= -180 && bb.East <= 180) {
		return model.BBox{}, errors.New("longitude must be in [-180,180]")
	}
	if !(bb.South >= -90 && bb.South <= 90 && bb.North >= -90 && bb.North <= 90) {
		return model.BBox{}, errors.New("latitude must be in [-90,90]")
	}
	if bb.North <= bb.South || bb.East <= bb.West {
		return model.BBox{}, errors.New("coordinates must satisfy north>south and east>west")
	}
	return bb, nil
}

// ParseLonLat reads lon,lat.
func ParseLonLat(raw string) (orb.Point, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return orb.Point{}, errors.New("expected lon,lat")
	}
	lon, err := parseFloat(parts[0])
	if err != nil {
		return orb.Point{}, fmt.Errorf("lon: %w", err)
	}
	lat, err := parseFloat(parts[1])
	if err != nil {
		return orb.Point{}, fmt.Errorf("lat: %w", err)
	}
	if lon < -180 || lon > 180 || lat < -90 || lat > 90 {
		return orb.Point{}, errors.New("lon,lat out of range")
	}
	return orb.Point{lon, lat}, nil
}

func parseFloat(v string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, fmt.Errorf("parse float: %w", err)
	}
	return f, nil
}
