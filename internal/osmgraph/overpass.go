package osmgraph

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/paulmach/orb"

	"github.com/mohammed-shakir/eulerian-streets/internal/core/model"
	"github.com/mohammed-shakir/eulerian-streets/internal/core/observability"
)

const metersPerDegree = 111320.0

// BuildQuery returns the Overpass QL fetching every highway way in bb with
// its nodes. Network filtering happens locally in Decode.
func BuildQuery(bb model.BBox, timeout time.Duration) string {
	secs := int(timeout.Seconds())
	if secs <= 0 {
		secs = 180
	}
	return fmt.Sprintf(
		"[out:xml][timeout:%d];(way[\"highway\"][\"area\"!~\"yes\"](%.7f,%.7f,%.7f,%.7f););(._;>;);out body;",
		secs, bb.South, bb.West, bb.North, bb.East)
}

// BBoxAround returns the box extending dist meters from p in each direction.
func BBoxAround(p orb.Point, dist float64) model.BBox {
	dLat := dist / metersPerDegree
	dLon := dist / (metersPerDegree * math.Cos(p.Lat()*math.Pi/180))
	return model.BBox{
		North: p.Lat() + dLat,
		South: p.Lat() - dLat,
		East:  p.Lon() + dLon,
		West:  p.Lon() - dLon,
	}
}

// Overpass downloads street data from an Overpass API endpoint.
type Overpass struct {
	logger    *slog.Logger
	client    *http.Client
	endpoint  *url.URL
	userAgent string
	timeout   time.Duration
	startNow  func() time.Time // for tests
}

func NewOverpass(logger *slog.Logger, client *http.Client, endpoint, userAgent string) (*Overpass, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse overpass url: %w", err)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Overpass{
		logger:    logger,
		client:    client,
		endpoint:  u,
		userAgent: userAgent,
		timeout:   180 * time.Second,
		startNow:  time.Now,
	}, nil
}

// Fetch downloads the streets in bb and decodes them into a graph.
func (o *Overpass) Fetch(ctx context.Context, bb model.BBox, opts Options) (model.Graph, error) {
	if bb.North <= bb.South || bb.East <= bb.West {
		return model.Graph{}, fmt.Errorf("invalid bbox %s", bb)
	}
	form := url.Values{}
	form.Set("data", BuildQuery(bb, o.timeout))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint.String(), strings.NewReader(form.Encode()))
	if err != nil {
		return model.Graph{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/osm3s+xml, application/xml")
	if o.userAgent != "" {
		req.Header.Set("User-Agent", o.userAgent)
	}

	o.logger.Debug("overpass query", "bbox", bb.String(), "endpoint", o.endpoint.String())

	start := o.startNow()
	resp, err := o.client.Do(req)
	if err != nil {
		return model.Graph{}, fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		return model.Graph{}, fmt.Errorf("upstream status %d: %s", resp.StatusCode, string(b))
	}

	g, err := Decode(ctx, resp.Body, opts)
	dur := time.Since(start)
	observability.ObserveUpstreamLatency("overpass", dur.Seconds())
	if err != nil {
		return model.Graph{}, err
	}
	o.logger.Debug("overpass done",
		"nodes", len(g.Nodes),
		"edges", len(g.Edges),
		"duration", dur.String())
	return g, nil
}
