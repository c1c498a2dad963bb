// Package geocode resolves addresses and place names with a Nominatim server.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"

	"github.com/mohammed-shakir/eulerian-streets/internal/core/model"
	"github.com/mohammed-shakir/eulerian-streets/internal/core/observability"
)

var ErrNoResult = errors.New("geocoder returned no result")

type Place struct {
	Name  string
	Point orb.Point
	BBox  model.BBox
}

type Client struct {
	logger    *slog.Logger
	client    *http.Client
	searchURL *url.URL
	userAgent string
}

func New(logger *slog.Logger, client *http.Client, base, userAgent string) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(base, "/") + "/search")
	if err != nil {
		return nil, fmt.Errorf("parse nominatim url: %w", err)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{logger: logger, client: client, searchURL: u, userAgent: userAgent}, nil
}

// Geocode returns the point of the best match for address.
func (c *Client) Geocode(ctx context.Context, address string) (orb.Point, error) {
	p, err := c.Lookup(ctx, address)
	if err != nil {
		return orb.Point{}, err
	}
	return p.Point, nil
}

type searchResult struct {
	Lat         string   `json:"lat"`
	Lon         string   `json:"lon"`
	DisplayName string   `json:"display_name"`
	BoundingBox []string `json:"boundingbox"` // south, north, west, east
}

// Lookup returns the best match for query with its bounding box.
func (c *Client) Lookup(ctx context.Context, query string) (Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Place{}, errors.New("empty geocode query")
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")

	u := *c.searchURL
	u.RawQuery = params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Place{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return Place{}, fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	observability.ObserveUpstreamLatency("nominatim", time.Since(start).Seconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		return Place{}, fmt.Errorf("upstream status %d: %s", resp.StatusCode, string(b))
	}

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return Place{}, fmt.Errorf("decode nominatim response: %w", err)
	}
	if len(results) == 0 {
		return Place{}, fmt.Errorf("%w for %q", ErrNoResult, query)
	}
	r := results[0]

	lat, err := strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		return Place{}, fmt.Errorf("lat: %w", err)
	}
	lon, err := strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		return Place{}, fmt.Errorf("lon: %w", err)
	}
	place := Place{Name: r.DisplayName, Point: orb.Point{lon, lat}}
	if len(r.BoundingBox) == 4 {
		var bb [4]float64
		for i, s := range r.BoundingBox {
			if bb[i], err = strconv.ParseFloat(s, 64); err != nil {
				return Place{}, fmt.Errorf("boundingbox: %w", err)
			}
		}
		place.BBox = model.BBox{South: bb[0], North: bb[1], West: bb[2], East: bb[3]}
	}
	c.logger.Debug("geocoded", "query", query, "name", place.Name, "point", place.Point)
	return place, nil
}
