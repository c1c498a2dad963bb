// Package model defines core domain types shared across the service.
package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// NodeID identifies a street intersection or dead end (OSM node id).
type NodeID int64

type Node struct {
	ID    NodeID
	Point orb.Point // lon, lat
}

// Edge is one physical street segment. Geometry runs from one endpoint to the
// other in the orientation captured at load time, not necessarily U to V.
type Edge struct {
	U, V     NodeID
	Geometry orb.LineString
	Length   float64 // meters
	WayID    int64
	Name     string
}

// Pair is an unordered node pair in canonical form (A <= B).
type Pair struct {
	A, B NodeID
}

func PairOf(u, v NodeID) Pair {
	if v < u {
		u, v = v, u
	}
	return Pair{A: u, B: v}
}

func (p Pair) String() string {
	return fmt.Sprintf("{%d,%d}", p.A, p.B)
}

// Hop is one step of an Eulerian sequence: traverse the edge between U and V.
type Hop struct {
	U, V NodeID
}

func (h Hop) Pair() Pair { return PairOf(h.U, h.V) }

func (h Hop) String() string {
	return fmt.Sprintf("(%d,%d)", h.U, h.V)
}

// Trail is the continuous coordinate sequence built from a hop sequence.
type Trail []orb.Point

func (t Trail) LineString() orb.LineString {
	return orb.LineString(t)
}

// Length returns the geodesic length in meters. Duplicated seam points add nothing.
func (t Trail) Length() float64 {
	return geo.Length(orb.LineString(t))
}

func (t Trail) Bound() orb.Bound {
	return orb.LineString(t).Bound()
}

type Graph struct {
	Nodes []Node
	Edges []Edge
}

// NodeIndex maps node ids to their position in Nodes.
func (g Graph) NodeIndex() map[NodeID]int {
	idx := make(map[NodeID]int, len(g.Nodes))
	for i, n := range g.Nodes {
		idx[n.ID] = i
	}
	return idx
}

func (g Graph) Node(id NodeID) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Geometries returns the edge geometries, used as background when rendering.
func (g Graph) Geometries() []orb.LineString {
	out := make([]orb.LineString, 0, len(g.Edges))
	for _, e := range g.Edges {
		out = append(out, e.Geometry)
	}
	return out
}

type StartKind int

const (
	StartNone StartKind = iota
	StartNode
	StartPoint
	StartAddress
)

func (k StartKind) String() string {
	switch k {
	case StartNode:
		return "node"
	case StartPoint:
		return "point"
	case StartAddress:
		return "address"
	default:
		return "none"
	}
}

// Start selects where the Eulerian sequence begins. Only the field matching
// Kind is meaningful.
type Start struct {
	Kind    StartKind
	Node    NodeID
	Point   orb.Point
	Address string
}

func StartAtNode(id NodeID) Start      { return Start{Kind: StartNode, Node: id} }
func StartAtPoint(p orb.Point) Start   { return Start{Kind: StartPoint, Point: p} }
func StartAtAddress(addr string) Start { return Start{Kind: StartAddress, Address: addr} }

type Mode string

const (
	ModeCircuit Mode = "circuit"
	ModePath    Mode = "path"
)

var ErrUnknownMode = errors.New("unknown trail mode")

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "circuit":
		return ModeCircuit, nil
	case "path":
		return ModePath, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// BBox uses the north, south, east, west ordering of the query interface.
type BBox struct {
	North, South, East, West float64
}

func (b BBox) String() string {
	return fmt.Sprintf("%.6f,%.6f,%.6f,%.6f", b.North, b.South, b.East, b.West)
}

func (b BBox) Bound() orb.Bound {
	return orb.Bound{Min: orb.Point{b.West, b.South}, Max: orb.Point{b.East, b.North}}
}

type QueryKind string

const (
	QueryPlace   QueryKind = "place"
	QueryBBox    QueryKind = "bbox"
	QueryAddress QueryKind = "address"
	QueryFile    QueryKind = "file"
)

// Query describes which street network to load.
type Query struct {
	Kind    QueryKind
	Place   string
	BBox    BBox
	Address string
	Dist    float64 // meters around Address
	Path    string  // local OSM XML or GeoJSON snapshot
}

// Name is a short label used for default output file names.
func (q Query) Name() string {
	switch q.Kind {
	case QueryPlace:
		return q.Place
	case QueryBBox:
		return q.BBox.String()
	case QueryAddress:
		return q.Address
	case QueryFile:
		base := q.Path
		if i := strings.LastIndexAny(base, `/\`); i >= 0 {
			base = base[i+1:]
		}
		if i := strings.LastIndex(base, "."); i > 0 {
			base = base[:i]
		}
		return base
	default:
		return "trail"
	}
}

type Format string

const (
	FormatGPX     Format = "gpx"
	FormatGeoJSON Format = "geojson"
)

var ErrUnknownFormat = errors.New("unknown output format")

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "gpx":
		return FormatGPX, nil
	case "geojson", "json":
		return FormatGeoJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

func (f Format) ContentType() string {
	if f == FormatGeoJSON {
		return "application/geo+json"
	}
	return "application/gpx+xml"
}

// TrailRequest is a validated GET /trail request.
type TrailRequest struct {
	Query   Query
	Network string
	Mode    Mode
	Start   Start
	Format  Format
}
