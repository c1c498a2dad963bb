package osmgraph

import (
	"fmt"
	"strings"

	"github.com/paulmach/osm"
)

// NetworkType selects which highways become graph edges.
type NetworkType string

const (
	NetworkAllPrivate NetworkType = "all_private"
	NetworkAll        NetworkType = "all"
	NetworkWalk       NetworkType = "walk"
	NetworkBike       NetworkType = "bike"
	NetworkDrive      NetworkType = "drive"
)

func ParseNetworkType(s string) (NetworkType, error) {
	switch t := NetworkType(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return NetworkWalk, nil
	case NetworkAllPrivate, NetworkAll, NetworkWalk, NetworkBike, NetworkDrive:
		return t, nil
	default:
		return "", fmt.Errorf("unknown network type %q", s)
	}
}

type filter struct {
	excludedHighway map[string]bool
	excludedService map[string]bool
	// tag that must not be "no" for the way to be usable, e.g. foot
	modeTag        string
	allowPrivate   bool
	excludeMotored bool
}

func set(vals ...string) map[string]bool {
	m := make(map[string]bool, len(vals))
	for _, v := range vals {
		m[v] = true
	}
	return m
}

var filters = map[NetworkType]filter{
	NetworkAllPrivate: {
		excludedHighway: set("abandoned", "construction", "planned", "platform", "proposed", "raceway"),
		allowPrivate:    true,
	},
	NetworkAll: {
		excludedHighway: set("abandoned", "construction", "planned", "platform", "proposed", "raceway"),
		excludedService: set("private"),
	},
	NetworkWalk: {
		excludedHighway: set("abandoned", "bus_guideway", "construction", "cycleway", "motor",
			"planned", "platform", "proposed", "raceway"),
		excludedService: set("private"),
		modeTag:         "foot",
		excludeMotored:  true,
	},
	NetworkBike: {
		excludedHighway: set("abandoned", "bus_guideway", "construction", "corridor", "elevator",
			"escalator", "footway", "motor", "planned", "platform", "proposed", "raceway", "steps"),
		excludedService: set("private"),
		modeTag:         "bicycle",
		excludeMotored:  true,
	},
	NetworkDrive: {
		excludedHighway: set("abandoned", "bridleway", "bus_guideway", "construction", "corridor",
			"cycleway", "elevator", "escalator", "footway", "path", "pedestrian", "planned",
			"platform", "proposed", "raceway", "service", "steps", "track"),
		excludedService: set("parking", "parking_aisle", "driveway", "private", "emergency_access"),
		modeTag:         "motor_vehicle",
	},
}

// Allows reports whether a way with these tags belongs to the network.
func (t NetworkType) Allows(tags osm.Tags) bool {
	f, ok := filters[t]
	if !ok {
		return false
	}
	hw := tags.Find("highway")
	if hw == "" || f.excludedHighway[hw] {
		return false
	}
	if tags.Find("area") == "yes" {
		return false
	}
	if f.excludedService[tags.Find("service")] {
		return false
	}
	if !f.allowPrivate && tags.Find("access") == "private" {
		return false
	}
	if f.modeTag != "" && tags.Find(f.modeTag) == "no" {
		return false
	}
	if f.excludeMotored && (hw == "motorway" || hw == "motorway_link") {
		return false
	}
	return true
}
