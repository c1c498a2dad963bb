package locate

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
	"github.com/wroge/wgs84"
)

// Mercator is spherical web mercator. Fine for ranking nearby points but it
// stretches distances away from the equator; prefer UTM.
var Mercator orb.Projection = project.WGS84.ToMercator

// UTMZone returns the 1-based UTM zone containing lon.
func UTMZone(lon float64) int {
	z := int(math.Floor((lon+180)/6)) + 1
	if z < 1 {
		z = 1
	}
	if z > 60 {
		z = 60
	}
	return z
}

// UTM returns the transverse mercator projection of one UTM zone, mapping
// lon/lat degrees to easting/northing meters.
func UTM(zone int, north bool) orb.Projection {
	f := wgs84.LonLat().To(wgs84.UTM(float64(zone), north))
	return func(p orb.Point) orb.Point {
		e, n, _ := f(p.Lon(), p.Lat(), 0)
		return orb.Point{e, n}
	}
}

// UTMFor picks the UTM zone of the centroid of pts.
func UTMFor(pts ...orb.Point) orb.Projection {
	if len(pts) == 0 {
		return UTM(31, true)
	}
	var lon, lat float64
	for _, p := range pts {
		lon += p.Lon()
		lat += p.Lat()
	}
	n := float64(len(pts))
	return UTM(UTMZone(lon/n), lat/n >= 0)
}
