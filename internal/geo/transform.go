// Package geo converts between the three coordinate spaces of the planner:
// scene units (internal 2D, y positive down), geodetic degrees (WGS-84
// lon/lat), and Web Mercator metres (EPSG:3857).
package geo

import "math"

const (
	// Scene scale: sceneX / (Scale*HalfWidth) is roughly [-1, 1] at world
	// extent. HalfWidth is the scene half-width in scene units.
	Scale     = 1.0
	HalfWidth = 1000.0

	// EarthRadius is the WGS-84 semi-major axis, also the sphere radius of
	// the Web Mercator projection, in metres.
	EarthRadius = 6378137.0

	// MaxMercatorLat is the Web Mercator latitude cutoff in degrees.
	MaxMercatorLat = 85.051129

	// MercatorExtent is the half-extent of the projected plane in metres.
	MercatorExtent = math.Pi * EarthRadius
)

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// latToMercator maps latitude degrees to the normalized Mercator ordinate
// ln(tan(pi/4 + lat/2)). Latitude is clamped to the Web Mercator cutoff.
func latToMercator(lat float64) float64 {
	lat = clamp(lat, -MaxMercatorLat, MaxMercatorLat)
	rad := lat * math.Pi / 180
	return math.Log(math.Tan(math.Pi/4 + rad/2))
}

// mercatorToLat inverts latToMercator. The result is clamped to the same
// cutoff so extreme ordinates round-trip consistently.
func mercatorToLat(m float64) float64 {
	lat := (2*math.Atan(math.Exp(m)) - math.Pi/2) * 180 / math.Pi
	return clamp(lat, -MaxMercatorLat, MaxMercatorLat)
}

// SceneToGeodetic maps a scene point to (lon, lat) degrees. Non-finite
// inputs yield (0, 0).
func SceneToGeodetic(x, y float64) (lon, lat float64) {
	if !finite(x, y) {
		return 0, 0
	}
	nx := x / (Scale * HalfWidth)
	ny := -y / (Scale * HalfWidth)
	lon = nx * 180
	lat = mercatorToLat(ny * math.Pi)
	if !finite(lon, lat) {
		return 0, 0
	}
	return clamp(lon, -180, 180), lat
}

// GeodeticToScene maps (lon, lat) degrees to a scene point. Non-finite
// inputs yield (0, 0).
func GeodeticToScene(lon, lat float64) (x, y float64) {
	if !finite(lon, lat) {
		return 0, 0
	}
	x = lon / 180 * (Scale * HalfWidth)
	y = -latToMercator(lat) / math.Pi * (Scale * HalfWidth)
	if !finite(x, y) {
		return 0, 0
	}
	return x, y
}

// ToProjected maps (lon, lat) degrees to Web Mercator metres.
func ToProjected(lon, lat float64) (x, y float64) {
	if !finite(lon, lat) {
		return 0, 0
	}
	lon = wrapLongitude(lon)
	x = EarthRadius * lon * math.Pi / 180
	y = EarthRadius * latToMercator(lat)
	if !finite(x, y) {
		return 0, 0
	}
	return x, y
}

// ToGeodetic maps Web Mercator metres back to (lon, lat) degrees. Longitude
// is wrapped to (-180, 180].
func ToGeodetic(x, y float64) (lon, lat float64) {
	if !finite(x, y) {
		return 0, 0
	}
	lon = wrapLongitude(x / EarthRadius * 180 / math.Pi)
	lat = mercatorToLat(y / EarthRadius)
	if !finite(lon, lat) {
		return 0, 0
	}
	return lon, lat
}

// ProjectedDistance is the Euclidean distance between two geodetic points
// after Web Mercator projection. Not geodesic; accepted as the cost of the
// projection when the view is in projected mode.
func ProjectedDistance(lon1, lat1, lon2, lat2 float64) float64 {
	x1, y1 := ToProjected(lon1, lat1)
	x2, y2 := ToProjected(lon2, lat2)
	return math.Hypot(x2-x1, y2-y1)
}

func wrapLongitude(lon float64) float64 {
	for lon > 180 {
		lon -= 360
	}
	for lon <= -180 {
		lon += 360
	}
	return lon
}
