// Package geo provides geographic locations, the planar pixel grid used by
// the scene graph, and the projection between the two.
package geo

import (
	"fmt"
	"math"
)

// Zoom is the fixed slippy-map zoom level used for planar coordinates.
// At zoom 23 the whole world spans 2^23 units on each axis.
const Zoom = 23

// Coord is a planar coordinate on one axis.
type Coord uint32

// Unset marks a coordinate that has not been computed. It lies far outside
// the projected range of any zoom level this package accepts.
const Unset Coord = math.MaxUint32

// MaxZoom is the largest zoom level Project accepts. Beyond it the grid no
// longer fits below Unset.
const MaxZoom = 31

// Location is a geographic position in decimal degrees (WGS84).
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// String returns the location as "lat,lon".
func (l Location) String() string {
	return fmt.Sprintf("%.7f,%.7f", l.Latitude, l.Longitude)
}

// Point is a position on the planar grid.
type Point struct {
	X Coord `json:"x"`
	Y Coord `json:"y"`
}

// UnsetPoint is the point with both axes unset.
var UnsetPoint = Point{X: Unset, Y: Unset}

// IsSet reports whether both axes hold a computed coordinate.
func (p Point) IsSet() bool {
	return p.X != Unset && p.Y != Unset
}

// Sub translates p by -origin. Callers must ensure p lies at or beyond
// origin on both axes.
func (p Point) Sub(origin Point) Point {
	return Point{X: p.X - origin.X, Y: p.Y - origin.Y}
}

// Within reports whether p lies at or beyond origin on both axes, i.e.
// whether p.Sub(origin) is defined.
func (p Point) Within(origin Point) bool {
	return p.X >= origin.X && p.Y >= origin.Y
}

// String returns the point as "(x,y)".
func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// GridSize returns the number of planar units per axis at the given zoom.
func GridSize(zoom int) float64 {
	return math.Ldexp(1, zoom)
}

// Project converts a geographic position to a planar point at the given zoom
// using the slippy-map tile pixel projection:
//
//	x = (lon + 180) / 360 * 2^zoom
//	y = (1 - ln(tan(lat) + sec(lat)) / π) / 2 * 2^zoom
//
// Values are truncated toward zero. Inputs that do not land on the grid
// (non-finite values, latitudes beyond the Mercator limit, longitudes
// outside [-180, 180], or an unsupported zoom) yield UnsetPoint.
func Project(lat, lon float64, zoom int) Point {
	if zoom < 0 || zoom > MaxZoom {
		return UnsetPoint
	}
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return UnsetPoint
	}
	if lon < -180 || lon > 180 {
		return UnsetPoint
	}

	n := GridSize(zoom)
	latRad := lat * math.Pi / 180.0

	x := (lon + 180.0) / 360.0 * n
	y := (1.0 - math.Log(math.Tan(latRad)+1.0/math.Cos(latRad))/math.Pi) / 2.0 * n

	cx, ok := toCoord(x, n)
	if !ok {
		return UnsetPoint
	}
	cy, ok := toCoord(y, n)
	if !ok {
		return UnsetPoint
	}
	return Point{X: cx, Y: cy}
}

// ProjectLocation is Project for a Location.
func ProjectLocation(loc Location, zoom int) Point {
	return Project(loc.Latitude, loc.Longitude, zoom)
}

// toCoord truncates v toward zero, rejecting anything off the [0, n] grid.
// The far edge is inclusive so lon = 180 stays representable.
func toCoord(v, n float64) (Coord, bool) {
	if math.IsNaN(v) || v < 0 || v > n {
		return 0, false
	}
	return Coord(math.Trunc(v)), true
}

// Unproject converts a planar point back to the geographic position of its
// north-west corner.
func Unproject(p Point, zoom int) Location {
	n := GridSize(zoom)
	lon := float64(p.X)/n*360.0 - 180.0
	latRad := math.Atan(math.Sinh(math.Pi * (1 - 2*float64(p.Y)/n)))
	return Location{
		Latitude:  latRad * 180.0 / math.Pi,
		Longitude: lon,
	}
}
