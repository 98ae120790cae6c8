// Package scene holds the classified, normalized scene graph produced from a
// map-data source: roads and land-use polygons on a planar grid.
package scene

import (
	"errors"
	"sync"

	"github.com/NERVsystems/osmscene/pkg/geo"
)

// ErrAlreadyNormalized is returned when Normalize runs twice on one scene.
var ErrAlreadyNormalized = errors.New("scene already normalized")

// Kind identifies the variant of a kept geometry.
type Kind int

const (
	KindRoad Kind = iota + 1
	KindLandUse
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case KindRoad:
		return "road"
	case KindLandUse:
		return "land_use"
	default:
		return "unknown"
	}
}

// Geometry is a kept feature: either a *Road or a *LandUse.
type Geometry interface {
	Kind() Kind
	WayID() int64
	Points() []geo.Point
	Bounds() geo.Rect
}

// Road is a polyline derived from a way tagged highway=*.
type Road struct {
	ID       int64        `json:"id"`
	Category RoadCategory `json:"category"`
	Segments []geo.Point  `json:"segments"`
	Name     *string      `json:"name,omitempty"` // nil when the way had no name tag
}

func (r *Road) Kind() Kind          { return KindRoad }
func (r *Road) WayID() int64        { return r.ID }
func (r *Road) Points() []geo.Point { return r.Segments }
func (r *Road) Bounds() geo.Rect    { return geo.BoundsOf(r.Segments) }

// HasName reports whether the source way carried a name tag, possibly
// with an empty value.
func (r *Road) HasName() bool { return r.Name != nil }

// GetName returns the name, or "" when there is none.
func (r *Road) GetName() string {
	if r.Name == nil {
		return ""
	}
	return *r.Name
}

// LandUse is a polygon derived from a way tagged landuse=* with a known value.
type LandUse struct {
	ID       int64           `json:"id"`
	Category LandUseCategory `json:"category"`
	Polygon  []geo.Point     `json:"polygon"`
}

func (l *LandUse) Kind() Kind          { return KindLandUse }
func (l *LandUse) WayID() int64        { return l.ID }
func (l *LandUse) Points() []geo.Point { return l.Polygon }
func (l *LandUse) Bounds() geo.Rect    { return geo.BoundsOf(l.Polygon) }

// Size is the extent of a scene in planar units.
type Size struct {
	Width  geo.Coord `json:"width"`
	Height geo.Coord `json:"height"`
}

// Scene is the output of one parse. Roads and land uses are kept in document
// order. After Normalize every point is relative to Origin.
type Scene struct {
	Bounds   Size      `json:"bounds"`
	Origin   geo.Point `json:"origin"`
	Roads    []Road    `json:"roads"`
	LandUses []LandUse `json:"land_uses"`

	normalized bool

	indexOnce sync.Once
	index     *Index
}

// New returns an empty scene.
func New() *Scene {
	return &Scene{
		Roads:    []Road{},
		LandUses: []LandUse{},
	}
}

// AddRoad appends a resolved road.
func (s *Scene) AddRoad(r Road) {
	s.Roads = append(s.Roads, r)
}

// AddLandUse appends a resolved land-use polygon.
func (s *Scene) AddLandUse(l LandUse) {
	s.LandUses = append(s.LandUses, l)
}

// Len returns the number of kept geometries.
func (s *Scene) Len() int {
	return len(s.Roads) + len(s.LandUses)
}

// Normalized reports whether Normalize has run.
func (s *Scene) Normalized() bool {
	return s.normalized
}

// Geometries returns every kept geometry, roads first then land uses, each
// in document order.
func (s *Scene) Geometries() []Geometry {
	out := make([]Geometry, 0, s.Len())
	for i := range s.Roads {
		out = append(out, &s.Roads[i])
	}
	for i := range s.LandUses {
		out = append(out, &s.LandUses[i])
	}
	return out
}

// Normalize translates every kept point so that the minimum corner of
// extent becomes the origin, and sets Bounds to the extent's size. extent
// must cover every kept point. An empty extent leaves the scene untranslated
// with zero bounds.
func (s *Scene) Normalize(extent geo.Rect) error {
	if s.normalized {
		return ErrAlreadyNormalized
	}
	s.normalized = true

	if extent.IsEmpty() {
		s.Bounds = Size{}
		s.Origin = geo.Point{}
		return nil
	}

	origin := extent.Min
	for i := range s.Roads {
		translate(s.Roads[i].Segments, origin)
	}
	for i := range s.LandUses {
		translate(s.LandUses[i].Polygon, origin)
	}

	s.Origin = origin
	s.Bounds = Size{Width: extent.Width(), Height: extent.Height()}
	return nil
}

func translate(pts []geo.Point, origin geo.Point) {
	for i := range pts {
		pts[i] = pts[i].Sub(origin)
	}
}
