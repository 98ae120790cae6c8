// Package osm reads the line-oriented OSM XML subset (node, way, tag, nd)
// into id-keyed registries and a classified scene.
//
// The reader tracks at most one open element. Each node or way must close
// before the next one opens, and tag/nd children appear one level below
// their parent. Deeper nesting is not part of the supported input.
package osm

import (
	"strconv"

	"github.com/NERVsystems/osmscene/pkg/geo"
	"github.com/NERVsystems/osmscene/pkg/scene"
)

// ID identifies a node or a way. Node and way ids are separate namespaces.
type ID int64

// ParseID parses a complete, non-zero decimal id.
func ParseID(s string) (ID, bool) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v == 0 {
		return 0, false
	}
	return ID(v), true
}

// Node is a committed point with its projected position. Positions are in
// the absolute planar frame of the projection.
type Node struct {
	ID  ID        `json:"id"`
	Pos geo.Point `json:"pos"`
}

// WayKind is the classification outcome of a way.
type WayKind int

const (
	WayUnknown WayKind = iota
	WayRoad
	WayLandUse
)

// String returns the kind name
func (k WayKind) String() string {
	switch k {
	case WayRoad:
		return "road"
	case WayLandUse:
		return "land_use"
	default:
		return "unknown"
	}
}

// Classification is the tag-derived payload of a way. Only the fields for
// Kind are meaningful.
type Classification struct {
	Kind    WayKind
	Road    scene.RoadCategory    // WayRoad
	Name    string                // WayRoad
	HasName bool                  // WayRoad, a name tag was present
	LandUse scene.LandUseCategory // WayLandUse
}

// Way is a committed way: its node references in document order and its
// classification.
type Way struct {
	ID      ID
	NodeIDs []ID
	Class   Classification
}
