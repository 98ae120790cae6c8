package osm

import (
	"github.com/NERVsystems/osmscene/pkg/geo"
	"github.com/NERVsystems/osmscene/pkg/scene"
)

// Stats counts what a parse saw and kept.
type Stats struct {
	Lines          int `json:"lines"`
	Records        int `json:"records"`
	NodesCommitted int `json:"nodes_committed"`
	NodesRejected  int `json:"nodes_rejected"`
	WaysCommitted  int `json:"ways_committed"`
	WaysRejected   int `json:"ways_rejected"`
	UnknownWays    int `json:"unknown_ways"`
	DanglingWays   int `json:"dangling_ways"`
	Roads          int `json:"roads"`
	LandUses       int `json:"land_uses"`
	Ignored        int `json:"ignored"`
	Diagnostics    int `json:"diagnostics"`
	CapacityErrors int `json:"capacity_errors"`
}

// Result is everything one parse produced. The registries and the scene
// belong to the caller once the parse returns.
type Result struct {
	Source string
	Scene  *scene.Scene
	Nodes  *NodeRegistry
	Ways   *WayRegistry
	Stats  Stats

	// Diagnostics holds element-level errors when no sink was configured.
	Diagnostics []*ElementError
}

// Status summarizes the parse: StatusOK when every element was accepted,
// StatusOutOfMemory when a capacity limit dropped an element, and
// StatusFormat for any other element-level error.
func (r *Result) Status() Status {
	switch {
	case r.Stats.CapacityErrors > 0:
		return StatusOutOfMemory
	case r.Stats.Diagnostics > 0:
		return StatusFormat
	default:
		return StatusOK
	}
}

// NodePosition returns the position of node id in the scene's normalized
// frame. ok is false when the node is unknown or lies before the scene
// origin on either axis, which only happens for nodes no kept geometry
// references.
func (r *Result) NodePosition(id ID) (geo.Point, bool) {
	n, found := r.Nodes.Get(id)
	if !found || !n.Pos.Within(r.Scene.Origin) {
		return geo.Point{}, false
	}
	return n.Pos.Sub(r.Scene.Origin), true
}
