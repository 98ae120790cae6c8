package osm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/NERVsystems/osmscene/pkg/geo"
	"github.com/NERVsystems/osmscene/pkg/scene"
)

// Element names understood by the reader. Anything else is skipped.
const (
	ElemNode = "node"
	ElemWay  = "way"
	ElemTag  = "tag"
	ElemNd   = "nd"

	ElemRelation = "relation"
)

// skippedContainers are elements read over as a whole: their children
// (tag, nd, member) are dropped without diagnostics.
var skippedContainers = map[string]struct{}{
	ElemRelation: {},
	"changeset":  {},
}

// ctxCheckInterval is how many records pass between cancellation checks.
const ctxCheckInterval = 1024

type state int

const (
	stateIdle state = iota
	stateInNode
	stateInWay
)

// nodeAcc accumulates an open node until it closes.
type nodeAcc struct {
	rawID    string
	id       ID
	idOK     bool
	lat, lon float64
	hasLat   bool
	hasLon   bool
	badLat   bool
	badLon   bool
	rawLat   string
	rawLon   string
	pos      geo.Point
}

// wayAcc accumulates an open way until it closes. A broken way is still
// read to its close tag but never committed.
type wayAcc struct {
	rawID   string
	id      ID
	idOK    bool
	nodeIDs []ID
	broken  bool
}

// parseContext is the state of one parse invocation. Nothing in it is
// shared with other invocations.
type parseContext struct {
	opts   Options
	logger *slog.Logger
	source string
	line   int

	state   state
	skipped string // open container whose children are dropped
	node    nodeAcc
	way     wayAcc
	tags    map[string]string

	nodes      *NodeRegistry
	ways       *WayRegistry
	scene      *scene.Scene
	referenced map[ID]struct{}

	stats     Stats
	collected []*ElementError
}

func newParseContext(opts Options, source string, logger *slog.Logger) *parseContext {
	return &parseContext{
		opts:       opts,
		logger:     logger,
		source:     source,
		tags:       make(map[string]string),
		nodes:      newRegistry[Node](opts.Limits.MaxNodes),
		ways:       newRegistry[Way](opts.Limits.MaxWays),
		scene:      scene.New(),
		referenced: make(map[ID]struct{}),
	}
}

func (pc *parseContext) run(ctx context.Context, r io.Reader) error {
	sc := NewScanner(r)
	sc.SetMaxLineBytes(pc.opts.Limits.MaxLineBytes)
	for sc.Scan() {
		if pc.stats.Records%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				pc.stats.Lines = sc.Line()
				return fmt.Errorf("parse %s stopped at line %d: %w", pc.source, sc.Line(), err)
			}
		}
		pc.stats.Records++
		pc.handle(sc.Record())
	}
	pc.stats.Lines = sc.Line()
	if err := sc.Err(); err != nil {
		return err
	}

	pc.line = sc.Line()
	return pc.finish()
}

// handle drives the state machine with one record.
func (pc *parseContext) handle(rec Record) {
	pc.line = rec.Line
	if rec.Err != nil {
		pc.report("line", 0, rec.Err)
		return
	}

	if pc.skipped != "" && pc.skip(rec) {
		return
	}

	switch rec.Name {
	case ElemNode:
		if !rec.Opening {
			pc.closeNode()
			return
		}
		pc.openNode(rec.Attrs)
		if rec.SelfClosing {
			pc.closeNode()
		}
	case ElemWay:
		if !rec.Opening {
			pc.closeWay()
			return
		}
		pc.openWay(rec.Attrs)
		if rec.SelfClosing {
			pc.closeWay()
		}
	case ElemTag:
		if rec.Opening {
			pc.addTag(rec.Attrs)
		}
	case ElemNd:
		if rec.Opening {
			pc.addNodeRef(rec.Attrs)
		}
	default:
		pc.stats.Ignored++
		if _, ok := skippedContainers[rec.Name]; ok && pc.state == stateIdle && rec.Opening && !rec.SelfClosing {
			pc.skipped = rec.Name
		}
	}
}

// skip consumes records inside a skipped container. It returns false for
// records the state machine must still see: an opening node or way ends
// an unterminated container without leaving Idle.
func (pc *parseContext) skip(rec Record) bool {
	switch {
	case rec.Name == pc.skipped && !rec.Opening:
		pc.skipped = ""
	case rec.Opening && (rec.Name == ElemNode || rec.Name == ElemWay):
		pc.skipped = ""
		return false
	}
	pc.stats.Ignored++
	return true
}

// reset returns to Idle with fresh accumulators and a fresh tag set.
func (pc *parseContext) reset() {
	pc.state = stateIdle
	pc.node = nodeAcc{}
	pc.way = wayAcc{}
	pc.tags = make(map[string]string)
}

// abandon drops an element that never saw its close tag.
func (pc *parseContext) abandon() {
	switch pc.state {
	case stateInNode:
		pc.stats.NodesRejected++
		pc.report(ElemNode, pc.node.id, ErrUnterminated)
	case stateInWay:
		pc.stats.WaysRejected++
		pc.report(ElemWay, pc.way.id, ErrUnterminated)
	}
	pc.reset()
}

func (pc *parseContext) openNode(attrs string) {
	if pc.state != stateIdle {
		pc.abandon()
	}
	pc.state = stateInNode

	acc := nodeAcc{pos: geo.UnsetPoint}
	VisitAttributes(attrs, func(key, value string) {
		switch key {
		case "id":
			acc.rawID = value
			acc.id, acc.idOK = ParseID(value)
		case "lat":
			acc.rawLat = value
			acc.lat, acc.hasLat, acc.badLat = parseCoord(value)
		case "lon":
			acc.rawLon = value
			acc.lon, acc.hasLon, acc.badLon = parseCoord(value)
		}
	})
	if acc.hasLat && acc.hasLon {
		acc.pos = geo.Project(acc.lat, acc.lon, pc.opts.Zoom)
	}
	pc.node = acc
}

func parseCoord(s string) (v float64, ok, bad bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, true
	}
	return f, true, false
}

// validate checks that the node can be committed.
func (a *nodeAcc) validate() error {
	switch {
	case !a.idOK && a.rawID == "":
		return fmt.Errorf("id: %w", ErrMissingAttr)
	case !a.idOK:
		return fmt.Errorf("id %q: %w", a.rawID, ErrInvalidAttr)
	case a.badLat:
		return fmt.Errorf("lat %q: %w", a.rawLat, ErrInvalidAttr)
	case a.badLon:
		return fmt.Errorf("lon %q: %w", a.rawLon, ErrInvalidAttr)
	case !a.hasLat:
		return fmt.Errorf("lat: %w", ErrMissingAttr)
	case !a.hasLon:
		return fmt.Errorf("lon: %w", ErrMissingAttr)
	case !a.pos.IsSet():
		return fmt.Errorf("lat=%v lon=%v: %w", a.lat, a.lon, ErrOffProjection)
	}
	return nil
}

func (pc *parseContext) closeNode() {
	if pc.state != stateInNode {
		pc.report(ElemNode, 0, fmt.Errorf("close tag without open node: %w", ErrMisplaced))
		return
	}
	acc := pc.node
	pc.reset()

	if err := acc.validate(); err != nil {
		pc.stats.NodesRejected++
		pc.report(ElemNode, acc.id, err)
		return
	}

	node := Node{ID: acc.id, Pos: acc.pos}
	if err := pc.nodes.insert(node.ID, node); err != nil {
		pc.stats.NodesRejected++
		pc.report(ElemNode, node.ID, err)
		return
	}
	pc.stats.NodesCommitted++
}

func (pc *parseContext) openWay(attrs string) {
	if pc.state != stateIdle {
		pc.abandon()
	}
	pc.state = stateInWay

	acc := wayAcc{nodeIDs: []ID{}}
	VisitAttributes(attrs, func(key, value string) {
		if key == "id" {
			acc.rawID = value
			acc.id, acc.idOK = ParseID(value)
		}
	})
	pc.way = acc
}

func (pc *parseContext) closeWay() {
	if pc.state != stateInWay {
		pc.report(ElemWay, 0, fmt.Errorf("close tag without open way: %w", ErrMisplaced))
		return
	}
	acc := pc.way
	tags := pc.tags
	pc.reset()

	if acc.broken {
		// already reported when the bad nd was read
		pc.stats.WaysRejected++
		pc.logger.Debug("dropping broken way", "line", pc.line, "id", acc.id)
		return
	}
	if !acc.idOK {
		pc.stats.WaysRejected++
		if acc.rawID == "" {
			pc.report(ElemWay, 0, fmt.Errorf("id: %w", ErrMissingAttr))
		} else {
			pc.report(ElemWay, 0, fmt.Errorf("id %q: %w", acc.rawID, ErrInvalidAttr))
		}
		return
	}

	way := Way{
		ID:      acc.id,
		NodeIDs: acc.nodeIDs,
		Class:   Classify(tags),
	}
	if err := pc.ways.insert(way.ID, way); err != nil {
		pc.stats.WaysRejected++
		pc.report(ElemWay, way.ID, err)
		return
	}
	pc.stats.WaysCommitted++

	pc.emit(way)
}

// emit turns a committed, classified way into scene geometry.
func (pc *parseContext) emit(way Way) {
	if way.Class.Kind == WayUnknown {
		pc.stats.UnknownWays++
		return
	}

	pts, err := pc.resolve(way)
	if err != nil {
		pc.stats.DanglingWays++
		pc.report(ElemWay, way.ID, err)
		return
	}

	switch way.Class.Kind {
	case WayRoad:
		road := scene.Road{
			ID:       int64(way.ID),
			Category: way.Class.Road,
			Segments: pts,
		}
		if way.Class.HasName {
			name := way.Class.Name
			road.Name = &name
		}
		pc.scene.AddRoad(road)
		pc.stats.Roads++
	case WayLandUse:
		pc.scene.AddLandUse(scene.LandUse{
			ID:       int64(way.ID),
			Category: way.Class.LandUse,
			Polygon:  pts,
		})
		pc.stats.LandUses++
	}

	for _, id := range way.NodeIDs {
		pc.referenced[id] = struct{}{}
	}
}

// resolve looks up every node of way. A single missing node fails the
// whole way so no partial geometry escapes.
func (pc *parseContext) resolve(way Way) ([]geo.Point, error) {
	pts := make([]geo.Point, 0, len(way.NodeIDs))
	for _, id := range way.NodeIDs {
		n, ok := pc.nodes.Get(id)
		if !ok {
			return nil, fmt.Errorf("node %d: %w", id, ErrDanglingRef)
		}
		pts = append(pts, n.Pos)
	}
	return pts, nil
}

func (pc *parseContext) addTag(attrs string) {
	if pc.state == stateIdle {
		pc.report(ElemTag, 0, fmt.Errorf("tag outside node or way: %w", ErrMisplaced))
		return
	}

	var key, value string
	var hasKey, hasValue bool
	VisitAttributes(attrs, func(k, v string) {
		switch k {
		case "k":
			key, hasKey = v, true
		case "v":
			value, hasValue = v, true
		}
	})
	if !hasKey || !hasValue {
		pc.report(ElemTag, pc.currentID(), ErrMalformedTag)
		return
	}
	pc.tags[key] = value
}

func (pc *parseContext) addNodeRef(attrs string) {
	switch pc.state {
	case stateIdle:
		pc.report(ElemNd, 0, fmt.Errorf("nd outside way: %w", ErrMisplaced))
		return
	case stateInNode:
		id := pc.node.id
		pc.stats.NodesRejected++
		pc.reset()
		pc.report(ElemNd, id, fmt.Errorf("nd inside node: %w", ErrMisplaced))
		return
	}

	if pc.way.broken {
		return
	}

	var raw string
	var found bool
	VisitAttributes(attrs, func(k, v string) {
		if k == "ref" {
			raw, found = v, true
		}
	})

	var err error
	ref, ok := ParseID(raw)
	switch {
	case !found:
		err = fmt.Errorf("ref: %w", ErrMissingAttr)
	case !ok:
		err = fmt.Errorf("ref %q: %w", raw, ErrInvalidAttr)
	case pc.opts.Limits.MaxWayNodes > 0 && len(pc.way.nodeIDs) >= pc.opts.Limits.MaxWayNodes:
		err = fmt.Errorf("more than %d node refs: %w", pc.opts.Limits.MaxWayNodes, ErrCapacity)
	}
	if err != nil {
		pc.way.broken = true
		pc.report(ElemNd, pc.way.id, err)
		return
	}

	pc.way.nodeIDs = append(pc.way.nodeIDs, ref)
}

func (pc *parseContext) currentID() ID {
	switch pc.state {
	case stateInNode:
		return pc.node.id
	case stateInWay:
		return pc.way.id
	}
	return 0
}

// finish closes out the input: drops a dangling open element and
// normalizes the scene against the nodes its geometry references.
func (pc *parseContext) finish() error {
	if pc.state != stateIdle {
		pc.abandon()
	}

	extent := geo.EmptyRect()
	for id := range pc.referenced {
		if n, ok := pc.nodes.Get(id); ok {
			extent.Extend(n.Pos)
		}
	}
	return pc.scene.Normalize(extent)
}

// report delivers an element-level error.
func (pc *parseContext) report(element string, id ID, err error) {
	ee := &ElementError{
		Line:    pc.line,
		Element: element,
		ID:      id,
		Err:     err,
	}

	pc.stats.Diagnostics++
	if errors.Is(err, ErrCapacity) {
		pc.stats.CapacityErrors++
	}

	pc.logger.Debug("dropping element",
		"line", ee.Line,
		"element", element,
		"id", int64(id),
		"status", ee.Status().String(),
		"error", err)
	pc.opts.Hooks.diagnostic(element, ee.Status())

	if pc.opts.Sink != nil {
		pc.opts.Sink.Report(ee)
		return
	}
	pc.collected = append(pc.collected, ee)
}

func (pc *parseContext) result() *Result {
	return &Result{
		Source:      pc.source,
		Scene:       pc.scene,
		Nodes:       pc.nodes,
		Ways:        pc.ways,
		Stats:       pc.stats,
		Diagnostics: pc.collected,
	}
}
