package server

import (
	"context"
	"encoding/json"
	"math"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/NERVsystems/osmscene/pkg/coords"
	"github.com/NERVsystems/osmscene/pkg/geo"
	"github.com/NERVsystems/osmscene/pkg/osm"
	"github.com/NERVsystems/osmscene/pkg/scene"
	"github.com/NERVsystems/osmscene/pkg/version"
)

const (
	// DefaultLimit caps list results when the caller gives no limit.
	DefaultLimit = 100
	// MaxLimit is the largest limit a caller may ask for.
	MaxLimit = 1000
	// maxDiagnostics is how many diagnostics a summary carries.
	maxDiagnostics = 20
)

// bindArguments decodes the call arguments into v.
func bindArguments(req mcp.CallToolRequest, v any) error {
	data, err := json.Marshal(req.Params.Arguments)
	if err != nil {
		return err
	}
	if string(data) == "null" {
		return nil
	}
	return json.Unmarshal(data, v)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return NewError(ErrInternal, "failed to generate result").ToMCPResult(), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func clampLimit(limit int) (int, *ToolError) {
	switch {
	case limit == 0:
		return DefaultLimit, nil
	case limit < 0 || limit > MaxLimit:
		return 0, invalidInput("limit must be between 1 and %d", MaxLimit)
	default:
		return limit, nil
	}
}

// load returns the parse result for path through the scene cache.
func (r *Registry) load(ctx context.Context, path string) (*osm.Result, bool, *ToolError) {
	if strings.TrimSpace(path) == "" {
		return nil, false, missingParameter("path")
	}
	resolved, terr := r.resolvePath(path)
	if terr != nil {
		r.logger.Warn("scene path rejected", "path", path, "code", terr.Code)
		return nil, false, terr
	}
	res, hit, err := r.scenes.Load(ctx, resolved)
	if err != nil {
		r.logger.Warn("scene load failed", "path", path, "error", err)
		return nil, false, loadError(path, err)
	}
	return res, hit, nil
}

// GetVersionTool returns the get_version tool definition.
func GetVersionTool() mcp.Tool {
	return mcp.NewTool("get_version",
		mcp.WithDescription("Get the version and build information of the scene service"),
	)
}

// HandleGetVersion reports build metadata.
func (r *Registry) HandleGetVersion(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	info := version.Info()
	info["name"] = ServerName
	return jsonResult(info)
}

// SceneInput names the file a scene tool works on.
type SceneInput struct {
	Path string `json:"path"`
}

// SceneSummary describes one parsed file.
type SceneSummary struct {
	Path    string     `json:"path"`
	Status  string     `json:"status"`
	Message string     `json:"message"`
	Cached  bool       `json:"cached"`
	Bounds  scene.Size `json:"bounds"`
	Origin  geo.Point  `json:"origin"`
	Stats   osm.Stats  `json:"stats"`

	RoadCategories    map[string]int `json:"road_categories"`
	LandUseCategories map[string]int `json:"land_use_categories"`

	Diagnostics          []string `json:"diagnostics,omitempty"`
	DiagnosticsTruncated bool     `json:"diagnostics_truncated,omitempty"`
}

// ParseOSMFileTool returns the parse_osm_file tool definition.
func ParseOSMFileTool() mcp.Tool {
	return mcp.NewTool("parse_osm_file",
		mcp.WithDescription("Parse an OSM file into a normalized scene of roads and land-use polygons and summarize it"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path of the OSM file, relative to the server's data directory"),
		),
	)
}

// HandleParseOSMFile parses a file, or reuses the cached parse, and
// returns its summary.
func (r *Registry) HandleParseOSMFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input SceneInput
	if err := bindArguments(req, &input); err != nil {
		return invalidInput("invalid input format").ToMCPResult(), nil
	}

	res, hit, terr := r.load(ctx, input.Path)
	if terr != nil {
		return terr.ToMCPResult(), nil
	}

	status := res.Status()
	summary := SceneSummary{
		Path:              input.Path,
		Status:            status.String(),
		Message:           status.Message(),
		Cached:            hit,
		Bounds:            res.Scene.Bounds,
		Origin:            res.Scene.Origin,
		Stats:             res.Stats,
		RoadCategories:    make(map[string]int),
		LandUseCategories: make(map[string]int),
	}
	for _, road := range res.Scene.Roads {
		summary.RoadCategories[road.Category.String()]++
	}
	for _, lu := range res.Scene.LandUses {
		summary.LandUseCategories[lu.Category.String()]++
	}
	for i, d := range res.Diagnostics {
		if i == maxDiagnostics {
			summary.DiagnosticsTruncated = true
			break
		}
		summary.Diagnostics = append(summary.Diagnostics, d.Error())
	}

	return jsonResult(summary)
}

// RoadsInput filters scene_roads.
type RoadsInput struct {
	Path     string `json:"path"`
	Category string `json:"category,omitempty"`
	Name     string `json:"name,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

// RoadsOutput lists matching roads in document order.
type RoadsOutput struct {
	Path    string       `json:"path"`
	Matched int          `json:"matched"`
	Roads   []scene.Road `json:"roads"`
}

// SceneRoadsTool returns the scene_roads tool definition.
func SceneRoadsTool() mcp.Tool {
	return mcp.NewTool("scene_roads",
		mcp.WithDescription("List the roads of a parsed OSM file, in normalized planar coordinates"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path of the OSM file, relative to the server's data directory"),
		),
		mcp.WithString("category",
			mcp.Description("Only roads of this category: motorway, primary, secondary, minor, residential, pedestrian or unknown"),
		),
		mcp.WithString("name",
			mcp.Description("Only roads whose name contains this text, case-insensitively"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of roads to return (default 100, max 1000)"),
		),
	)
}

// HandleSceneRoads lists roads matching the filters.
func (r *Registry) HandleSceneRoads(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input RoadsInput
	if err := bindArguments(req, &input); err != nil {
		return invalidInput("invalid input format").ToMCPResult(), nil
	}
	limit, terr := clampLimit(input.Limit)
	if terr != nil {
		return terr.ToMCPResult(), nil
	}

	var (
		category    scene.RoadCategory
		hasCategory = input.Category != ""
	)
	if hasCategory {
		var ok bool
		if category, ok = scene.ParseRoadCategory(input.Category); !ok {
			return invalidInput("unknown road category %q", input.Category).ToMCPResult(), nil
		}
	}
	name := strings.ToLower(input.Name)

	res, _, terr := r.load(ctx, input.Path)
	if terr != nil {
		return terr.ToMCPResult(), nil
	}

	out := RoadsOutput{Path: input.Path, Roads: []scene.Road{}}
	for _, road := range res.Scene.Roads {
		if hasCategory && road.Category != category {
			continue
		}
		if name != "" && !strings.Contains(strings.ToLower(road.GetName()), name) {
			continue
		}
		out.Matched++
		if len(out.Roads) < limit {
			out.Roads = append(out.Roads, road)
		}
	}
	return jsonResult(out)
}

// LandUseInput filters scene_land_use.
type LandUseInput struct {
	Path     string `json:"path"`
	Category string `json:"category,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

// LandUseOutput lists matching polygons in document order.
type LandUseOutput struct {
	Path     string          `json:"path"`
	Matched  int             `json:"matched"`
	LandUses []scene.LandUse `json:"land_uses"`
}

// SceneLandUseTool returns the scene_land_use tool definition.
func SceneLandUseTool() mcp.Tool {
	return mcp.NewTool("scene_land_use",
		mcp.WithDescription("List the land-use polygons of a parsed OSM file, in normalized planar coordinates"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path of the OSM file, relative to the server's data directory"),
		),
		mcp.WithString("category",
			mcp.Description("Only polygons of this category: residential, commercial, agricultural, industrial, green or water"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of polygons to return (default 100, max 1000)"),
		),
	)
}

// HandleSceneLandUse lists land-use polygons matching the filter.
func (r *Registry) HandleSceneLandUse(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input LandUseInput
	if err := bindArguments(req, &input); err != nil {
		return invalidInput("invalid input format").ToMCPResult(), nil
	}
	limit, terr := clampLimit(input.Limit)
	if terr != nil {
		return terr.ToMCPResult(), nil
	}

	var (
		category    scene.LandUseCategory
		hasCategory = input.Category != ""
	)
	if hasCategory {
		var ok bool
		if category, ok = scene.ParseLandUseCategory(input.Category); !ok {
			return invalidInput("unknown land-use category %q", input.Category).ToMCPResult(), nil
		}
	}

	res, _, terr := r.load(ctx, input.Path)
	if terr != nil {
		return terr.ToMCPResult(), nil
	}

	out := LandUseOutput{Path: input.Path, LandUses: []scene.LandUse{}}
	for _, lu := range res.Scene.LandUses {
		if hasCategory && lu.Category != category {
			continue
		}
		out.Matched++
		if len(out.LandUses) < limit {
			out.LandUses = append(out.LandUses, lu)
		}
	}
	return jsonResult(out)
}

// RectInput is a planar rectangle in the scene's normalized frame.
// Pointers distinguish a missing bound from zero.
type RectInput struct {
	Path string   `json:"path"`
	MinX *float64 `json:"min_x"`
	MinY *float64 `json:"min_y"`
	MaxX *float64 `json:"max_x"`
	MaxY *float64 `json:"max_y"`
}

// Feature is one hit of scene_features_in_rect.
type Feature struct {
	Kind     string   `json:"kind"`
	ID       int64    `json:"id"`
	Category string   `json:"category"`
	Name     string   `json:"name,omitempty"`
	Bounds   geo.Rect `json:"bounds"`
	Points   int      `json:"points"`
}

// FeaturesOutput lists features intersecting a rectangle, roads first.
type FeaturesOutput struct {
	Path     string    `json:"path"`
	Rect     geo.Rect  `json:"rect"`
	Features []Feature `json:"features"`
}

// SceneFeaturesInRectTool returns the scene_features_in_rect tool
// definition.
func SceneFeaturesInRectTool() mcp.Tool {
	return mcp.NewTool("scene_features_in_rect",
		mcp.WithDescription("Find roads and land-use polygons whose bounding box intersects a rectangle in the scene's normalized planar frame"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path of the OSM file, relative to the server's data directory"),
		),
		mcp.WithNumber("min_x", mcp.Required(), mcp.Description("Left edge, inclusive")),
		mcp.WithNumber("min_y", mcp.Required(), mcp.Description("Top edge, inclusive")),
		mcp.WithNumber("max_x", mcp.Required(), mcp.Description("Right edge, inclusive")),
		mcp.WithNumber("max_y", mcp.Required(), mcp.Description("Bottom edge, inclusive")),
	)
}

func planarCoord(name string, v *float64) (geo.Coord, *ToolError) {
	switch {
	case v == nil:
		return 0, missingParameter(name)
	case *v < 0 || *v >= float64(geo.Unset) || *v != math.Trunc(*v):
		return 0, invalidInput("%s must be a whole number between 0 and %d", name, geo.Unset-1)
	}
	return geo.Coord(*v), nil
}

// HandleSceneFeaturesInRect runs a spatial query against the scene index.
func (r *Registry) HandleSceneFeaturesInRect(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input RectInput
	if err := bindArguments(req, &input); err != nil {
		return invalidInput("invalid input format").ToMCPResult(), nil
	}

	var rect geo.Rect
	for _, c := range []struct {
		name string
		in   *float64
		out  *geo.Coord
	}{
		{"min_x", input.MinX, &rect.Min.X},
		{"min_y", input.MinY, &rect.Min.Y},
		{"max_x", input.MaxX, &rect.Max.X},
		{"max_y", input.MaxY, &rect.Max.Y},
	} {
		v, terr := planarCoord(c.name, c.in)
		if terr != nil {
			return terr.ToMCPResult(), nil
		}
		*c.out = v
	}
	if rect.IsEmpty() {
		return invalidInput("min corner must not exceed max corner").ToMCPResult(), nil
	}

	res, _, terr := r.load(ctx, input.Path)
	if terr != nil {
		return terr.ToMCPResult(), nil
	}

	out := FeaturesOutput{Path: input.Path, Rect: rect, Features: []Feature{}}
	for _, g := range res.Scene.FeaturesIn(rect) {
		f := Feature{
			Kind:   g.Kind().String(),
			ID:     g.WayID(),
			Bounds: g.Bounds(),
			Points: len(g.Points()),
		}
		switch v := g.(type) {
		case *scene.Road:
			f.Category = v.Category.String()
			f.Name = v.GetName()
		case *scene.LandUse:
			f.Category = v.Category.String()
		}
		out.Features = append(out.Features, f)
	}
	return jsonResult(out)
}

// ProjectInput is the input of project_location.
type ProjectInput struct {
	Coordinate string `json:"coordinate"`
	Path       string `json:"path,omitempty"`
}

// ProjectOutput is a resolved coordinate, optionally placed in a scene.
type ProjectOutput struct {
	coords.Position
	Path     string     `json:"path,omitempty"`
	Relative *geo.Point `json:"relative,omitempty"`
	InScene  bool       `json:"in_scene"`
}

// ProjectLocationTool returns the project_location tool definition.
func ProjectLocationTool() mcp.Tool {
	return mcp.NewTool("project_location",
		mcp.WithDescription("Convert a coordinate in decimal degrees, degrees-minutes-seconds or MGRS to the planar grid, optionally relative to a parsed scene"),
		mcp.WithString("coordinate",
			mcp.Required(),
			mcp.Description("Coordinate text, e.g. \"51.5, -0.1\", \"51°30'0\"N 0°6'0\"W\" or \"30UXC9997209718\""),
		),
		mcp.WithString("path",
			mcp.Description("Optional OSM file; the result then includes the position in that scene's normalized frame"),
		),
	)
}

// HandleProjectLocation resolves a coordinate and places it on the grid.
func (r *Registry) HandleProjectLocation(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input ProjectInput
	if err := bindArguments(req, &input); err != nil {
		return invalidInput("invalid input format").ToMCPResult(), nil
	}
	if strings.TrimSpace(input.Coordinate) == "" {
		return missingParameter("coordinate").ToMCPResult(), nil
	}

	pos, err := coords.Resolve(input.Coordinate, r.zoom)
	if err != nil {
		return invalidInput("%v", err).ToMCPResult(), nil
	}
	out := ProjectOutput{Position: pos}

	if input.Path != "" {
		res, _, terr := r.load(ctx, input.Path)
		if terr != nil {
			return terr.ToMCPResult(), nil
		}
		out.Path = input.Path

		sc := res.Scene
		if sc.Len() > 0 && pos.Point.Within(sc.Origin) {
			rel := pos.Point.Sub(sc.Origin)
			out.Relative = &rel
			out.InScene = rel.X <= sc.Bounds.Width && rel.Y <= sc.Bounds.Height
		}
	}
	return jsonResult(out)
}
