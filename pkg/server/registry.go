package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"

	"github.com/NERVsystems/osmscene/pkg/cache"
	"github.com/NERVsystems/osmscene/pkg/geo"
	"github.com/NERVsystems/osmscene/pkg/monitoring"
	"github.com/NERVsystems/osmscene/pkg/tracing"
)

const defaultZoom = geo.Zoom

// ToolHandler handles one tool call.
type ToolHandler func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)

// ToolDefinition pairs a tool with its handler.
type ToolDefinition struct {
	Name        string
	Description string
	Tool        mcp.Tool
	Handler     ToolHandler
}

// Registry holds the scene tools and the state they share.
type Registry struct {
	scenes *cache.SceneCache
	zoom   int
	root   string
	logger *slog.Logger

	toolRate  rate.Limit
	toolBurst int
}

// NewRegistry creates a registry serving scenes.
func NewRegistry(scenes *cache.SceneCache, opts Options, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}

	var root string
	if opts.DataDir != "" {
		var err error
		root, err = resolveRoot(opts.DataDir)
		if err != nil {
			// root still holds the absolute path; nothing outside it is served
			logger.Error("data directory unavailable", "dir", opts.DataDir, "error", err)
		}
		logger.Info("serving files from data directory", "dir", root)
	}

	return &Registry{
		scenes:    scenes,
		zoom:      opts.Zoom,
		root:      root,
		logger:    logger,
		toolRate:  opts.ToolRate,
		toolBurst: opts.ToolBurst,
	}
}

// GetToolDefinitions returns every tool the server offers.
func (r *Registry) GetToolDefinitions() []ToolDefinition {
	return []ToolDefinition{
		{
			Name:        "get_version",
			Description: "Get the version and build information of the scene service",
			Tool:        GetVersionTool(),
			Handler:     r.HandleGetVersion,
		},
		{
			Name:        "parse_osm_file",
			Description: "Parse an OSM file and summarize the resulting scene",
			Tool:        ParseOSMFileTool(),
			Handler:     r.HandleParseOSMFile,
		},
		{
			Name:        "scene_roads",
			Description: "List the roads of a parsed scene",
			Tool:        SceneRoadsTool(),
			Handler:     r.HandleSceneRoads,
		},
		{
			Name:        "scene_land_use",
			Description: "List the land-use polygons of a parsed scene",
			Tool:        SceneLandUseTool(),
			Handler:     r.HandleSceneLandUse,
		},
		{
			Name:        "scene_features_in_rect",
			Description: "Find scene features intersecting a planar rectangle",
			Tool:        SceneFeaturesInRectTool(),
			Handler:     r.HandleSceneFeaturesInRect,
		},
		{
			Name:        "project_location",
			Description: "Project a coordinate onto the planar grid",
			Tool:        ProjectLocationTool(),
			Handler:     r.HandleProjectLocation,
		},
	}
}

// GetToolNames returns the names of all tools.
func (r *Registry) GetToolNames() []string {
	defs := r.GetToolDefinitions()
	names := make([]string, len(defs))
	for i, def := range defs {
		names[i] = def.Name
	}
	return names
}

// RegisterTools adds every tool to s.
func (r *Registry) RegisterTools(s *mcpserver.MCPServer) {
	for _, def := range r.GetToolDefinitions() {
		r.logger.Debug("registering tool", "name", def.Name)
		s.AddTool(def.Tool, r.wrap(def.Name, def.Handler))
	}
}

// wrap adds rate limiting, a span and request metrics around a handler.
// Each tool gets its own token bucket.
func (r *Registry) wrap(name string, handler ToolHandler) mcpserver.ToolHandlerFunc {
	var limiter *rate.Limiter
	if r.toolRate > 0 {
		limiter = rate.NewLimiter(r.toolRate, max(r.toolBurst, 1))
	}

	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx, span := tracing.StartTool(ctx, name)
		defer span.End()

		if limiter != nil && !limiter.Allow() {
			monitoring.RecordRateLimitExceeded(name)
			span.SetAttributes(attribute.String(tracing.AttrMCPToolStatus, tracing.StatusRateLimited))
			tracing.Fail(span, "rate limited")
			r.logger.Warn("tool rate limited", "tool", name)
			return NewError(ErrRateLimit, name+" is rate limited").
				WithGuidance("Retry after a short pause.").
				ToMCPResult(), nil
		}

		start := time.Now()
		result, err := handler(ctx, req)
		duration := time.Since(start)

		status := tracing.StatusSuccess
		switch {
		case err != nil:
			status = tracing.StatusError
			tracing.Finish(span, err)
		case result != nil && result.IsError:
			status = tracing.StatusError
			tracing.Fail(span, "tool returned an error result")
		default:
			tracing.Finish(span, nil)
		}

		size := 0
		if result != nil && result.Content != nil {
			if data, merr := json.Marshal(result.Content); merr == nil {
				size = len(data)
			}
		}
		span.SetAttributes(tracing.MCPToolAttributes(name, status, duration.Milliseconds(), size)...)
		monitoring.RecordMCPRequest(name, duration, status == tracing.StatusSuccess)

		r.logger.Debug("tool call",
			"tool", name,
			"status", status,
			"duration", duration,
			"result_size", size)
		return result, err
	}
}
