package tracing

import "go.opentelemetry.io/otel/attribute"

// Attribute keys
const (
	// parse attributes
	AttrParseSource      = "osm.parse.source"
	AttrParseLines       = "osm.parse.lines"
	AttrParseNodes       = "osm.parse.nodes"
	AttrParseWays        = "osm.parse.ways"
	AttrParseRoads       = "osm.parse.roads"
	AttrParseLandUses    = "osm.parse.land_uses"
	AttrParseDiagnostics = "osm.parse.diagnostics"

	// MCP tool attributes
	AttrMCPToolName     = "mcp.tool.name"
	AttrMCPToolStatus   = "mcp.tool.status"
	AttrMCPToolDuration = "mcp.tool.duration_ms"
	AttrMCPResultSize   = "mcp.tool.result_size"

	// HTTP attributes
	AttrHTTPMethod     = "http.method"
	AttrHTTPPath       = "http.path"
	AttrHTTPStatusCode = "http.status_code"
	AttrHTTPSessionID  = "http.session_id"

	// Cache attributes
	AttrCacheType = "osm.cache.type"
	AttrCacheHit  = "osm.cache.hit"
	AttrCacheKey  = "osm.cache.key"
	AttrCachePath = "osm.cache.path"

	AttrErrorType    = "error.type"
	AttrErrorMessage = "error.message"
)

// Status values
const (
	StatusSuccess     = "success"
	StatusError       = "error"
	StatusRateLimited = "rate_limited"
)

// CacheTypeScene labels scene cache spans.
const CacheTypeScene = "scene"

// ParseAttributes returns the summary attributes of a finished parse
func ParseAttributes(lines, nodes, ways, roads, landUses, diagnostics int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrParseLines, lines),
		attribute.Int(AttrParseNodes, nodes),
		attribute.Int(AttrParseWays, ways),
		attribute.Int(AttrParseRoads, roads),
		attribute.Int(AttrParseLandUses, landUses),
		attribute.Int(AttrParseDiagnostics, diagnostics),
	}
}

// MCPToolAttributes returns attributes for MCP tool execution
func MCPToolAttributes(toolName string, status string, durationMs int64, resultSize int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrMCPToolName, toolName),
		attribute.String(AttrMCPToolStatus, status),
		attribute.Int64(AttrMCPToolDuration, durationMs),
		attribute.Int(AttrMCPResultSize, resultSize),
	}
}

// CacheAttributes returns attributes for cache operations
func CacheAttributes(cacheType string, hit bool, key string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrCacheType, cacheType),
		attribute.Bool(AttrCacheHit, hit),
		attribute.String(AttrCacheKey, key),
	}
}

// ErrorAttributes returns attributes for errors
func ErrorAttributes(err error) []attribute.KeyValue {
	if err == nil {
		return nil
	}
	return []attribute.KeyValue{
		attribute.String(AttrErrorType, "error"),
		attribute.String(AttrErrorMessage, err.Error()),
	}
}
