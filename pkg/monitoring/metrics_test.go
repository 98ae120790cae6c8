package monitoring

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordParse(t *testing.T) {
	ParsesTotal.Reset()
	ElementsTotal.Reset()
	GeometriesTotal.Reset()

	RecordParse(ParseOutcome{
		Status:         "ok",
		Duration:       50 * time.Millisecond,
		Lines:          120,
		NodesCommitted: 10,
		NodesRejected:  2,
		WaysCommitted:  4,
		Roads:          3,
		LandUses:       1,
	})
	RecordParse(ParseOutcome{Status: "format", NodesCommitted: 5})

	if got := testutil.ToFloat64(ParsesTotal.WithLabelValues("ok")); got != 1 {
		t.Errorf("Expected 1 ok parse, got %v", got)
	}
	if got := testutil.ToFloat64(ParsesTotal.WithLabelValues("format")); got != 1 {
		t.Errorf("Expected 1 format parse, got %v", got)
	}
	if got := testutil.ToFloat64(ElementsTotal.WithLabelValues("node", "committed")); got != 15 {
		t.Errorf("Expected 15 committed nodes, got %v", got)
	}
	if got := testutil.ToFloat64(ElementsTotal.WithLabelValues("node", "rejected")); got != 2 {
		t.Errorf("Expected 2 rejected nodes, got %v", got)
	}
	if got := testutil.ToFloat64(GeometriesTotal.WithLabelValues("road")); got != 3 {
		t.Errorf("Expected 3 roads, got %v", got)
	}
	if got := testutil.CollectAndCount(ParseDuration); got != 1 {
		t.Errorf("Expected duration histogram to be collected once, got %d", got)
	}
}

func TestRecordDiagnostic(t *testing.T) {
	DiagnosticsTotal.Reset()

	RecordDiagnostic("way", "format")
	RecordDiagnostic("way", "format")
	RecordDiagnostic("node", "out_of_memory")

	if got := testutil.ToFloat64(DiagnosticsTotal.WithLabelValues("way", "format")); got != 2 {
		t.Errorf("Expected 2 way diagnostics, got %v", got)
	}
	if got := testutil.CollectAndCount(DiagnosticsTotal); got != 2 {
		t.Errorf("Expected 2 label sets, got %d", got)
	}
}

func TestRecordMCPRequest(t *testing.T) {
	MCPRequestsTotal.Reset()

	RecordMCPRequest("scene_roads", 100*time.Millisecond, true)
	if got := testutil.ToFloat64(MCPRequestsTotal.WithLabelValues("scene_roads", "success")); got != 1 {
		t.Errorf("Expected 1 successful request, got %v", got)
	}

	RecordMCPRequest("scene_roads", 200*time.Millisecond, false)
	if got := testutil.ToFloat64(MCPRequestsTotal.WithLabelValues("scene_roads", "error")); got != 1 {
		t.Errorf("Expected 1 failed request, got %v", got)
	}
}

func TestCacheMetrics(t *testing.T) {
	CacheHits.Reset()
	CacheMisses.Reset()
	CacheSize.Reset()

	RecordCacheHit("scene")
	if got := testutil.ToFloat64(CacheHits.WithLabelValues("scene")); got != 1 {
		t.Errorf("Expected 1 cache hit, got %v", got)
	}

	RecordCacheMiss("scene")
	if got := testutil.ToFloat64(CacheMisses.WithLabelValues("scene")); got != 1 {
		t.Errorf("Expected 1 cache miss, got %v", got)
	}

	UpdateCacheSize("scene", 42)
	if got := testutil.ToFloat64(CacheSize.WithLabelValues("scene")); got != 42 {
		t.Errorf("Expected cache size 42, got %v", got)
	}
}

func TestRateLimitMetrics(t *testing.T) {
	RateLimitExceeded.Reset()

	RecordRateLimitExceeded("parse_osm_file")
	if got := testutil.ToFloat64(RateLimitExceeded.WithLabelValues("parse_osm_file")); got != 1 {
		t.Errorf("Expected 1 rate limit exceeded, got %v", got)
	}
}

func BenchmarkRecordMCPRequest(b *testing.B) {
	for i := 0; i < b.N; i++ {
		RecordMCPRequest("benchmark_tool", 100*time.Millisecond, true)
	}
}

func BenchmarkRecordDiagnostic(b *testing.B) {
	for i := 0; i < b.N; i++ {
		RecordDiagnostic("node", "format")
	}
}
