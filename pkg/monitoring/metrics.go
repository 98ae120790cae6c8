package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Service name for metrics
	ServiceName = "osmscene"
)

var (
	// Parse metrics
	ParsesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "osmscene_parses_total",
			Help: "Total number of parses by outcome status",
		},
		[]string{"status"},
	)

	ParseDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "osmscene_parse_duration_seconds",
			Help:    "Parse duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0},
		},
	)

	ParseLines = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "osmscene_parse_lines_total",
			Help: "Total number of input lines read",
		},
	)

	ElementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "osmscene_elements_total",
			Help: "Total number of nodes and ways by outcome",
		},
		[]string{"element", "outcome"},
	)

	GeometriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "osmscene_geometries_total",
			Help: "Total number of scene geometries emitted",
		},
		[]string{"kind"},
	)

	DiagnosticsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "osmscene_diagnostics_total",
			Help: "Total number of element-level errors",
		},
		[]string{"element", "status"},
	)

	// MCP request metrics
	MCPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "osmscene_mcp_requests_total",
			Help: "Total number of MCP requests processed",
		},
		[]string{"tool", "status"},
	)

	MCPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "osmscene_mcp_request_duration_seconds",
			Help:    "MCP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		},
		[]string{"tool"},
	)

	RateLimitExceeded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "osmscene_rate_limit_exceeded_total",
			Help: "Total number of rate limit exceeded events",
		},
		[]string{"tool"},
	)

	// Cache metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "osmscene_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "osmscene_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "osmscene_cache_size",
			Help: "Current number of items in cache",
		},
		[]string{"cache_type"},
	)

	// System metrics
	SystemInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "osmscene_system_info",
			Help: "System information",
		},
		[]string{"version", "go_version", "build_commit", "build_date"},
	)

	GoRoutines = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "osmscene_goroutines",
			Help: "Number of goroutines",
		},
	)

	MemoryUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "osmscene_memory_usage_bytes",
			Help: "Memory usage in bytes",
		},
	)
)

// ParseOutcome is the per-parse summary fed into the metrics.
type ParseOutcome struct {
	Status         string
	Duration       time.Duration
	Lines          int
	NodesCommitted int
	NodesRejected  int
	WaysCommitted  int
	WaysRejected   int
	Roads          int
	LandUses       int
}

// RecordParse records one finished parse
func RecordParse(o ParseOutcome) {
	ParsesTotal.WithLabelValues(o.Status).Inc()
	ParseDuration.Observe(o.Duration.Seconds())
	ParseLines.Add(float64(o.Lines))

	ElementsTotal.WithLabelValues("node", "committed").Add(float64(o.NodesCommitted))
	ElementsTotal.WithLabelValues("node", "rejected").Add(float64(o.NodesRejected))
	ElementsTotal.WithLabelValues("way", "committed").Add(float64(o.WaysCommitted))
	ElementsTotal.WithLabelValues("way", "rejected").Add(float64(o.WaysRejected))

	GeometriesTotal.WithLabelValues("road").Add(float64(o.Roads))
	GeometriesTotal.WithLabelValues("land_use").Add(float64(o.LandUses))
}

func RecordDiagnostic(element, status string) {
	DiagnosticsTotal.WithLabelValues(element, status).Inc()
}

func RecordMCPRequest(tool string, duration time.Duration, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	MCPRequestsTotal.WithLabelValues(tool, status).Inc()
	MCPRequestDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

func RecordRateLimitExceeded(tool string) {
	RateLimitExceeded.WithLabelValues(tool).Inc()
}

func RecordCacheHit(cacheType string) {
	CacheHits.WithLabelValues(cacheType).Inc()
}

func RecordCacheMiss(cacheType string) {
	CacheMisses.WithLabelValues(cacheType).Inc()
}

func UpdateCacheSize(cacheType string, size int) {
	CacheSize.WithLabelValues(cacheType).Set(float64(size))
}
