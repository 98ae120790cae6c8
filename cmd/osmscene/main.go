package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/NERVsystems/osmscene/pkg/cache"
	"github.com/NERVsystems/osmscene/pkg/geo"
	"github.com/NERVsystems/osmscene/pkg/monitoring"
	"github.com/NERVsystems/osmscene/pkg/osm"
	"github.com/NERVsystems/osmscene/pkg/registration"
	"github.com/NERVsystems/osmscene/pkg/server"
	"github.com/NERVsystems/osmscene/pkg/tracing"
	ver "github.com/NERVsystems/osmscene/pkg/version"
)

var (
	showVersionFlag bool
	debug           bool
	generateConfig  string
	mergeOnly       bool

	// parse flags
	inputFile   string
	zoom        int
	jsonOutput  bool
	maxNodes    int
	maxWays     int
	maxWayNodes int
	maxLineLen  int

	// serve flags
	serve     bool
	dataDir   string
	cacheSize int
	cacheTTL  time.Duration
	toolRPS   float64
	toolBurst int

	// HTTP transport flags
	enableHTTP bool
	httpOnly   bool
	httpAddr   string
	httpRPS    float64
	httpBurst  int

	// monitoring flags
	enableMonitoring bool
	monitoringAddr   string

	// service registry flags
	enableRegistration bool
	registryURL        string
	serviceURL         string
)

func init() {
	flag.BoolVar(&showVersionFlag, "version", false, "Display version information")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.StringVar(&generateConfig, "generate-config", "", "Write an MCP client config file for this binary at the specified path")
	flag.BoolVar(&mergeOnly, "merge-only", false, "Merge into an existing config instead of overwriting it")

	flag.StringVar(&inputFile, "file", "", "OSM file to parse (may also be given as the first argument)")
	flag.IntVar(&zoom, "zoom", geo.Zoom, "Projection zoom level")
	flag.BoolVar(&jsonOutput, "json", false, "Print the parsed scene as JSON")
	flag.IntVar(&maxNodes, "max-nodes", 0, "Maximum committed nodes (0 = unlimited)")
	flag.IntVar(&maxWays, "max-ways", 0, "Maximum committed ways (0 = unlimited)")
	flag.IntVar(&maxWayNodes, "max-way-nodes", 0, "Maximum node references per way (0 = unlimited)")
	flag.IntVar(&maxLineLen, "max-line-bytes", osm.DefaultMaxLineBytes, "Longest input line accepted; longer lines are reported and skipped")

	flag.BoolVar(&serve, "serve", false, "Serve parsed scenes over MCP on stdio")
	flag.StringVar(&dataDir, "data-dir", ".", "Directory tools may read OSM files from")
	flag.IntVar(&cacheSize, "cache-size", cache.DefaultSize, "Number of parsed files kept in memory")
	flag.DurationVar(&cacheTTL, "cache-ttl", cache.DefaultTTL, "How long a parsed file is kept")
	flag.Float64Var(&toolRPS, "tool-rps", 0, "Calls per second allowed per tool (0 = unlimited)")
	flag.IntVar(&toolBurst, "tool-burst", 5, "Burst size for the per-tool rate limit")

	flag.BoolVar(&enableHTTP, "enable-http", false, "Enable HTTP+SSE transport (in addition to stdio)")
	flag.BoolVar(&httpOnly, "http-only", false, "Run HTTP transport only, skip stdio (requires --enable-http)")
	flag.StringVar(&httpAddr, "http-addr", ":7082", "HTTP server address")
	flag.Float64Var(&httpRPS, "http-rps", 10, "HTTP requests per second per client IP (0 = unlimited)")
	flag.IntVar(&httpBurst, "http-burst", 20, "Burst size for the HTTP rate limit")

	flag.BoolVar(&enableMonitoring, "enable-monitoring", true, "Enable Prometheus metrics and health endpoints when serving")
	flag.StringVar(&monitoringAddr, "monitoring-addr", ":9090", "Monitoring server address")

	flag.BoolVar(&enableRegistration, "enable-registration", false, "Register with a service registry while serving")
	flag.StringVar(&registryURL, "registry-url", "", "Service registry base URL (falls back to $REGISTRY_URL)")
	flag.StringVar(&serviceURL, "service-url", "", "URL other services use to reach this server")
}

func main() {
	os.Exit(run())
}

func run() int {
	flag.Parse()

	logLevel := slog.LevelInfo
	if debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if showVersionFlag {
		fmt.Println(ver.String())
		return 0
	}

	if generateConfig != "" {
		if err := generateClientConfig(generateConfig, mergeOnly); err != nil {
			logger.Error("failed to generate config", "error", err)
			return 1
		}
		logger.Info("generated MCP client config", "path", generateConfig)
		return 0
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.InitTracing(ctx, ver.BuildVersion)
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
	} else {
		defer func() {
			if err := shutdownTracing(context.Background()); err != nil {
				logger.Error("error shutting down tracing", "error", err)
			}
		}()
		if endpoint := os.Getenv("OTLP_ENDPOINT"); endpoint != "" {
			logger.Info("OpenTelemetry tracing enabled", "endpoint", endpoint)
		}
	}

	opts := []osm.Option{
		osm.WithLogger(logger.With("component", "osm_parser")),
		osm.WithZoom(zoom),
		osm.WithLimits(osm.Limits{
			MaxNodes:     maxNodes,
			MaxWays:      maxWays,
			MaxWayNodes:  maxWayNodes,
			MaxLineBytes: maxLineLen,
		}),
	}

	if !serve && !enableHTTP {
		path := inputFile
		if path == "" {
			path = flag.Arg(0)
		}
		if path == "" {
			fmt.Fprintln(os.Stderr, "usage: osmscene [flags] FILE | osmscene -serve")
			flag.PrintDefaults()
			return 2
		}
		return parseOnce(ctx, path, opts, logger)
	}

	if err := runServer(ctx, opts, logger); err != nil {
		logger.Error("server error", "error", err)
		return 1
	}
	return 0
}

// parseOnce parses path, prints the result and returns the exit code.
func parseOnce(ctx context.Context, path string, opts []osm.Option, logger *slog.Logger) int {
	res, err := osm.ParseFile(ctx, path, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "osmscene: %s: %v\n", osm.StatusOf(err).Message(), err)
		return exitCode(nil, err)
	}

	if err := writeResult(os.Stdout, res, jsonOutput); err != nil {
		logger.Error("failed to write result", "error", err)
		return 1
	}
	return exitCode(res, nil)
}

func runServer(ctx context.Context, opts []osm.Option, logger *slog.Logger) error {
	logger.Info("starting osmscene server",
		"version", ver.BuildVersion,
		"log_level", debugLevel(),
		"zoom", zoom,
		"data_dir", dataDir,
		"cache_size", cacheSize,
		"cache_ttl", cacheTTL,
		"tool_rps", toolRPS,
		"http_enabled", enableHTTP,
		"monitoring_enabled", enableMonitoring,
		"monitoring_addr", monitoringAddr)

	var healthChecker *monitoring.HealthChecker
	if enableMonitoring {
		healthChecker = monitoring.NewHealthChecker(monitoring.ServiceName, ver.BuildVersion)
		defer healthChecker.Shutdown()
		opts = append(opts, osm.WithHooks(monitoring.ParserHooks(healthChecker)))
	}

	parser, err := osm.NewParser(opts...)
	if err != nil {
		return err
	}
	scenes := cache.NewSceneCache(parser, cacheSize, cacheTTL, logger)

	serverOpts := []server.Option{
		server.WithLogger(logger),
		server.WithZoom(zoom),
		server.WithDataDir(dataDir),
	}
	if toolRPS > 0 {
		serverOpts = append(serverOpts, server.WithRateLimit(toolRPS, toolBurst))
	}
	s := server.NewServer(scenes, serverOpts...)

	if enableMonitoring {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/health", healthChecker.HealthHandler())
		mux.HandleFunc("/live", healthChecker.LivenessHandler())

		monitoringServer := &http.Server{
			Addr:              monitoringAddr,
			Handler:           mux,
			ReadHeaderTimeout: 30 * time.Second,
		}
		go func() {
			logger.Info("starting monitoring server", "addr", monitoringAddr)
			if err := monitoringServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("monitoring server error", "error", err)
			}
		}()
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := monitoringServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("failed to shutdown monitoring server", "error", err)
			}
		}()
	}

	if enableHTTP {
		config := server.DefaultHTTPTransportConfig()
		config.Addr = httpAddr
		config.RateLimit = httpRPS
		config.RateBurst = httpBurst

		transport := server.NewHTTPTransport(s.GetMCPServer(), config, logger)
		if healthChecker != nil {
			transport.SetHealthChecker(healthChecker)
		}
		go func() {
			if err := transport.Start(); err != nil && err != http.ErrServerClosed {
				logger.Error("HTTP transport error", "error", err)
			}
		}()
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := transport.Shutdown(shutdownCtx); err != nil {
				logger.Error("failed to shutdown HTTP transport", "error", err)
			}
		}()
	}

	if enableRegistration {
		client := registration.NewClient(registrationConfig(s.ToolNames()), logger)
		client.Start(ctx)
		defer client.Stop()
	}

	// stdio blocks on the main goroutine unless HTTP is the only transport
	switch {
	case !enableHTTP:
		logger.Info("transport_enabled", "type", "stdio", "mode", "blocking")
		if err := s.RunWithContext(ctx); err != nil {
			return err
		}
	case httpOnly:
		logger.Info("server_ready", "transports", []string{"http"}, "tools", s.ToolNames())
		<-ctx.Done()
	default:
		go func() {
			if err := s.RunWithContext(ctx); err != nil {
				logger.Error("stdio transport error", "error", err)
			}
		}()
		logger.Info("server_ready", "transports", []string{"stdio", "http"}, "tools", s.ToolNames())
		<-ctx.Done()
	}

	scenes.Purge()
	logger.Info("server stopped")
	return nil
}

func registrationConfig(tools []string) registration.Config {
	registry := registryURL
	if registry == "" {
		registry = os.Getenv("REGISTRY_URL")
	}
	url := serviceURL
	if url == "" && enableHTTP {
		url = "http://localhost" + httpAddr
	}
	health := ""
	if enableMonitoring {
		health = "http://localhost" + monitoringAddr + "/health"
	}
	return registration.Config{
		Enabled:      true,
		RegistryURL:  registry,
		ServiceName:  monitoring.ServiceName,
		ServiceURL:   url,
		HealthURL:    health,
		Version:      ver.BuildVersion,
		Capabilities: []string{"osm-parsing", "scene-graph"},
		Tools:        tools,
		Metadata: map[string]any{
			"zoom":       zoom,
			"cache_size": cacheSize,
		},
	}
}

func debugLevel() string {
	if debug {
		return slog.LevelDebug.String()
	}
	return slog.LevelInfo.String()
}
