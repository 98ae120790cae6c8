// Package server exposes parsed scenes to MCP clients.
package server

import (
	"context"
	"io"
	"log/slog"
	"sync"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"golang.org/x/time/rate"

	"github.com/NERVsystems/osmscene/pkg/cache"
	"github.com/NERVsystems/osmscene/pkg/version"
)

// ServerName is the name of the MCP server
const ServerName = "osmscene"

// Options configures a Server.
type Options struct {
	Logger *slog.Logger

	// Zoom is used by project_location. Scenes carry their own zoom from
	// the parser the cache was built with.
	Zoom int

	// ToolRate and ToolBurst limit calls per tool. A zero rate disables
	// limiting.
	ToolRate  rate.Limit
	ToolBurst int

	// DataDir confines the files tools may read. Empty allows any path.
	DataDir string
}

// Option modifies Options.
type Option func(*Options)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		if logger != nil {
			o.Logger = logger
		}
	}
}

// WithZoom sets the zoom used when projecting coordinates.
func WithZoom(zoom int) Option {
	return func(o *Options) {
		o.Zoom = zoom
	}
}

// WithDataDir confines tool paths to dir.
func WithDataDir(dir string) Option {
	return func(o *Options) {
		o.DataDir = dir
	}
}

// WithRateLimit limits every tool to rps calls per second with the given
// burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(o *Options) {
		o.ToolRate = rate.Limit(rps)
		o.ToolBurst = max(burst, 1)
	}
}

// Server wraps the MCP server with the scene tools registered.
type Server struct {
	srv      *mcpserver.MCPServer
	registry *Registry
	logger   *slog.Logger

	stopCh       chan struct{}
	doneCh       chan struct{}
	running      bool
	mu           sync.Mutex
	once         sync.Once
	ctxCancel    context.CancelFunc
	ctxGoroutine sync.Once
}

// NewServer creates a server whose tools read scenes through scenes.
func NewServer(scenes *cache.SceneCache, opts ...Option) *Server {
	o := Options{
		Logger: slog.Default(),
		Zoom:   defaultZoom,
	}
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.Logger.With("component", "mcp_server")
	logger.Info("initializing scene MCP server",
		"name", ServerName,
		"version", version.BuildVersion)

	srv := mcpserver.NewMCPServer(
		ServerName,
		version.BuildVersion,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithRecovery(),
	)

	registry := NewRegistry(scenes, o, logger)
	registry.RegisterTools(srv)

	return &Server{
		srv:      srv,
		registry: registry,
		logger:   logger,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Run serves MCP over stdin/stdout and blocks until the client goes away
// or Shutdown is called.
func (s *Server) Run() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.mu.Unlock()

	go func() {
		defer close(s.doneCh)
		if err := mcpserver.ServeStdio(s.srv); err != nil && err != io.EOF {
			s.logger.Error("server error", "error", err)
		}
		s.Shutdown()
	}()

	<-s.stopCh

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	<-s.doneCh
	return nil
}

// RunWithContext is Run with shutdown on ctx cancellation.
func (s *Server) RunWithContext(ctx context.Context) error {
	s.ctxGoroutine.Do(func() {
		derived, cancel := context.WithCancel(ctx)
		s.ctxCancel = cancel

		go func() {
			select {
			case <-derived.Done():
				s.Shutdown()
			case <-s.stopCh:
			}
		}()
	})

	return s.Run()
}

// Shutdown signals Run to return. It does not block.
func (s *Server) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.once.Do(func() {
		close(s.stopCh)
	})
	if s.ctxCancel != nil {
		s.ctxCancel()
	}
}

// GetMCPServer returns the underlying MCP server, e.g. for the HTTP
// transport.
func (s *Server) GetMCPServer() *mcpserver.MCPServer {
	return s.srv
}

// ToolNames lists the registered tools.
func (s *Server) ToolNames() []string {
	return s.registry.GetToolNames()
}
