package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"golang.org/x/time/rate"

	"github.com/NERVsystems/osmscene/pkg/monitoring"
)

// HTTPTransportConfig configures the SSE transport.
type HTTPTransportConfig struct {
	Addr           string  `json:"addr"`
	BaseURL        string  `json:"base_url"`
	SSEEndpoint    string  `json:"sse_endpoint"`
	MsgEndpoint    string  `json:"msg_endpoint"`
	RateLimit      float64 `json:"rate_limit"` // requests per second per IP, 0 disables
	RateBurst      int     `json:"rate_burst"`
	MaxRequestSize int64   `json:"max_request_size"`
}

// DefaultHTTPTransportConfig returns the defaults used by the CLI.
func DefaultHTTPTransportConfig() HTTPTransportConfig {
	return HTTPTransportConfig{
		Addr:           ":7082",
		SSEEndpoint:    "/sse",
		MsgEndpoint:    "/message",
		RateLimit:      10,
		RateBurst:      20,
		MaxRequestSize: 1 << 20,
	}
}

// ErrTransportStarted is returned by Start on a running transport.
var ErrTransportStarted = errors.New("http transport already started")

// HTTPTransport serves MCP over SSE next to health endpoints.
type HTTPTransport struct {
	config        HTTPTransportConfig
	logger        *slog.Logger
	sseServer     *mcpserver.SSEServer
	mux           *http.ServeMux
	rateLimiter   *RateLimiter
	healthChecker *monitoring.HealthChecker

	mu      sync.RWMutex
	httpSrv *http.Server
}

// NewHTTPTransport mounts mcpServer behind the SSE and message endpoints.
func NewHTTPTransport(mcpServer *mcpserver.MCPServer, config HTTPTransportConfig, logger *slog.Logger) *HTTPTransport {
	if logger == nil {
		logger = slog.Default()
	}

	t := &HTTPTransport{
		config: config,
		logger: logger.With("component", "http_transport"),
		sseServer: mcpserver.NewSSEServer(
			mcpServer,
			mcpserver.WithSSEEndpoint(config.SSEEndpoint),
			mcpserver.WithMessageEndpoint(config.MsgEndpoint),
			mcpserver.WithBaseURL(config.BaseURL),
		),
		mux: http.NewServeMux(),
	}
	if config.RateLimit > 0 {
		t.rateLimiter = NewRateLimiter(rate.Limit(config.RateLimit), max(config.RateBurst, 1))
	}
	t.setupRoutes()
	return t
}

// SetHealthChecker makes /health and /live report hc.
func (t *HTTPTransport) SetHealthChecker(hc *monitoring.HealthChecker) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.healthChecker = hc
}

func (t *HTTPTransport) setupRoutes() {
	t.mux.HandleFunc("/health", t.handleHealth)
	t.mux.HandleFunc("/live", t.handleLive)

	limited := func(h http.Handler) http.Handler {
		if t.rateLimiter != nil {
			return t.rateLimiter.Middleware(h)
		}
		return h
	}
	t.mux.Handle(t.config.SSEEndpoint, limited(t.sseServer.SSEHandler()))
	t.mux.Handle(t.config.MsgEndpoint, limited(t.sseServer.MessageHandler()))
}

// Handler returns the full middleware chain.
func (t *HTTPTransport) Handler() http.Handler {
	handler := http.Handler(t.mux)
	handler = TracingMiddleware()(handler)
	handler = LoggingMiddleware(t.logger)(handler)
	handler = SecurityHeaders(handler)
	if t.config.MaxRequestSize > 0 {
		handler = RequestSizeLimiter(t.config.MaxRequestSize)(handler)
	}
	return handler
}

func (t *HTTPTransport) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	t.mu.RLock()
	hc := t.healthChecker
	t.mu.RUnlock()

	if hc != nil {
		hc.HealthHandler()(w, r)
		return
	}
	t.writeJSON(w, map[string]any{"status": "ok"})
}

func (t *HTTPTransport) handleLive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	t.mu.RLock()
	hc := t.healthChecker
	t.mu.RUnlock()

	if hc != nil {
		hc.LivenessHandler()(w, r)
		return
	}
	t.writeJSON(w, map[string]any{"alive": true})
}

func (t *HTTPTransport) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.logger.Error("failed to encode response", "error", err)
	}
}

// Start serves until Shutdown. It returns http.ErrServerClosed after a
// clean shutdown.
func (t *HTTPTransport) Start() error {
	t.mu.Lock()
	if t.httpSrv != nil {
		t.mu.Unlock()
		return ErrTransportStarted
	}
	t.httpSrv = &http.Server{
		Addr:        t.config.Addr,
		Handler:     t.Handler(),
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}
	srv := t.httpSrv
	t.mu.Unlock()

	t.logger.Info("starting HTTP transport",
		"addr", t.config.Addr,
		"sse_endpoint", t.config.SSEEndpoint,
		"message_endpoint", t.config.MsgEndpoint,
		"rate_limit", t.config.RateLimit)
	return srv.ListenAndServe()
}

// Shutdown stops the SSE server and then the HTTP server.
func (t *HTTPTransport) Shutdown(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.rateLimiter != nil {
		t.rateLimiter.Stop()
	}
	if t.httpSrv == nil {
		return nil
	}

	t.logger.Info("shutting down HTTP transport")
	if err := t.sseServer.Shutdown(ctx); err != nil {
		t.logger.Error("failed to shutdown SSE server", "error", err)
	}
	err := t.httpSrv.Shutdown(ctx)
	t.httpSrv = nil
	return err
}
