// Package registration announces the server to a service registry and keeps
// the entry alive with heartbeats. A missing registry never stops the
// server; failures are logged and retried on the next heartbeat.
package registration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

const (
	// DefaultHeartbeatInterval is the time between heartbeats.
	DefaultHeartbeatInterval = 30 * time.Second
	// DefaultTimeout bounds each registry request.
	DefaultTimeout = 5 * time.Second
)

// Config describes the service being registered.
type Config struct {
	Enabled     bool
	RegistryURL string // e.g. "http://nerva-monitor:7083"

	ServiceName string
	ServiceType string // default "mcp"
	ServiceURL  string
	HealthURL   string
	Version     string

	Capabilities []string
	Tools        []string
	Metadata     map[string]any

	HeartbeatInterval time.Duration
	Timeout           time.Duration
}

// Request is the body of a registration or heartbeat.
type Request struct {
	Name         string         `json:"name"`
	Type         string         `json:"type"`
	URL          string         `json:"url"`
	HealthURL    string         `json:"health_url"`
	Version      string         `json:"version"`
	Capabilities []string       `json:"capabilities,omitempty"`
	Tools        []string       `json:"tools,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// Response is the registry's answer to a registration.
type Response struct {
	Status          string    `json:"status"`
	Name            string    `json:"name"`
	TTLSeconds      int       `json:"ttl_seconds"`
	NextHeartbeatBy time.Time `json:"next_heartbeat_by"`
}

// Client registers the service and sends heartbeats until stopped.
type Client struct {
	cfg        Config
	logger     *slog.Logger
	httpClient *http.Client

	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.RWMutex
	registered bool
}

// NewClient creates a client. A disabled config yields a client whose
// Start and Stop do nothing.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.ServiceType == "" {
		cfg.ServiceType = "mcp"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:        cfg,
		logger:     logger.With("component", "registration"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Start registers in the background and returns immediately.
func (c *Client) Start(ctx context.Context) {
	if !c.cfg.Enabled {
		c.logger.Info("service registration disabled")
		return
	}
	if c.cfg.RegistryURL == "" {
		c.logger.Warn("service registration enabled but no registry URL configured")
		return
	}

	ctx, c.cancel = context.WithCancel(ctx)
	c.wg.Add(1)
	go c.heartbeatLoop(ctx)
}

// Stop deregisters and waits for the heartbeat loop to exit.
func (c *Client) Stop() {
	if c.cancel == nil {
		return
	}
	c.cancel()
	c.wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.Timeout)
	defer cancel()
	c.deregister(ctx)
}

// IsRegistered reports whether the last heartbeat succeeded.
func (c *Client) IsRegistered() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.registered
}

func (c *Client) setRegistered(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.registered = v
}

func (c *Client) heartbeatLoop(ctx context.Context) {
	defer c.wg.Done()

	c.register(ctx)

	ticker := time.NewTicker(c.cfg.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.register(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) register(ctx context.Context) {
	body, err := json.Marshal(Request{
		Name:         c.cfg.ServiceName,
		Type:         c.cfg.ServiceType,
		URL:          c.cfg.ServiceURL,
		HealthURL:    c.cfg.HealthURL,
		Version:      c.cfg.Version,
		Capabilities: c.cfg.Capabilities,
		Tools:        c.cfg.Tools,
		Metadata:     c.cfg.Metadata,
	})
	if err != nil {
		c.logger.Error("failed to marshal registration request", "error", err)
		c.setRegistered(false)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.RegistryURL+"/api/register", bytes.NewReader(body))
	if err != nil {
		c.logger.Error("failed to create registration request", "error", err)
		c.setRegistered(false)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			// stopping; keep the state so Stop still deregisters
			return
		}
		c.logger.Debug("registration failed (registry may be unavailable)", "error", err)
		c.setRegistered(false)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		c.logger.Warn("registration rejected", "status", resp.StatusCode, "body", string(msg))
		c.setRegistered(false)
		return
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		c.logger.Warn("failed to decode registration response", "error", err)
		c.setRegistered(false)
		return
	}

	if !c.IsRegistered() {
		c.logger.Info("registered with service registry",
			"name", c.cfg.ServiceName,
			"ttl_seconds", out.TTLSeconds)
	}
	c.setRegistered(true)
}

func (c *Client) deregister(ctx context.Context) {
	if !c.IsRegistered() {
		return
	}
	defer c.setRegistered(false)

	url := fmt.Sprintf("%s/api/register/%s", c.cfg.RegistryURL, c.cfg.ServiceName)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		c.logger.Debug("failed to create deregistration request", "error", err)
		return
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("deregistration failed (registry may be unavailable)", "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		c.logger.Info("deregistered from service registry", "name", c.cfg.ServiceName)
	}
}
