package monitoring

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/NERVsystems/osmscene/pkg/version"
)

// Component states
const (
	StateHealthy   = "healthy"
	StateDegraded  = "degraded"
	StateUnhealthy = "unhealthy"
)

// ComponentStatus is the last reported state of one component, such as
// the parser or the scene cache.
type ComponentStatus struct {
	Status    string    `json:"status"`
	Detail    string    `json:"detail,omitempty"`
	LastError string    `json:"last_error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ServiceHealth is the body served by the health endpoint.
type ServiceHealth struct {
	Service       string                     `json:"service"`
	Version       string                     `json:"version"`
	Status        string                     `json:"status"`
	UptimeSeconds int64                      `json:"uptime_seconds"`
	StartTime     time.Time                  `json:"start_time"`
	Components    map[string]ComponentStatus `json:"components"`
	Metrics       map[string]any             `json:"metrics,omitempty"`
}

// HealthChecker tracks component health and refreshes runtime gauges.
type HealthChecker struct {
	serviceName string
	version     string
	startTime   time.Time

	mu         sync.RWMutex
	components map[string]ComponentStatus

	ctx    context.Context
	cancel context.CancelFunc
}

// NewHealthChecker creates a health checker and starts system metric
// collection. Call Shutdown to stop it.
func NewHealthChecker(serviceName, version string) *HealthChecker {
	ctx, cancel := context.WithCancel(context.Background())

	hc := &HealthChecker{
		serviceName: serviceName,
		version:     version,
		startTime:   time.Now(),
		components:  make(map[string]ComponentStatus),
		ctx:         ctx,
		cancel:      cancel,
	}

	hc.updateSystemMetrics()
	go hc.collectSystemMetrics()

	return hc
}

// UpdateComponent records the state of a component
func (h *HealthChecker) UpdateComponent(name, status, detail string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	cs := ComponentStatus{
		Status:    status,
		Detail:    detail,
		UpdatedAt: time.Now(),
	}
	if err != nil {
		cs.LastError = err.Error()
	}
	h.components[name] = cs
}

// RemoveComponent stops tracking a component
func (h *HealthChecker) RemoveComponent(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.components, name)
}

// GetHealth returns the current health status. Any unhealthy component
// makes the service unhealthy; any degraded one makes it degraded.
func (h *HealthChecker) GetHealth() ServiceHealth {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := StateHealthy
	components := make(map[string]ComponentStatus, len(h.components))
	for name, cs := range h.components {
		components[name] = cs
		switch cs.Status {
		case StateUnhealthy:
			status = StateUnhealthy
		case StateDegraded:
			if status == StateHealthy {
				status = StateDegraded
			}
		}
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return ServiceHealth{
		Service:       h.serviceName,
		Version:       h.version,
		Status:        status,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		StartTime:     h.startTime,
		Components:    components,
		Metrics: map[string]any{
			"goroutines":      runtime.NumGoroutine(),
			"memory_alloc_mb": m.Alloc / 1024 / 1024,
			"gc_runs":         m.NumGC,
			"version_info":    version.Info(),
		},
	}
}

// HealthHandler returns an HTTP handler for health checks
func (h *HealthChecker) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		health := h.GetHealth()

		w.Header().Set("Content-Type", "application/json")
		if health.Status == StateUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}

		if err := json.NewEncoder(w).Encode(health); err != nil {
			http.Error(w, fmt.Sprintf("Failed to encode health response: %v", err), http.StatusInternalServerError)
		}
	}
}

// LivenessHandler returns a simple liveness check
func (h *HealthChecker) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		response := map[string]any{
			"alive":  true,
			"uptime": time.Since(h.startTime).String(),
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			http.Error(w, fmt.Sprintf("Failed to encode liveness response: %v", err), http.StatusInternalServerError)
		}
	}
}

func (h *HealthChecker) collectSystemMetrics() {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return
		case <-ticker.C:
			h.updateSystemMetrics()
		}
	}
}

func (h *HealthChecker) updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	GoRoutines.Set(float64(runtime.NumGoroutine()))
	MemoryUsage.Set(float64(m.Alloc))

	info := version.Info()
	SystemInfo.WithLabelValues(
		info["version"],
		info["go_version"],
		info["commit"],
		info["build_date"],
	).Set(1)
}

// Shutdown stops background collection
func (h *HealthChecker) Shutdown() {
	h.cancel()
}
