package registration

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type fakeRegistry struct {
	mu            sync.Mutex
	registrations []Request
	deleted       []string
	status        int
}

func (f *fakeRegistry) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/api/register":
		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.registrations = append(f.registrations, req)
		if f.status != 0 && f.status != http.StatusOK {
			w.WriteHeader(f.status)
			return
		}
		_ = json.NewEncoder(w).Encode(Response{Status: "ok", Name: req.Name, TTLSeconds: 90})
	case r.Method == http.MethodDelete:
		f.deleted = append(f.deleted, r.URL.Path)
		w.WriteHeader(http.StatusOK)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeRegistry) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.registrations)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestClientRegistersAndDeregisters(t *testing.T) {
	reg := &fakeRegistry{}
	srv := httptest.NewServer(reg)
	defer srv.Close()

	c := NewClient(Config{
		Enabled:           true,
		RegistryURL:       srv.URL,
		ServiceName:       "osmscene",
		Version:           "1.2.3",
		Tools:             []string{"parse_osm_file"},
		HeartbeatInterval: 20 * time.Millisecond,
	}, quietLogger())

	c.Start(context.Background())
	waitFor(t, c.IsRegistered)
	waitFor(t, func() bool { return reg.count() >= 2 })
	c.Stop()

	reg.mu.Lock()
	defer reg.mu.Unlock()
	first := reg.registrations[0]
	if first.Name != "osmscene" || first.Type != "mcp" || first.Version != "1.2.3" {
		t.Errorf("unexpected registration: %+v", first)
	}
	if len(first.Tools) != 1 || first.Tools[0] != "parse_osm_file" {
		t.Errorf("tools not sent: %+v", first.Tools)
	}
	if len(reg.deleted) != 1 || reg.deleted[0] != "/api/register/osmscene" {
		t.Errorf("expected one deregistration, got %v", reg.deleted)
	}
	if c.IsRegistered() {
		t.Error("client still registered after Stop")
	}
}

func TestClientRejected(t *testing.T) {
	reg := &fakeRegistry{status: http.StatusForbidden}
	srv := httptest.NewServer(reg)
	defer srv.Close()

	c := NewClient(Config{Enabled: true, RegistryURL: srv.URL, ServiceName: "osmscene"}, quietLogger())
	c.Start(context.Background())
	waitFor(t, func() bool { return reg.count() >= 1 })
	c.Stop()

	if c.IsRegistered() {
		t.Error("a rejected registration must not count as registered")
	}
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if len(reg.deleted) != 0 {
		t.Errorf("nothing to deregister, got %v", reg.deleted)
	}
}

func TestClientDisabled(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"disabled", Config{RegistryURL: "http://127.0.0.1:1"}},
		{"no registry", Config{Enabled: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(tt.cfg, quietLogger())
			c.Start(context.Background())
			c.Stop()
			if c.IsRegistered() {
				t.Error("client should never register")
			}
		})
	}
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(Config{}, nil)
	if c.cfg.HeartbeatInterval != DefaultHeartbeatInterval || c.cfg.Timeout != DefaultTimeout {
		t.Errorf("unexpected defaults: %+v", c.cfg)
	}
	if c.cfg.ServiceType != "mcp" {
		t.Errorf("ServiceType = %q, want mcp", c.cfg.ServiceType)
	}
}
