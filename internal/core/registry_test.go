package core

import (
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

type stubPlugin struct {
	id            string
	name          string
	version       string
	endpoints     []string
	dashboards    []Dashboard
	collectors    []prometheus.Collector
	agents        string
	health        HealthStatus
	healthMessage string
}

func (s stubPlugin) ID() string { return s.id }

func (s stubPlugin) Manifest() Manifest {
	return Manifest{
		PluginID:    s.id,
		DisplayName: s.name,
		Version:     s.version,
		Endpoints:   s.endpoints,
	}
}

func (s stubPlugin) AgentsMD() string { return s.agents }

func (s stubPlugin) Dashboards() []Dashboard { return s.dashboards }

func (s stubPlugin) RegisterHTTP(*http.ServeMux) {}

func (s stubPlugin) Collectors() []prometheus.Collector { return s.collectors }

func (s stubPlugin) Health() HealthStatus { return s.health }

func (s stubPlugin) HealthMessage() string { return s.healthMessage }

func newStubPlugin(id string) stubPlugin {
	return stubPlugin{
		id:         id,
		name:       "Demo",
		version:    "0.1.0",
		endpoints:  []string{"/api/demo/status"},
		agents:     "demo agents",
		health:     HealthHealthy,
		dashboards: []Dashboard{{Name: "demo", JSON: []byte("{}")}},
	}
}

func TestRegistryList(t *testing.T) {
	registry := NewRegistry([]Plugin{newStubPlugin("demo")})

	summaries := registry.List()
	if len(summaries) != 1 {
		t.Fatalf("expected 1 plugin, got %d", len(summaries))
	}

	got := summaries[0]
	if got.PluginID != "demo" || got.DisplayName != "Demo" || got.Version != "0.1.0" {
		t.Fatalf("unexpected plugin summary: %+v", got)
	}
	if got.Status != string(HealthHealthy) {
		t.Fatalf("unexpected health status: %s", got.Status)
	}
}

func TestRegistryDescribe(t *testing.T) {
	registry := NewRegistry([]Plugin{newStubPlugin("demo")})

	descriptor, ok := registry.Describe("demo")
	if !ok {
		t.Fatalf("expected plugin descriptor")
	}
	if descriptor.PluginID != "demo" {
		t.Fatalf("unexpected plugin id: %s", descriptor.PluginID)
	}
	if len(descriptor.Dashboards) != 1 {
		t.Fatalf("expected 1 dashboard, got %d", len(descriptor.Dashboards))
	}
	if descriptor.Dashboards[0].Path != "/dashboards/demo/demo.json" {
		t.Fatalf("unexpected dashboard path: %s", descriptor.Dashboards[0].Path)
	}

	if _, ok := registry.Describe("missing"); ok {
		t.Fatalf("expected miss for unknown plugin")
	}
}

func TestFilterPlugins(t *testing.T) {
	compiled := []Plugin{newStubPlugin("demo"), newStubPlugin("extra")}

	active := FilterPlugins(compiled, map[string]bool{"demo": true}, false)
	if len(active) != 1 || active[0].ID() != "demo" {
		t.Fatalf("unexpected active plugins: %v", active)
	}

	active = FilterPlugins(compiled, map[string]bool{}, true)
	if len(active) != 2 {
		t.Fatalf("expected all plugins, got %d", len(active))
	}
}

func TestValidateEnabledPlugins(t *testing.T) {
	compiled := []Plugin{newStubPlugin("demo")}

	if err := ValidateEnabledPlugins(compiled, map[string]bool{"demo": true}, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := ValidateEnabledPlugins(compiled, map[string]bool{"missing": true}, false); err == nil {
		t.Fatalf("expected error for missing plugin")
	}
}

func TestValidatePlugins(t *testing.T) {
	if err := ValidatePlugins([]Plugin{newStubPlugin("demo"), newStubPlugin("demo")}); err == nil {
		t.Fatalf("expected duplicate id error")
	}

	bad := newStubPlugin("Bad-ID")
	if err := ValidatePlugins([]Plugin{bad}); err == nil {
		t.Fatalf("expected id pattern error")
	}
}
