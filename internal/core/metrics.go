package core

import "github.com/prometheus/client_golang/prometheus"

// MetricsRegistry assembles a fresh Prometheus registry from every plugin's
// collectors. Registration panics on duplicate metric names, which surfaces
// plugin collisions at startup rather than at scrape time.
func MetricsRegistry(plugins []Plugin) *prometheus.Registry {
	registry := prometheus.NewRegistry()

	for _, plugin := range plugins {
		for _, collector := range plugin.Collectors() {
			registry.MustRegister(collector)
		}
	}

	return registry
}
