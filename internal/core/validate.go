package core

import (
	"fmt"
	"regexp"
)

var pluginIDPattern = regexp.MustCompile(`^[a-z][a-z0-9_]+$`)

// ValidatePlugins enforces basic plugin contract invariants at startup.
func ValidatePlugins(plugins []Plugin) error {
	seen := make(map[string]bool)
	for _, plugin := range plugins {
		id := plugin.ID()
		manifest := plugin.Manifest()
		if id == "" {
			return fmt.Errorf("plugin id is empty")
		}
		if !pluginIDPattern.MatchString(id) {
			return fmt.Errorf("plugin id %q does not match %s", id, pluginIDPattern.String())
		}
		if manifest.PluginID != id {
			return fmt.Errorf("plugin id mismatch: id=%q manifest=%q", id, manifest.PluginID)
		}
		if seen[id] {
			return fmt.Errorf("duplicate plugin id: %s", id)
		}
		seen[id] = true
	}
	return nil
}

// FilterPlugins returns the plugins enabled by config, or all when allEnabled.
func FilterPlugins(plugins []Plugin, enabled map[string]bool, allEnabled bool) []Plugin {
	if allEnabled {
		return plugins
	}
	out := make([]Plugin, 0, len(plugins))
	for _, plugin := range plugins {
		if enabled[plugin.ID()] {
			out = append(out, plugin)
		}
	}
	return out
}

// ValidateEnabledPlugins checks that every enabled id has a compiled plugin.
func ValidateEnabledPlugins(plugins []Plugin, enabled map[string]bool, allEnabled bool) error {
	if allEnabled {
		return nil
	}
	compiled := make(map[string]bool, len(plugins))
	for _, plugin := range plugins {
		compiled[plugin.ID()] = true
	}
	for id := range enabled {
		if !compiled[id] {
			return fmt.Errorf("plugin %q enabled in config but not compiled in", id)
		}
	}
	return nil
}
