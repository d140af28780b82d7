package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pnatali/achub/internal/core"
)

// HealthHandler returns a simple OK for liveness checks.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// RegistryHandler serves plugin discovery: the list at /api/plugins and a
// descriptor at /api/plugins/<id>.
func RegistryHandler(registry *core.Registry) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/plugins"), "/")
		if id == "" {
			WriteJSON(w, registry.List())
			return
		}

		descriptor, ok := registry.Describe(id)
		if !ok {
			http.NotFound(w, r)
			return
		}
		WriteJSON(w, descriptor)
	})
}

// MountPlugins registers every plugin's HTTP handlers on the mux.
func MountPlugins(mux *http.ServeMux, plugins []core.Plugin) {
	for _, p := range plugins {
		p.RegisterHTTP(mux)
	}
}

// WriteJSON writes a JSON response body with the right content type.
func WriteJSON(w http.ResponseWriter, value any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(value); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
