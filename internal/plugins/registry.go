package plugins

import (
	"github.com/pnatali/achub/internal/blob"
	"github.com/pnatali/achub/internal/config"
	"github.com/pnatali/achub/internal/core"
	"github.com/pnatali/achub/internal/logger"
)

// Deps carries hub-level collaborators shared by plugin constructors.
type Deps struct {
	Store blob.Store
	Log   *logger.Logger
}

// Factory builds a plugin instance from the loaded config.
type Factory func(*config.Config, Deps) (core.Plugin, bool)

var compiled []Factory

// Register adds a compiled-in plugin factory to the registry.
func Register(factory Factory) {
	compiled = append(compiled, factory)
}

// Compiled returns the configured plugin instances for this build.
func Compiled(cfg *config.Config, deps Deps) []core.Plugin {
	if cfg == nil {
		return nil
	}
	out := make([]core.Plugin, 0, len(compiled))
	for _, factory := range compiled {
		plugin, ok := factory(cfg, deps)
		if !ok {
			continue
		}
		out = append(out, plugin)
	}
	return out
}
