package plugins

import (
	"github.com/pnatali/achub/internal/config"
	"github.com/pnatali/achub/internal/core"
	"github.com/pnatali/achub/plugins/acpartner"
)

func init() {
	Register(func(cfg *config.Config, deps Deps) (core.Plugin, bool) {
		return acpartner.NewPlugin(cfg.ACPartner, deps.Store, deps.Log)
	})
}
