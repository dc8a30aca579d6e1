package types

import (
	"go.uber.org/zap"

	"github.com/lepinkainen/timelapse/config"
)

// DefaultVersion is the fallback version when AppContext is nil
const DefaultVersion = "dev"

// AppContext holds application-wide context information passed to commands
type AppContext struct {
	Version string
	Config  *config.Config
	Logger  *zap.Logger
}

// Resolve fills in defaults so commands can be run without a fully built context
func (a *AppContext) Resolve() *AppContext {
	out := AppContext{Version: DefaultVersion}
	if a != nil {
		out = *a
	}
	if out.Version == "" {
		out.Version = DefaultVersion
	}
	if out.Config == nil {
		cfg := config.Default()
		out.Config = &cfg
	}
	if out.Logger == nil {
		out.Logger = zap.NewNop()
	}
	return &out
}
