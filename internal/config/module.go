// Package config loads the branch-audio application configuration.
package config

import (
	"go.uber.org/fx"
)

// Module provides the loaded configuration to the Fx graph.
var Module = fx.Module("config",
	fx.Provide(LoadConfig),
)
