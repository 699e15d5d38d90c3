package branch

import (
	"go.uber.org/fx"
)

// Module provides branch management dependencies.
var Module = fx.Module("branch",
	fx.Provide(NewManager),
)
