package pdf

import (
	cmaservice "github.com/openhaus/atrium/internal/cma/service"
	"go.uber.org/fx"
)

var Module = fx.Module("providers.pdf",
	fx.Provide(func() cmaservice.Renderer {
		return New()
	}),
)
