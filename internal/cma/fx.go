package cma

import (
	"github.com/openhaus/atrium/internal/cma/repository"
	"github.com/openhaus/atrium/internal/cma/service"
	"go.uber.org/fx"
)

var Module = fx.Module("cma.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
