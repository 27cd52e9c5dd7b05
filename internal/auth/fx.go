package auth

import (
	"github.com/openhaus/atrium/internal/auth/repository"
	"github.com/openhaus/atrium/internal/auth/service"
	"github.com/openhaus/atrium/internal/auth/session"
	"go.uber.org/fx"
)

var Module = fx.Module("auth.service",
	session.Module,
	fx.Provide(repository.New),
	fx.Provide(service.New),
)
