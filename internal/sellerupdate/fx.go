package sellerupdate

import (
	"github.com/openhaus/atrium/internal/sellerupdate/domain"
	"github.com/openhaus/atrium/internal/sellerupdate/service"
	"github.com/openhaus/atrium/pkg/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("sellerupdate.service",
	fx.Provide(repository.ProvideStore[domain.Subscription]),
	fx.Provide(service.New),
)
