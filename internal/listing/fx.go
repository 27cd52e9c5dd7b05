package listing

import (
	"github.com/openhaus/atrium/internal/listing/repository"
	"github.com/openhaus/atrium/internal/listing/service"
	"go.uber.org/fx"
)

var Module = fx.Module("listing.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
