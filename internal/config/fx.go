package config

import "go.uber.org/fx"

// Module provides application and rate-table configuration.
var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(NewRatesHolder),
)
