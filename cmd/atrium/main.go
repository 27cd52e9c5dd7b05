package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/openhaus/atrium/internal/auth"
	"github.com/openhaus/atrium/internal/authorization"
	"github.com/openhaus/atrium/internal/clock"
	"github.com/openhaus/atrium/internal/cma"
	"github.com/openhaus/atrium/internal/config"
	"github.com/openhaus/atrium/internal/listing"
	"github.com/openhaus/atrium/internal/migration"
	"github.com/openhaus/atrium/internal/observability"
	"github.com/openhaus/atrium/internal/providers"
	"github.com/openhaus/atrium/internal/ratelimit"
	"github.com/openhaus/atrium/internal/scheduler"
	"github.com/openhaus/atrium/internal/sellerupdate"
	"github.com/openhaus/atrium/internal/server"
	"github.com/openhaus/atrium/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Domain services
		auth.Module,
		authorization.Module,
		listing.Module,
		cma.Module,
		sellerupdate.Module,
		providers.Module,
		ratelimit.Module,
		scheduler.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
