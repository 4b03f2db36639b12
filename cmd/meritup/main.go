package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/meritup/internal/clock"
	"github.com/smallbiznis/meritup/internal/config"
	"github.com/smallbiznis/meritup/internal/migration"
	"github.com/smallbiznis/meritup/internal/observability"
	"github.com/smallbiznis/meritup/internal/server"
	"github.com/smallbiznis/meritup/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// HTTP surface plus the domain modules it serves
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
