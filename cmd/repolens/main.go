package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/repolens/repolens/internal/migration"
	"github.com/repolens/repolens/internal/observability"
	"github.com/repolens/repolens/internal/server"
	"github.com/repolens/repolens/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
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
