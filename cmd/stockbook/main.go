package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/stockbook/internal/config"
	"github.com/smallbiznis/stockbook/internal/logger"
	"github.com/smallbiznis/stockbook/internal/migration"
	"github.com/smallbiznis/stockbook/internal/observability"
	"github.com/smallbiznis/stockbook/internal/server"
	"github.com/smallbiznis/stockbook/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
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
