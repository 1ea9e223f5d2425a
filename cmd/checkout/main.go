package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/mglearn/checkout/internal/config"
	"github.com/mglearn/checkout/internal/migration"
	"github.com/mglearn/checkout/internal/server"
	"github.com/mglearn/checkout/pkg/db"
	"github.com/mglearn/checkout/pkg/log"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		log.Module,
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
