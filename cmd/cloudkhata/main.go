package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/cloudkhata/cloudkhata/internal/account"
	"github.com/cloudkhata/cloudkhata/internal/clock"
	"github.com/cloudkhata/cloudkhata/internal/config"
	"github.com/cloudkhata/cloudkhata/internal/invoice"
	"github.com/cloudkhata/cloudkhata/internal/lock"
	"github.com/cloudkhata/cloudkhata/internal/logger"
	"github.com/cloudkhata/cloudkhata/internal/migration"
	"github.com/cloudkhata/cloudkhata/internal/observability/metrics"
	"github.com/cloudkhata/cloudkhata/internal/reference"
	"github.com/cloudkhata/cloudkhata/internal/resource"
	"github.com/cloudkhata/cloudkhata/internal/scheduler"
	"github.com/cloudkhata/cloudkhata/internal/server"
	"github.com/cloudkhata/cloudkhata/internal/tax"
	"github.com/cloudkhata/cloudkhata/internal/usage"
	"github.com/cloudkhata/cloudkhata/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// core infrastructure
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		lock.Module,
		metrics.Module,
		migration.Module,

		// billing pipeline domains
		account.Module,
		resource.Module,
		reference.Module,
		usage.Module,
		tax.Module,
		invoice.Module,
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
