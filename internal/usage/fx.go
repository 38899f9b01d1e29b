package usage

import (
	"github.com/cloudkhata/cloudkhata/internal/usage/repository"
	"github.com/cloudkhata/cloudkhata/internal/usage/service"
	"go.uber.org/fx"
)

var Module = fx.Module("usage.tracker",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
