package invoice

import (
	"github.com/cloudkhata/cloudkhata/internal/invoice/repository"
	"github.com/cloudkhata/cloudkhata/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.generator",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
