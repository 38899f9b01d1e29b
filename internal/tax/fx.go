package tax

import (
	"github.com/cloudkhata/cloudkhata/internal/tax/service"
	"go.uber.org/fx"
)

var Module = fx.Module("tax.service",
	fx.Provide(service.NewService),
)
