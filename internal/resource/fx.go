package resource

import (
	"github.com/cloudkhata/cloudkhata/internal/resource/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("resource.inventory",
	fx.Provide(repository.NewInventory),
)
