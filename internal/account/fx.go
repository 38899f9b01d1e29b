package account

import (
	"github.com/cloudkhata/cloudkhata/internal/account/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("account.repository",
	fx.Provide(repository.NewRepository),
)
