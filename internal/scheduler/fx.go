package scheduler

import (
	"context"

	"github.com/cloudkhata/cloudkhata/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("scheduler",
	fx.Provide(ProvideConfig),
	fx.Provide(New),
	fx.Invoke(Start),
)

func ProvideConfig(cfg config.Config) Config {
	return Config{
		TrackInterval: cfg.Scheduler.TrackInterval,
		SweepInterval: cfg.Scheduler.SweepInterval,
		LockTTL:       cfg.Scheduler.LockTTL,
		InvoiceDay:    cfg.Scheduler.InvoiceDay,
	}
}

func Start(lc fx.Lifecycle, cfg config.Config, sched *Scheduler) {
	if !cfg.Scheduler.Enabled {
		return
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ctx, cancel := context.WithCancel(context.Background())

			go sched.RunForever(ctx)

			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					cancel()
					return nil
				},
			})

			return nil
		},
	})
}
