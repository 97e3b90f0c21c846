package prefs

import (
	"context"

	"molle_pos/internal/config"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

func Module() fx.Option {
	return fx.Module(
		"prefs",
		fx.Provide(func(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*Store, error) {
			store, err := Open(cfg.DatabasePath, logger)
			if err != nil {
				return nil, err
			}
			lc.Append(fx.Hook{
				OnStop: func(_ context.Context) error {
					return store.Close()
				},
			})
			return store, nil
		}),
	)
}
