package posapi

import (
	"molle_pos/internal/config"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Factory builds a client for a configuration that is only final after
// startup, for example once command-line overrides are applied.
type Factory func(cfg config.Config) *Client

func NewFactory(logger *zap.Logger) Factory {
	return func(cfg config.Config) *Client {
		return NewClient(cfg, logger)
	}
}

func Module() fx.Option {
	return fx.Module(
		"posapi",
		fx.Provide(NewFactory),
	)
}
