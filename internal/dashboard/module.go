package dashboard

import (
	"molle_pos/internal/config"
	"molle_pos/internal/prefs"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Factory builds a loader once the API client for the final configuration
// exists.
type Factory func(source Source, cfg config.Config) *Loader

// NewFactory returns loaders that record their syncs in recorder. A nil
// recorder disables recording.
func NewFactory(recorder SyncRecorder, logger *zap.Logger) Factory {
	return func(source Source, cfg config.Config) *Loader {
		return New(source, recorder, cfg, logger)
	}
}

func Module() fx.Option {
	return fx.Module(
		"dashboard",
		fx.Provide(func(store *prefs.Store, logger *zap.Logger) Factory {
			return NewFactory(store, logger)
		}),
	)
}
