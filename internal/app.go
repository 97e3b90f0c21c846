package internal

import (
	"context"

	"molle_pos/internal/cli"
	"molle_pos/internal/config"
	"molle_pos/internal/dashboard"
	"molle_pos/internal/logging"
	"molle_pos/internal/posapi"
	"molle_pos/internal/prefs"

	"github.com/go-core-fx/logger"
	"go.uber.org/fx"
)

func Run() error {
	var runner *cli.Runner

	app := fx.New(
		logger.Module(),
		logger.WithFxDefaultLogger(),
		config.Module(),
		logging.Module(),
		prefs.Module(),
		posapi.Module(),
		dashboard.Module(),
		cli.Module(),
		fx.Populate(&runner),
	)

	ctx := context.Background()
	if err := app.Start(ctx); err != nil {
		return err
	}
	defer func() {
		_ = app.Stop(ctx)
	}()

	return runner.Execute()
}
