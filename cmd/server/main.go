package main

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Mihklz/casetrail/internal/app"
	"github.com/Mihklz/casetrail/internal/config"
	"github.com/Mihklz/casetrail/internal/version"
)

func main() {
	fx.New(
		fx.Provide(config.LoadServerConfig),
		app.Module,
		fx.Invoke(func(log *zap.Logger) {
			log.Info("casetrail server", version.Fields()...)
		}),
	).Run()
}
