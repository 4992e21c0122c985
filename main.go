package main

import (
	"embed"
	"io/fs"

	"alchemist/internal/bootstrap"
	"alchemist/internal/logging"
)

//go:embed frontend/index.html
var appAssets embed.FS

func main() {
	logger := logging.WithComponent("main")

	assets, err := fs.Sub(appAssets, "frontend")
	if err != nil {
		logger.Fatal().Err(err).Msg("load embedded frontend")
	}

	app, err := bootstrap.NewWithAssets(assets)
	if err != nil {
		logger.Fatal().Err(err).Msg("bootstrap app")
	}

	if err := app.Run(); err != nil {
		logger.Fatal().Err(err).Msg("run app")
	}
}
