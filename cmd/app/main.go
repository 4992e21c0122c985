package main

import (
	"alchemist/internal/bootstrap"
	"alchemist/internal/logging"
)

func main() {
	logger := logging.WithComponent("main")

	app, err := bootstrap.New()
	if err != nil {
		logger.Fatal().Err(err).Msg("bootstrap app")
	}

	if err := app.Run(); err != nil {
		logger.Fatal().Err(err).Msg("run app")
	}
}
