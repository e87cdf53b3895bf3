package main

import (
	"context"
	"os"

	"github.com/mkorolev/studyplan/internal/client/cli"
	"github.com/mkorolev/studyplan/internal/client/config"
	"github.com/mkorolev/studyplan/internal/logging"
)

func main() {
	cfg := config.LoadConfig()
	log := logging.NewText(os.Stderr)

	app, err := cli.NewApp(cfg, log)
	if err != nil {
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	app.Run(ctx)
}
