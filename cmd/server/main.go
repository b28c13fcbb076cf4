package main

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/dmitrijs2005/shopkeeper/internal/buildinfo"
	"github.com/dmitrijs2005/shopkeeper/internal/common"
	"github.com/dmitrijs2005/shopkeeper/internal/logging"
	"github.com/dmitrijs2005/shopkeeper/internal/server"
	"github.com/dmitrijs2005/shopkeeper/internal/server/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()

	logger, err := logging.New(os.Stdout, cfg.LogLevel)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		if errors.Is(err, common.ErrConfiguration) {
			logger.Error(ctx, "refusing to start", "error", err)
			os.Exit(2)
		}
		log.Fatalf("%v", err)
	}

	app.Run(ctx)

}
