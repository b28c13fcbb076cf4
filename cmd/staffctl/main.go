package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/shopkeeper/internal/logging"
	"github.com/dmitrijs2005/shopkeeper/internal/server"
	"github.com/dmitrijs2005/shopkeeper/internal/server/config"
	"github.com/dmitrijs2005/shopkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/shopkeeper/internal/staffctl"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "staffctl:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	opts, err := staffctl.ParseArgs(os.Args[1:])
	if err != nil {
		return err
	}

	cfg := config.LoadConfig()
	logger, err := logging.New(os.Stderr, cfg.LogLevel)
	if err != nil {
		return err
	}

	core, err := server.NewCore(ctx, cfg, logger, repomanager.NewPostgresRepositoryManager())
	if err != nil {
		return err
	}
	defer core.Close()

	return staffctl.Run(ctx, core.Credentials, opts, os.Stdout)
}
