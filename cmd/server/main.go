package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/louweal/trusense-web-server/internal/config"
	"github.com/louweal/trusense-web-server/internal/logger"
	"github.com/louweal/trusense-web-server/internal/server"
)

func main() {
	cfg := config.FromEnv()
	logger.Init(cfg.LogLevel)

	srv, err := server.New(cfg)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to initialize server")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		logger.Logger.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
}
