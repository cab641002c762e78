package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/promptrepo-hq/promptrepo-go/internal/app"
	"github.com/promptrepo-hq/promptrepo-go/internal/config"
	"github.com/promptrepo-hq/promptrepo-go/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "evald start failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if _, err := logger.Init(cfg); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.InfoObj("evald starting", "config", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	daemon, err := app.NewDaemon(ctx, cfg, logger.Std{})
	if err != nil {
		logger.ErrorObj("failed to initialize daemon", "error", err)
		return err
	}

	if err := daemon.Run(ctx); err != nil {
		return fmt.Errorf("evald run: %w", err)
	}

	return nil
}
