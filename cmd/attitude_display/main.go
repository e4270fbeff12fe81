// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/relabs-tech/iio_attitude/internal/app"
	"github.com/relabs-tech/iio_attitude/internal/config"
	"github.com/relabs-tech/iio_attitude/internal/logging"
)

func main() {
	configPath := flag.String("config", "attitude_config.txt", "path to config file")
	flag.Parse()

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.Get()

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()
	logger.Infow("starting attitude display", "bus", cfg.DisplayI2CBus)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunDisplay(ctx, cfg, logger.Named("display")); err != nil {
		logger.Fatalw("fatal", "error", err)
	}
}
