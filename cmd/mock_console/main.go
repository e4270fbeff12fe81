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
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()

	// no config file needed, defaults drive the synthetic source
	cfg := config.Default()
	cfg.SampleSource = "mock"

	logger, err := logging.New(*logLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()
	logger.Info("starting mock console: estimate (truth)")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunMockConsole(ctx, cfg, os.Stdout, logger.Named("mock")); err != nil {
		logger.Fatalw("fatal", "error", err)
	}
}
