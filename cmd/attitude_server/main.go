// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/relabs-tech/iio_attitude/internal/app"
	"github.com/relabs-tech/iio_attitude/internal/config"
	"github.com/relabs-tech/iio_attitude/internal/logging"
)

func main() {
	cliApp := &cli.App{
		Name:  "attitude_server",
		Usage: "estimate attitude from an IIO accelerometer/gyroscope and serve it",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "attitude_config.txt",
				Usage:   "path to the KEY=VALUE config file",
			},
			&cli.StringFlag{
				Name:  "source",
				Usage: "override SAMPLE_SOURCE (stream, poll or mock)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "override LOG_LEVEL (debug, info, warn, error)",
			},
		},
		Action: run,
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if c.IsSet("source") {
		cfg.SampleSource = c.String("source")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Infow("starting attitude server", "source", cfg.SampleSource, "listen", cfg.WSListenAddr)
	if err := app.RunAttitudeServer(ctx, cfg, logger); err != nil {
		return err
	}
	logger.Info("shut down")
	return nil
}

