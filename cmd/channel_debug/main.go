// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"
	"os"

	"github.com/relabs-tech/iio_attitude/internal/app"
	"github.com/relabs-tech/iio_attitude/internal/config"
	"github.com/relabs-tech/iio_attitude/internal/logging"
)

func main() {
	configPath := flag.String("config", "attitude_config.txt", "path to config file")
	source := flag.String("source", "", "override SAMPLE_SOURCE (stream, poll or mock)")
	frames := flag.Int("frames", 20, "number of samples to print")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *source != "" {
		cfg.SampleSource = *source
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	if err := app.RunChannelDebug(cfg, *frames, os.Stdout, logger.Named("debug")); err != nil {
		logger.Fatalw("fatal", "error", err)
	}
}
