// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/iio_attitude/internal/app"
	"github.com/relabs-tech/iio_attitude/internal/config"
	"github.com/relabs-tech/iio_attitude/internal/logging"
)

func main() {
	configPath := flag.String("config", "attitude_config.txt", "path to config file")
	clearFB := flag.Bool("clear", false, "blank the framebuffer instead of drawing an image")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	fb := app.FramebufferFromConfig(cfg)
	if *clearFB {
		if err := fb.Clear(); err != nil {
			logger.Fatalw("fatal", "error", err)
		}
		logger.Infow("framebuffer cleared", "device", fb.Path)
		return
	}

	if flag.NArg() != 1 {
		log.Fatalf("usage: fb_image [-config file] [-clear] <image>")
	}
	if err := fb.ShowImage(flag.Arg(0), logger.Named("fb")); err != nil {
		logger.Fatalw("fatal", "error", err)
	}
}
