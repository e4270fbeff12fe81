// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"net"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/relabs-tech/iio_attitude/internal/config"
	"github.com/relabs-tech/iio_attitude/internal/sensors"
	"github.com/relabs-tech/iio_attitude/internal/state"
)

// component is one long-running part of the server.
type component struct {
	name string
	run  func(ctx context.Context) error
}

// serve runs every component until ctx is cancelled. A component that
// fails is logged and stops alone; the others keep running.
func serve(ctx context.Context, comps []component, logger *zap.SugaredLogger) error {
	var g errgroup.Group
	for _, c := range comps {
		c := c
		g.Go(func() error {
			if err := c.run(ctx); err != nil {
				logger.Errorw("component stopped", "component", c.name, "error", err)
				return nil
			}
			logger.Debugw("component done", "component", c.name)
			return nil
		})
	}
	return g.Wait()
}

// RunAttitudeServer opens the sample source, calibrates, and then runs
// the estimation loop alongside the websocket server and the optional
// MQTT bridge and NMEA serial output until ctx is cancelled.
//
// Source, calibration and listen failures are returned before anything
// is served. Later failures are logged and stop only the failing part:
// the transports keep serving the last snapshot after an estimation
// fault, and the estimator keeps running when a transport dies.
func RunAttitudeServer(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) error {
	clk := clock.New()

	src, err := sensors.New(cfg, clk, logger.Named("source"))
	if err != nil {
		return fmt.Errorf("open sample source: %w", err)
	}

	params := state.NewParamStore(state.FilterParamsFromConfig(cfg))
	est := NewEstimator(src, params, clk, cfg.FlushDuration, cfg.CalibrationDuration, logger.Named("estimator"))
	if err := est.Start(); err != nil {
		src.Close()
		return err
	}

	ln, err := net.Listen("tcp", cfg.WSListenAddr)
	if err != nil {
		src.Close()
		return fmt.Errorf("listen %s: %w", cfg.WSListenAddr, err)
	}
	ws := NewWSServer(est, est, cfg.WSPublishRate.Period(), cfg.WebStaticDir, clk, logger.Named("websocket"))

	comps := []component{
		{name: "estimator", run: est.Run},
		{name: "websocket", run: func(ctx context.Context) error { return ws.Serve(ctx, ln) }},
	}

	var bridge *MQTTBridge
	if cfg.MQTTEnabled {
		bridge, err = NewMQTTBridge(cfg, est, est, clk, logger.Named("mqtt"))
		if err != nil {
			ln.Close()
			src.Close()
			return err
		}
		comps = append(comps, component{name: "mqtt", run: bridge.Run})
	}

	if cfg.NMEASerialPort != "" {
		port, err := OpenNMEAPort(cfg)
		if err != nil {
			if bridge != nil {
				bridge.client.Disconnect(250)
			}
			ln.Close()
			src.Close()
			return err
		}
		defer port.Close()
		logger.Infow("NMEA output enabled", "port", cfg.NMEASerialPort, "baud", cfg.NMEABaudRate, "rate", cfg.NMEARate)
		nmeaOut := NewNMEAWriter(port, est, cfg.NMEARate.Period(), clk, logger.Named("nmea"))
		comps = append(comps, component{name: "nmea", run: nmeaOut.Run})
	}

	return serve(ctx, comps, logger)
}
