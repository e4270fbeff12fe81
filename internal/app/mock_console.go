// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/relabs-tech/iio_attitude/internal/config"
	"github.com/relabs-tech/iio_attitude/internal/sensors"
	"github.com/relabs-tech/iio_attitude/internal/state"
)

// RunMockConsole runs the estimator on the synthetic source and prints
// the estimate next to the true pose until ctx is done.
func RunMockConsole(ctx context.Context, cfg *config.Config, out io.Writer, logger *zap.SugaredLogger) error {
	clk := clock.New()
	src := sensors.NewMockSource(clk, cfg.PollInterval, cfg.CalibrationDuration)
	params := state.NewParamStore(state.FilterParamsFromConfig(cfg))
	est := NewEstimator(src, params, clk, cfg.FlushDuration, cfg.CalibrationDuration, logger.Named("estimator"))
	if err := est.Start(); err != nil {
		src.Close()
		return err
	}

	errCh := make(chan error, 1)
	go func() { errCh <- est.Run(ctx) }()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			est.Shutdown()
			return <-errCh
		case err := <-errCh:
			return err
		case <-ticker.C:
			snap := est.Snapshot()
			truth := src.Truth()
			fmt.Fprintf(out,
				"ROLL=%6.2f (%6.2f)  PITCH=%6.2f (%6.2f)  YAW=%6.2f (%6.2f)\n",
				snap.Euler[0], truth.Roll,
				snap.Euler[1], truth.Pitch,
				snap.Euler[2], truth.Yaw,
			)
		}
	}
}
