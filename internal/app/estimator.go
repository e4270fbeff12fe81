// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/relabs-tech/iio_attitude/internal/fusion"
	"github.com/relabs-tech/iio_attitude/internal/imu"
	"github.com/relabs-tech/iio_attitude/internal/sensors"
	"github.com/relabs-tech/iio_attitude/internal/state"
)

// SnapshotReader exposes the latest published attitude.
type SnapshotReader interface {
	Snapshot() state.Snapshot
}

// ParamSink accepts filter parameter updates from clients.
type ParamSink interface {
	ApplyParameters(values map[string]any) map[string]error
}

// Estimator runs the acquisition → calibration → filter loop on one
// sample source and publishes throttled snapshots.
type Estimator struct {
	src    sensors.Source
	scales imu.Scales
	params *state.ParamStore
	store  *state.SnapshotStore
	clk    clock.Clock
	logger *zap.SugaredLogger

	flush       time.Duration
	calibWindow time.Duration

	running     *atomic.Bool
	attitude    *fusion.Attitude
	throttle    *state.Throttle
	calibration fusion.Calibration
}

// NewEstimator wires an estimator around src. Nothing is read until Start.
func NewEstimator(src sensors.Source, params *state.ParamStore, clk clock.Clock, flush, calibWindow time.Duration, logger *zap.SugaredLogger) *Estimator {
	return &Estimator{
		src:         src,
		scales:      src.Scales(),
		params:      params,
		store:       state.NewSnapshotStore(),
		clk:         clk,
		logger:      logger,
		flush:       flush,
		calibWindow: calibWindow,
		running:     atomic.NewBool(true),
	}
}

// Start flushes stale data and runs the startup calibration. It must
// succeed before Run.
func (e *Estimator) Start() error {
	e.logger.Infow("flushing sensor", "duration", e.flush)
	if err := e.src.Warmup(e.flush); err != nil {
		return fmt.Errorf("warmup: %w", err)
	}

	e.logger.Infow("calibrating, keep the sensor still", "duration", e.calibWindow)
	var samples []imu.Scaled
	start := e.clk.Now()
	for e.clk.Since(start) < e.calibWindow {
		raw, err := e.src.Next()
		if err != nil {
			if sensors.IsTransient(err) {
				continue
			}
			return fmt.Errorf("calibration read: %w", err)
		}
		samples = append(samples, e.scales.Apply(raw))
	}

	c, err := fusion.Calibrate(samples)
	if err != nil {
		return err
	}
	if c.BiasRejected {
		e.logger.Warnw("sensor moved during calibration, starting with zero gyro bias", "mean_gyro", c.MeanGyro)
	}
	e.logger.Infow("calibration done",
		"samples", c.Samples,
		"bias", c.Bias,
		"pose", c.Pose(),
	)

	e.calibration = c
	e.attitude = fusion.NewAttitude(c)
	e.throttle = state.NewThrottle(e.clk)
	return nil
}

// Run loops until Shutdown is called, ctx is cancelled or the source
// fails. The source is closed on return. A failure leaves the last
// snapshot in place.
func (e *Estimator) Run(ctx context.Context) (err error) {
	if e.attitude == nil {
		return fmt.Errorf("estimator not started")
	}
	defer func() {
		if cerr := e.src.Close(); cerr != nil {
			e.logger.Warnw("closing source", "error", cerr)
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("estimation loop panic: %v", r)
			e.logger.Errorw("estimation loop stopped", "error", err)
		}
	}()

	e.logger.Info("estimation loop running")
	for e.running.Load() {
		if ctx.Err() != nil {
			break
		}
		if err := e.cycle(); err != nil {
			e.logger.Errorw("estimation loop stopped", "error", err)
			return err
		}
	}
	e.logger.Info("estimation loop stopped")
	return nil
}

func (e *Estimator) cycle() error {
	raw, err := e.src.Next()
	if err != nil {
		if sensors.IsTransient(err) {
			e.logger.Debugw("skipping sample", "error", err)
			return nil
		}
		return fmt.Errorf("read sample: %w", err)
	}

	out := e.attitude.Step(e.scales.Apply(raw), e.params.Get())

	if publish, fps := e.throttle.Cycle(); publish {
		e.store.Set(out.Snapshot(e.clk.Now().UnixNano(), fps))
	}
	return nil
}

// Shutdown asks the loop to stop after the current cycle.
func (e *Estimator) Shutdown() { e.running.Store(false) }

// Snapshot returns a copy of the latest published snapshot.
func (e *Estimator) Snapshot() state.Snapshot { return e.store.Get() }

// Calibration returns the startup calibration result.
func (e *Estimator) Calibration() fusion.Calibration { return e.calibration }

// ApplyParameter validates and applies one filter parameter. It takes
// effect on the next filter cycle.
func (e *Estimator) ApplyParameter(name string, value any) error {
	if err := e.params.Apply(name, value); err != nil {
		return err
	}
	e.logger.Infow("parameter updated", "name", name, "value", value)
	return nil
}

// ApplyParameters applies a params payload and returns the rejected
// entries.
func (e *Estimator) ApplyParameters(values map[string]any) map[string]error {
	rejected := e.params.ApplyAll(values)
	for name, err := range rejected {
		e.logger.Debugw("parameter rejected", "name", name, "error", err)
	}
	if len(rejected) < len(values) {
		e.logger.Infow("parameters updated", "params", e.params.Get())
	}
	return rejected
}
