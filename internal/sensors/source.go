// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package sensors provides the sample sources feeding the estimator:
// a buffered IIO stream, direct sysfs polling and a synthetic mock.
package sensors

import (
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/relabs-tech/iio_attitude/internal/config"
	"github.com/relabs-tech/iio_attitude/internal/iio"
	"github.com/relabs-tech/iio_attitude/internal/imu"
)

var (
	// ErrShortRead is returned when a stream read delivers less than a frame.
	ErrShortRead = errors.New("sensors: short read")
	// ErrBadScale is returned when a scale attribute is missing or zero.
	ErrBadScale = errors.New("sensors: invalid scale")
	// ErrClosed is returned by Next after Close.
	ErrClosed = errors.New("sensors: source closed")
)

// Source produces raw samples. Implementations are used by a single
// goroutine.
type Source interface {
	// Warmup prepares the device and discards data for d.
	Warmup(d time.Duration) error
	// Next blocks until the next sample is available.
	Next() (imu.Raw, error)
	// Scales returns the raw-to-physical conversion factors.
	Scales() imu.Scales
	Close() error
}

// IsTransient reports whether err only spoils the current sample.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var de *iio.DecodeError
	return errors.Is(err, ErrShortRead) || errors.As(err, &de)
}

// ReadScales reads in_accel_scale and in_anglvel_scale. The gyro scale is
// multiplied by gyroTrim.
func ReadScales(dev iio.Device, gyroTrim float64) (imu.Scales, error) {
	accel, err := readScale(dev, "in_accel_scale")
	if err != nil {
		return imu.Scales{}, err
	}
	gyro, err := readScale(dev, "in_anglvel_scale")
	if err != nil {
		return imu.Scales{}, err
	}
	return imu.Scales{Accel: accel, Gyro: gyro * gyroTrim}, nil
}

func readScale(dev iio.Device, name string) (float64, error) {
	v, err := dev.ReadFloat(name)
	if err != nil {
		return 0, fmt.Errorf("%s: %w: %v", name, ErrBadScale, err)
	}
	if v == 0 {
		return 0, fmt.Errorf("%s is zero: %w", name, ErrBadScale)
	}
	return v, nil
}

// New opens the source selected by cfg.SampleSource.
func New(cfg *config.Config, clk clock.Clock, logger *zap.SugaredLogger) (Source, error) {
	switch cfg.SampleSource {
	case "mock":
		return NewMockSource(clk, cfg.PollInterval, cfg.CalibrationDuration), nil
	case "poll":
		dev := iio.Device{Dir: cfg.IIODeviceDir}
		scales, err := ReadScales(dev, cfg.GyroScaleTrim)
		if err != nil {
			return nil, err
		}
		return OpenPollSource(dev, scales, clk, cfg.PollInterval, logger.Named("poll"))
	case "stream":
		dev := iio.Device{Dir: cfg.IIODeviceDir}
		scales, err := ReadScales(dev, cfg.GyroScaleTrim)
		if err != nil {
			return nil, err
		}
		layout, err := dev.ResolveLayout()
		if err != nil {
			return nil, fmt.Errorf("resolve layout: %w", err)
		}
		logger.Infow("frame layout resolved", "size", layout.Size, "timestamp", layout.HasTimestamp())
		return OpenStreamSource(cfg.IIODeviceNode, layout, scales, clk, logger.Named("stream"))
	default:
		return nil, fmt.Errorf("unknown sample source %q", cfg.SampleSource)
	}
}
