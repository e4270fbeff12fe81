// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/relabs-tech/iio_attitude/internal/iio"
	"github.com/relabs-tech/iio_attitude/internal/imu"
)

// attribute is an open sysfs file re-read from offset 0 on every cycle.
type attribute interface {
	io.ReaderAt
	io.Closer
}

// PollSource reads the six in_*_raw attributes directly, without the
// IIO buffer.
type PollSource struct {
	dev      iio.Device
	attrs    [6]attribute
	scales   imu.Scales
	clk      clock.Clock
	interval time.Duration
	logger   *zap.SugaredLogger
	buf      []byte
	started  bool
	closed   bool
}

// OpenPollSource opens the raw value attribute of every axis channel.
func OpenPollSource(dev iio.Device, scales imu.Scales, clk clock.Clock, interval time.Duration, logger *zap.SugaredLogger) (*PollSource, error) {
	s := &PollSource{
		dev:      dev,
		scales:   scales,
		clk:      clk,
		interval: interval,
		logger:   logger,
		buf:      make([]byte, 32),
	}
	for i, name := range iio.AxisChannels {
		f, err := os.Open(dev.Path(name + "_raw"))
		if err != nil {
			return nil, multierr.Append(fmt.Errorf("open %s_raw: %w", name, err), s.Close())
		}
		s.attrs[i] = f
	}
	return s, nil
}

// Warmup puts the buffer and trigger into an idle state so the raw
// attributes are readable, then discards readings for d. Reset failures
// are logged and ignored.
func (s *PollSource) Warmup(d time.Duration) error {
	for _, p := range []struct {
		value string
		elem  []string
	}{
		{"0", []string{"buffer", "enable"}},
		{"0", []string{"buffer0", "enable"}},
		{"\n", []string{"trigger", "current_trigger"}},
	} {
		path := s.dev.Path(p.elem...)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := os.WriteFile(path, []byte(p.value), 0); err != nil {
			s.logger.Warnw("could not reset attribute", "path", path, "error", err)
		}
	}

	start := s.clk.Now()
	for s.clk.Since(start) < d {
		if _, err := s.Next(); err != nil {
			return err
		}
	}
	return nil
}

// Next reads all six attributes. The first call returns immediately;
// later calls sleep the poll interval first. Unreadable values read as 0.
func (s *PollSource) Next() (imu.Raw, error) {
	if s.closed {
		return imu.Raw{}, ErrClosed
	}
	if s.started {
		s.clk.Sleep(s.interval)
	}
	s.started = true

	var v [6]float64
	for i, a := range s.attrs {
		v[i] = s.read(i, a)
	}
	return imu.Raw{
		Ax: v[0], Ay: v[1], Az: v[2],
		Gx: v[3], Gy: v[4], Gz: v[5],
		Timestamp: s.clk.Now().UnixNano(),
	}, nil
}

func (s *PollSource) read(i int, a attribute) float64 {
	n, err := a.ReadAt(s.buf, 0)
	if err != nil && err != io.EOF {
		s.logger.Debugw("raw read failed", "channel", iio.AxisChannels[i], "error", err)
		return 0
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(string(s.buf[:n])), 64)
	if err != nil {
		s.logger.Debugw("raw parse failed", "channel", iio.AxisChannels[i], "error", err)
		return 0
	}
	return f
}

// Scales returns the conversion factors read at open time.
func (s *PollSource) Scales() imu.Scales { return s.scales }

// Close closes every open attribute.
func (s *PollSource) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	var err error
	for _, a := range s.attrs {
		if a != nil {
			err = multierr.Append(err, a.Close())
		}
	}
	return err
}
