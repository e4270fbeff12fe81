// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/relabs-tech/iio_attitude/internal/iio"
	"github.com/relabs-tech/iio_attitude/internal/imu"
)

// StreamSource reads binary scan frames from an IIO character device.
type StreamSource struct {
	r      io.ReadCloser
	layout *iio.Layout
	scales imu.Scales
	clk    clock.Clock
	logger *zap.SugaredLogger
	buf    []byte
	closed bool
}

// OpenStreamSource opens the character device node read-only.
func OpenStreamSource(node string, layout *iio.Layout, scales imu.Scales, clk clock.Clock, logger *zap.SugaredLogger) (*StreamSource, error) {
	f, err := os.Open(node)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", node, err)
	}
	return NewStreamSource(f, layout, scales, clk, logger), nil
}

// NewStreamSource reads frames from r.
func NewStreamSource(r io.ReadCloser, layout *iio.Layout, scales imu.Scales, clk clock.Clock, logger *zap.SugaredLogger) *StreamSource {
	return &StreamSource{
		r:      r,
		layout: layout,
		scales: scales,
		clk:    clk,
		logger: logger,
		buf:    make([]byte, layout.Size),
	}
}

// Warmup discards frames for d so stale buffered data is not used for
// calibration.
func (s *StreamSource) Warmup(d time.Duration) error {
	start := s.clk.Now()
	discarded := 0
	for s.clk.Since(start) < d {
		if _, err := s.readFrame(); err != nil {
			if IsTransient(err) {
				continue
			}
			return fmt.Errorf("flush: %w", err)
		}
		discarded++
	}
	s.logger.Debugw("stream flushed", "frames", discarded, "duration", d)
	return nil
}

// Next reads and decodes one frame. The hardware timestamp is used when
// the layout carries one; otherwise the clock is sampled.
func (s *StreamSource) Next() (imu.Raw, error) {
	f, err := s.readFrame()
	if err != nil {
		return imu.Raw{}, err
	}
	ts := f.Timestamp
	if !f.HasTimestamp {
		ts = s.clk.Now().UnixNano()
	}
	return imu.Raw{
		Ax: float64(f.Axes[0]), Ay: float64(f.Axes[1]), Az: float64(f.Axes[2]),
		Gx: float64(f.Axes[3]), Gy: float64(f.Axes[4]), Gz: float64(f.Axes[5]),
		Timestamp: ts,
	}, nil
}

func (s *StreamSource) readFrame() (iio.Frame, error) {
	if s.closed {
		return iio.Frame{}, ErrClosed
	}
	n, err := s.r.Read(s.buf)
	if err != nil && !errors.Is(err, io.EOF) {
		if errors.Is(err, syscall.EAGAIN) {
			return iio.Frame{}, fmt.Errorf("%w: %v", ErrShortRead, err)
		}
		return iio.Frame{}, fmt.Errorf("read frame: %w", err)
	}
	if n != len(s.buf) {
		if n == 0 && errors.Is(err, io.EOF) {
			return iio.Frame{}, fmt.Errorf("read frame: %w", io.EOF)
		}
		return iio.Frame{}, fmt.Errorf("%w: %d of %d bytes", ErrShortRead, n, len(s.buf))
	}
	return s.layout.Decode(s.buf)
}

// Scales returns the conversion factors read at open time.
func (s *StreamSource) Scales() imu.Scales { return s.scales }

// Close closes the device node.
func (s *StreamSource) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.r.Close()
}
