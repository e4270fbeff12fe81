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
	serial "github.com/jacobsa/go-serial/serial"
	"go.uber.org/zap"

	"github.com/relabs-tech/iio_attitude/internal/config"
	"github.com/relabs-tech/iio_attitude/internal/telemetry"
)

// OpenNMEAPort opens the configured serial port for writing sentences.
func OpenNMEAPort(cfg *config.Config) (io.WriteCloser, error) {
	serialOpts := serial.OpenOptions{
		PortName:              cfg.NMEASerialPort,
		BaudRate:              cfg.NMEABaudRate,
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}
	port, err := serial.Open(serialOpts)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", cfg.NMEASerialPort, err)
	}
	return port, nil
}

// NMEAWriter emits an XDR attitude sentence for the latest snapshot at a
// fixed rate.
type NMEAWriter struct {
	w        io.Writer
	snaps    SnapshotReader
	interval time.Duration
	clk      clock.Clock
	logger   *zap.SugaredLogger
}

// NewNMEAWriter writes sentences to w.
func NewNMEAWriter(w io.Writer, snaps SnapshotReader, interval time.Duration, clk clock.Clock, logger *zap.SugaredLogger) *NMEAWriter {
	return &NMEAWriter{w: w, snaps: snaps, interval: interval, clk: clk, logger: logger}
}

// Run writes until ctx is done or a write fails.
func (n *NMEAWriter) Run(ctx context.Context) error {
	ticker := n.clk.Ticker(n.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			line := telemetry.FormatXDR(n.snaps.Snapshot())
			if _, err := io.WriteString(n.w, line+"\r\n"); err != nil {
				return fmt.Errorf("write NMEA sentence: %w", err)
			}
			n.logger.Debugw("sentence written", "line", line)
		}
	}
}
