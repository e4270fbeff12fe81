// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/relabs-tech/iio_attitude/internal/iio"
)

// iioGetEventFDIoctl is IIO_GET_EVENT_FD_IOCTL, _IOR('i', 0x90, int).
const iioGetEventFDIoctl = 0x80046990

// OpenIIOEvents asks the device behind node for its event descriptor.
// The character device can only be opened once, so this fails with
// EBUSY while a stream source holds it.
func OpenIIOEvents(node string) (*os.File, error) {
	dev, err := os.Open(node)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", node, err)
	}
	defer dev.Close()

	fd, err := unix.IoctlGetInt(int(dev.Fd()), iioGetEventFDIoctl)
	if err != nil {
		return nil, fmt.Errorf("IIO_GET_EVENT_FD_IOCTL on %s: %w", node, err)
	}
	// non-blocking so Close from another goroutine interrupts Read
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("set event fd non-blocking: %w", err)
	}
	return os.NewFile(uintptr(fd), node+":events"), nil
}

// printEvents prints one line per event read from r until r fails.
// A clean end of stream returns nil.
func printEvents(r io.Reader, out io.Writer, logger *zap.SugaredLogger) error {
	buf := make([]byte, iio.EventSize)
	for {
		if _, err := io.ReadFull(r, buf); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read event: %w", err)
		}
		e, err := iio.DecodeEvent(buf)
		if err != nil {
			logger.Debugw("skipping event", "error", err)
			continue
		}
		fmt.Fprintf(out, "event id=0x%x ts=%d %s\n", e.ID, e.Timestamp, e)
	}
}

// RunIIOEvents prints the threshold and motion events of the IIO device
// at node until ctx is done.
func RunIIOEvents(ctx context.Context, node string, out io.Writer, logger *zap.SugaredLogger) error {
	f, err := OpenIIOEvents(node)
	if err != nil {
		return err
	}
	defer f.Close()
	logger.Infow("waiting for events", "device", node)

	stop := context.AfterFunc(ctx, func() { f.Close() })
	defer stop()

	if err := printEvents(f, out, logger); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
