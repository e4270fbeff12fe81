// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package iio

import "fmt"

// DecodeError reports a frame buffer whose length does not match the layout.
type DecodeError struct {
	Want int
	Got  int
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("iio: frame is %d bytes, layout needs %d", e.Got, e.Want)
}

// Frame holds the integer values of one decoded scan.
type Frame struct {
	Axes         [6]int64 // ordered as AxisChannels
	Timestamp    int64
	HasTimestamp bool
}

// Decode extracts every channel of buf according to the layout.
func (l *Layout) Decode(buf []byte) (Frame, error) {
	if len(buf) != l.Size {
		return Frame{}, &DecodeError{Want: l.Size, Got: len(buf)}
	}
	var f Frame
	for i, name := range AxisChannels {
		fd := l.Fields[l.byName[name]]
		f.Axes[i] = fd.value(buf)
	}
	if i, ok := l.byName[Timestamp]; ok {
		f.Timestamp = l.Fields[i].value(buf)
		f.HasTimestamp = true
	}
	return f, nil
}

func (fd Field) value(buf []byte) int64 {
	b := buf[fd.Offset : fd.Offset+fd.Size()]
	var raw uint64
	switch fd.StorageBits {
	case 16:
		raw = uint64(fd.Order.Uint16(b))
	case 32:
		raw = uint64(fd.Order.Uint32(b))
	default:
		raw = fd.Order.Uint64(b)
	}

	raw >>= uint(fd.Shift)
	if fd.RealBits < 64 {
		raw &= (uint64(1) << uint(fd.RealBits)) - 1
		if fd.Signed && raw&(uint64(1)<<uint(fd.RealBits-1)) != 0 {
			raw |= ^uint64(0) << uint(fd.RealBits)
		}
	}
	return int64(raw)
}
