// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package iio reads Linux IIO channel metadata and decodes buffered scan
// frames whose layout is only known at runtime.
package iio

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// Channel names, as used in sysfs attribute prefixes.
const (
	AccelX    = "in_accel_x"
	AccelY    = "in_accel_y"
	AccelZ    = "in_accel_z"
	AnglVelX  = "in_anglvel_x"
	AnglVelY  = "in_anglvel_y"
	AnglVelZ  = "in_anglvel_z"
	Timestamp = "in_timestamp"
)

// AxisChannels lists the six required channels in sample order.
var AxisChannels = [6]string{AccelX, AccelY, AccelZ, AnglVelX, AnglVelY, AnglVelZ}

// Channel describes the binary encoding of one channel inside a scan frame.
type Channel struct {
	Name        string
	Order       binary.ByteOrder
	Signed      bool
	RealBits    int
	StorageBits int
	Shift       int
	Index       int
}

// Size returns the storage width of the channel in bytes.
func (c Channel) Size() int { return c.StorageBits / 8 }

// ParseType parses an IIO scan element type string such as "le:s16/16>>0".
// The returned channel has no name or index set.
func ParseType(s string) (Channel, error) {
	s = strings.TrimSpace(s)
	endian, rest, ok := strings.Cut(s, ":")
	if !ok || rest == "" {
		return Channel{}, fmt.Errorf("iio: malformed type %q", s)
	}

	var ch Channel
	switch endian {
	case "le":
		ch.Order = binary.LittleEndian
	case "be":
		ch.Order = binary.BigEndian
	default:
		return Channel{}, fmt.Errorf("iio: unknown endianness %q in type %q", endian, s)
	}

	switch rest[0] {
	case 's', 'S':
		ch.Signed = true
	case 'u', 'U':
	default:
		return Channel{}, fmt.Errorf("iio: unknown sign %q in type %q", rest[0], s)
	}

	bits, shift, ok := strings.Cut(rest[1:], ">>")
	if !ok {
		return Channel{}, fmt.Errorf("iio: missing shift in type %q", s)
	}
	// Repeated channels carry an "X<count>" suffix we do not support.
	if strings.Contains(bits, "X") {
		return Channel{}, fmt.Errorf("iio: repeated channels unsupported in type %q", s)
	}
	realS, storageS, ok := strings.Cut(bits, "/")
	if !ok {
		return Channel{}, fmt.Errorf("iio: missing storage bits in type %q", s)
	}

	var err error
	if ch.RealBits, err = strconv.Atoi(realS); err != nil {
		return Channel{}, fmt.Errorf("iio: real bits in type %q: %w", s, err)
	}
	if ch.StorageBits, err = strconv.Atoi(storageS); err != nil {
		return Channel{}, fmt.Errorf("iio: storage bits in type %q: %w", s, err)
	}
	if ch.Shift, err = strconv.Atoi(shift); err != nil {
		return Channel{}, fmt.Errorf("iio: shift in type %q: %w", s, err)
	}

	switch ch.StorageBits {
	case 16, 32, 64:
	default:
		return Channel{}, fmt.Errorf("iio: unsupported storage bits %d in type %q", ch.StorageBits, s)
	}
	if ch.RealBits <= 0 || ch.RealBits > ch.StorageBits || ch.Shift < 0 || ch.Shift+ch.RealBits > ch.StorageBits {
		return Channel{}, fmt.Errorf("iio: inconsistent bit widths in type %q", s)
	}
	return ch, nil
}
