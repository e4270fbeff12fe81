// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package iio

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Device is a sysfs IIO device directory, e.g. /sys/bus/iio/devices/iio:device0.
type Device struct {
	Dir string
}

// Path joins an attribute name onto the device directory.
func (d Device) Path(elem ...string) string {
	return filepath.Join(append([]string{d.Dir}, elem...)...)
}

// ReadText returns the trimmed contents of an attribute.
func (d Device) ReadText(elem ...string) (string, error) {
	b, err := os.ReadFile(d.Path(elem...))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

// ReadInt parses an integer attribute.
func (d Device) ReadInt(elem ...string) (int, error) {
	s, err := d.ReadText(elem...)
	if err != nil {
		return 0, err
	}
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, fmt.Errorf("iio: empty attribute %s", d.Path(elem...))
	}
	v, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, fmt.Errorf("iio: parse %s: %w", d.Path(elem...), err)
	}
	return v, nil
}

// ReadFloat parses a floating point attribute.
func (d Device) ReadFloat(elem ...string) (float64, error) {
	s, err := d.ReadText(elem...)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("iio: parse %s: %w", d.Path(elem...), err)
	}
	return v, nil
}

// ReadChannel reads scan_elements/<name>_type and <name>_index.
func (d Device) ReadChannel(name string) (Channel, error) {
	typ, err := d.ReadText("scan_elements", name+"_type")
	if err != nil {
		return Channel{}, fmt.Errorf("iio: channel %s type: %w", name, err)
	}
	ch, err := ParseType(typ)
	if err != nil {
		return Channel{}, fmt.Errorf("iio: channel %s: %w", name, err)
	}
	idx, err := d.ReadInt("scan_elements", name+"_index")
	if err != nil {
		return Channel{}, fmt.Errorf("iio: channel %s index: %w", name, err)
	}
	ch.Name = name
	ch.Index = idx
	return ch, nil
}

// ReadChannels reads the six axis channels and, when present, the
// timestamp channel.
func (d Device) ReadChannels() ([]Channel, error) {
	channels := make([]Channel, 0, len(AxisChannels)+1)
	for _, name := range AxisChannels {
		ch, err := d.ReadChannel(name)
		if err != nil {
			return nil, err
		}
		channels = append(channels, ch)
	}

	ts, err := d.ReadChannel(Timestamp)
	switch {
	case err == nil:
		channels = append(channels, ts)
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, err
	}
	return channels, nil
}

// ResolveLayout reads the channel metadata and resolves the frame layout.
func (d Device) ResolveLayout() (*Layout, error) {
	channels, err := d.ReadChannels()
	if err != nil {
		return nil, err
	}
	return Resolve(channels)
}
