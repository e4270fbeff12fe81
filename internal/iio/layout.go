// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package iio

import (
	"fmt"
	"sort"
)

// Field is one channel placed at a byte offset within a frame.
type Field struct {
	Channel
	Offset int
}

// Layout is the decoding plan for one scan frame. It is immutable once
// resolved.
type Layout struct {
	Fields []Field
	Size   int

	byName map[string]int
}

// Resolve orders channels by scan index and lays them out the way the
// kernel packs a scan: every field starts at a multiple of its own size.
// All six axis channels are required; the timestamp channel is optional.
func Resolve(channels []Channel) (*Layout, error) {
	byName := make(map[string]int, len(channels))
	indices := make(map[int]string, len(channels))
	for i, ch := range channels {
		if _, dup := byName[ch.Name]; dup {
			return nil, fmt.Errorf("iio: duplicate channel %q", ch.Name)
		}
		if other, dup := indices[ch.Index]; dup {
			return nil, fmt.Errorf("iio: channels %q and %q share scan index %d", other, ch.Name, ch.Index)
		}
		switch ch.StorageBits {
		case 16, 32, 64:
		default:
			return nil, fmt.Errorf("iio: channel %q has unsupported storage bits %d", ch.Name, ch.StorageBits)
		}
		byName[ch.Name] = i
		indices[ch.Index] = ch.Name
	}
	for _, name := range AxisChannels {
		if _, ok := byName[name]; !ok {
			return nil, fmt.Errorf("iio: required channel %q missing", name)
		}
	}

	sorted := make([]Channel, len(channels))
	copy(sorted, channels)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })

	l := &Layout{
		Fields: make([]Field, 0, len(sorted)),
		byName: make(map[string]int, len(sorted)),
	}
	offset := 0
	for _, ch := range sorted {
		size := ch.Size()
		if rem := offset % size; rem != 0 {
			offset += size - rem
		}
		l.byName[ch.Name] = len(l.Fields)
		l.Fields = append(l.Fields, Field{Channel: ch, Offset: offset})
		offset += size
	}
	l.Size = offset
	return l, nil
}

// Field returns the placed field for a channel name.
func (l *Layout) Field(name string) (Field, bool) {
	i, ok := l.byName[name]
	if !ok {
		return Field{}, false
	}
	return l.Fields[i], true
}

// HasTimestamp reports whether frames carry the timestamp channel.
func (l *Layout) HasTimestamp() bool {
	_, ok := l.byName[Timestamp]
	return ok
}
