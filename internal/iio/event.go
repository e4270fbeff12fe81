// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package iio

import (
	"encoding/binary"
	"fmt"
)

// EventSize is the size of struct iio_event_data: a u64 event code and
// an s64 timestamp in ns.
const EventSize = 16

// Event is one record read from an IIO event descriptor.
type Event struct {
	ID        uint64
	Timestamp int64
}

// DecodeEvent decodes an iio_event_data record in host (little-endian)
// byte order.
func DecodeEvent(buf []byte) (Event, error) {
	if len(buf) != EventSize {
		return Event{}, &DecodeError{Want: EventSize, Got: len(buf)}
	}
	return Event{
		ID:        binary.LittleEndian.Uint64(buf[0:8]),
		Timestamp: int64(binary.LittleEndian.Uint64(buf[8:16])),
	}, nil
}

// Field accessors follow the IIO_EVENT_CODE_EXTRACT_* macros.

// ChanType is the enum iio_chan_type of the source channel.
func (e Event) ChanType() uint8 { return uint8(e.ID >> 32) }

func (e Event) Modifier() uint8 { return uint8(e.ID >> 40) }

// Direction is the enum iio_event_direction.
func (e Event) Direction() uint8 { return uint8(e.ID>>48) & 0x7f }

func (e Event) Differential() bool { return (e.ID>>55)&1 == 1 }

// Type is the enum iio_event_type.
func (e Event) Type() uint8 { return uint8(e.ID >> 56) }

func (e Event) Chan() int16 { return int16(e.ID) }

func (e Event) Chan2() int16 { return int16(e.ID >> 16) }

var chanTypeNames = map[uint8]string{
	0:  "voltage",
	1:  "current",
	2:  "power",
	3:  "accel",
	4:  "anglvel",
	5:  "magn",
	6:  "illuminance",
	7:  "intensity",
	8:  "proximity",
	9:  "temp",
	10: "incli",
	11: "rot",
	12: "angl",
	13: "timestamp",
	17: "pressure",
	19: "activity",
	20: "steps",
}

var eventTypeNames = []string{"thresh", "mag", "roc", "thresh_adaptive", "mag_adaptive", "change", "mag_referenced", "gesture"}

var directionNames = []string{"either", "rising", "falling", "none", "singletap", "doubletap"}

func lookup(names []string, i uint8) string {
	if int(i) < len(names) {
		return names[i]
	}
	return fmt.Sprintf("%d", i)
}

// String renders the event the way the kernel names event attributes,
// for example "accel chan=0 thresh rising".
func (e Event) String() string {
	ct, ok := chanTypeNames[e.ChanType()]
	if !ok {
		ct = fmt.Sprintf("type%d", e.ChanType())
	}
	return fmt.Sprintf("%s chan=%d %s %s",
		ct, e.Chan(), lookup(eventTypeNames, e.Type()), lookup(directionNames, e.Direction()))
}
