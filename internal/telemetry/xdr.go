// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package telemetry formats attitude snapshots for serial consumers.
package telemetry

import (
	"fmt"
	"strconv"
	"strings"

	nmea "github.com/adrianmo/go-nmea"

	"github.com/relabs-tech/iio_attitude/internal/state"
)

// TalkerID is the NMEA talker used for generated sentences
// ("II", integrated instrumentation).
const TalkerID = "II"

// FormatXDR renders the Euler angles of snap as an XDR transducer
// sentence with three angular displacement measurements:
//
//	$IIXDR,A,<roll>,D,ROLL,A,<pitch>,D,PITCH,A,<yaw>,D,YAW*hh
func FormatXDR(snap state.Snapshot) string {
	fields := []string{TalkerID + nmea.TypeXDR}
	for i, name := range []string{"ROLL", "PITCH", "YAW"} {
		fields = append(fields,
			nmea.TransducerAngularDisplacementXDR,
			strconv.FormatFloat(snap.Euler[i], 'f', 2, 64),
			"D",
			name,
		)
	}
	body := strings.Join(fields, ",")
	return fmt.Sprintf("$%s*%s", body, nmea.Checksum(body))
}
