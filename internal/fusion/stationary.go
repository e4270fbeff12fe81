// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package fusion

import (
	"math"

	"github.com/golang/geo/r3"
)

const (
	// StationaryHold is the number of consecutive at-rest samples needed
	// before rest is confirmed.
	StationaryHold = 30

	minAccelNorm = 1e-6
)

// IsStationary classifies one sample: angular rate below gyroThresh and
// accel magnitude within accGThresh (fraction of g) of gravity.
func IsStationary(gyro, acc r3.Vector, gyroThresh, accGThresh float64) bool {
	an := acc.Norm()
	if an < minAccelNorm {
		return false
	}
	dev := math.Abs(an-Gravity) / Gravity
	return gyro.Norm() < gyroThresh && dev < accGThresh
}

// StationaryCounter debounces IsStationary with a run-length count.
type StationaryCounter struct {
	Hold  int
	count int
}

// NewStationaryCounter returns a counter confirming rest after StationaryHold samples.
func NewStationaryCounter() *StationaryCounter {
	return &StationaryCounter{Hold: StationaryHold}
}

// Observe records one classification and reports whether rest is confirmed.
func (c *StationaryCounter) Observe(atRest bool) bool {
	if atRest {
		c.count++
	} else {
		c.count = 0
	}
	return c.Confirmed()
}

// Confirmed reports whether the run length has reached Hold.
func (c *StationaryCounter) Confirmed() bool { return c.count >= c.Hold }

// Count returns the current run length.
func (c *StationaryCounter) Count() int { return c.count }
