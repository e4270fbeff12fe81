// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package fusion

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/relabs-tech/iio_attitude/internal/state"
)

const (
	trustSigma = 0.15

	// DefaultDT replaces a sample interval that is missing or implausible.
	DefaultDT = 0.01 // s
	// MaxDT is the longest sample interval taken at face value.
	MaxDT = 0.1 // s
)

// AccelTrust scores how closely |acc| matches gravity: 1 at exactly g,
// falling off as a Gaussian in the relative deviation.
func AccelTrust(acc r3.Vector) float64 {
	n := acc.Norm()
	if n <= minAccelNorm {
		return 0
	}
	dev := (n - Gravity) / Gravity / trustSigma
	return math.Exp(-dev * dev)
}

// EffectiveKp scales the proportional gain by accel trust when dynamic
// gain is enabled. The gain never drops below 10% of Kp.
func EffectiveKp(p state.FilterParams, trust float64) float64 {
	if !p.UseDynKp {
		return p.Kp
	}
	return p.Kp * (0.1 + 0.9*trust)
}

// StepDT returns the interval between two nanosecond timestamps in
// seconds, or DefaultDT for the first sample and for intervals that are
// non-positive or longer than MaxDT.
func StepDT(prev, cur int64, havePrev bool) float64 {
	if !havePrev {
		return DefaultDT
	}
	dt := float64(cur-prev) / 1e9
	if dt <= 0 || dt > MaxDT {
		return DefaultDT
	}
	return dt
}
