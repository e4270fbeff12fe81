// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package fusion

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"github.com/relabs-tech/iio_attitude/internal/imu"
	"github.com/relabs-tech/iio_attitude/internal/orientation"
	"github.com/relabs-tech/iio_attitude/internal/state"
)

// Output is the result of one filter step.
type Output struct {
	Q     quat.Number
	Pose  orientation.Pose // degrees
	Trust float64
	Kp    float64 // gain actually used
	// Stationary is the debounced rest state, not the raw classification.
	Stationary   bool
	GyroDebiased r3.Vector
	Accel        r3.Vector
	DT           float64
}

// Attitude owns the orientation estimate and the gyro bias. It is not
// safe for concurrent use; one estimation loop drives it.
type Attitude struct {
	q       quat.Number
	bias    r3.Vector
	mahony  Mahony
	counter *StationaryCounter

	lastTS int64
	haveTS bool
}

// NewAttitude starts from a calibration result.
func NewAttitude(c Calibration) *Attitude {
	return &Attitude{
		q:       orientation.Normalize(c.Q),
		bias:    c.Bias,
		counter: NewStationaryCounter(),
	}
}

// Q returns the current orientation.
func (a *Attitude) Q() quat.Number { return a.q }

// Bias returns the current gyro bias estimate (rad/s).
func (a *Attitude) Bias() r3.Vector { return a.bias }

// Step runs one filter cycle on a scaled sample using the given
// parameters.
//
// The sample is debiased with the bias as it stood at the start of the
// cycle. Rest is classified on the debiased rate; once confirmed the bias
// tracks the raw rate with weight BiasAlpha, effective from the next
// cycle.
func (a *Attitude) Step(s imu.Scaled, p state.FilterParams) Output {
	dt := StepDT(a.lastTS, s.Timestamp, a.haveTS)
	a.lastTS, a.haveTS = s.Timestamp, true

	gyr := s.Gyro.Sub(a.bias)
	trust := AccelTrust(s.Accel)
	kp := EffectiveKp(p, trust)

	confirmed := a.counter.Observe(IsStationary(gyr, s.Accel, p.GyroThresh, p.AccGThresh))
	if confirmed {
		a.bias = a.bias.Mul(1 - p.BiasAlpha).Add(s.Gyro.Mul(p.BiasAlpha))
	}

	a.q = a.mahony.Update(a.q, gyr, s.Accel, kp, p.Ki, dt)

	return Output{
		Q:            a.q,
		Pose:         orientation.ToPose(a.q),
		Trust:        trust,
		Kp:           kp,
		Stationary:   confirmed,
		GyroDebiased: gyr,
		Accel:        s.Accel,
		DT:           dt,
	}
}

// Snapshot builds the published record for o. ts and fps come from the
// publisher.
func (o Output) Snapshot(ts int64, fps float64) state.Snapshot {
	return state.Snapshot{
		Q:          orientation.Array(o.Q),
		Euler:      [3]float64{o.Pose.Roll, o.Pose.Pitch, o.Pose.Yaw},
		Acc:        [3]float64{o.Accel.X, o.Accel.Y, o.Accel.Z},
		Gyr:        [3]float64{o.GyroDebiased.X, o.GyroDebiased.Y, o.GyroDebiased.Z},
		Timestamp:  ts,
		FPS:        fps,
		Trust:      o.Trust,
		Stationary: o.Stationary,
		Moving:     !o.Stationary,
	}
}
