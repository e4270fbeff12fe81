// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package fusion

import (
	"errors"
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"github.com/relabs-tech/iio_attitude/internal/imu"
	"github.com/relabs-tech/iio_attitude/internal/orientation"
)

// MaxInitialBias is the largest mean gyro rate accepted as bias at
// startup. A larger mean means the body was moving during calibration.
const MaxInitialBias = 0.1 // rad/s

// ErrNoCalibrationSamples is returned when the calibration window was empty.
var ErrNoCalibrationSamples = errors.New("fusion: no calibration samples")

// Calibration is the result of the startup rest window.
type Calibration struct {
	MeanAccel r3.Vector
	MeanGyro  r3.Vector
	Bias      r3.Vector
	Q         quat.Number
	Samples   int
	// BiasRejected is set when MeanGyro exceeded MaxInitialBias.
	BiasRejected bool
}

// Calibrate averages samples taken at rest. The initial quaternion comes
// from the mean gravity vector alone (yaw = 0).
func Calibrate(samples []imu.Scaled) (Calibration, error) {
	if len(samples) == 0 {
		return Calibration{}, ErrNoCalibrationSamples
	}

	var acc, gyr r3.Vector
	for _, s := range samples {
		acc = acc.Add(s.Accel)
		gyr = gyr.Add(s.Gyro)
	}
	n := float64(len(samples))
	c := Calibration{
		MeanAccel: acc.Mul(1 / n),
		MeanGyro:  gyr.Mul(1 / n),
		Samples:   len(samples),
	}

	c.Bias = c.MeanGyro
	if c.MeanGyro.Norm() > MaxInitialBias {
		c.Bias = r3.Vector{}
		c.BiasRejected = true
	}

	a := c.MeanAccel
	roll := math.Atan2(a.Y, a.Z)
	pitch := math.Atan2(-a.X, math.Sqrt(a.Y*a.Y+a.Z*a.Z))
	c.Q = orientation.FromEuler(roll, pitch, 0)
	return c, nil
}

// Pose returns the initial orientation in degrees.
func (c Calibration) Pose() orientation.Pose { return orientation.ToPose(c.Q) }
