// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package fusion

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"github.com/relabs-tech/iio_attitude/internal/orientation"
)

// Mahony is a 6-axis Mahony complementary filter. It carries the
// integral feedback term between updates; the quaternion itself is owned
// by the caller.
type Mahony struct {
	integral r3.Vector
}

// Integral returns the accumulated integral feedback (rad/s).
func (m *Mahony) Integral() r3.Vector { return m.integral }

// Reset clears the integral term.
func (m *Mahony) Reset() { m.integral = r3.Vector{} }

// Update advances q by one step of dt seconds. gyro is in rad/s, acc in
// any unit (only its direction is used). When acc is zero the step is a
// pure gyro integration.
func (m *Mahony) Update(q quat.Number, gyro, acc r3.Vector, kp, ki, dt float64) quat.Number {
	omega := gyro

	if an := acc.Norm(); an > minAccelNorm {
		a := acc.Mul(1 / an)
		w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
		// gravity direction predicted by q, in the body frame
		v := r3.Vector{
			X: 2 * (x*z - w*y),
			Y: 2 * (y*z + w*x),
			Z: 1 - 2*(x*x+y*y),
		}
		e := a.Cross(v)

		if ki > 0 {
			m.integral = m.integral.Sub(e.Mul(ki * dt))
		}
		omega = omega.Sub(m.integral).Add(e.Mul(kp))
	}

	dq := quat.Mul(q, quat.Number{Imag: omega.X, Jmag: omega.Y, Kmag: omega.Z})
	q = quat.Add(q, quat.Scale(0.5*dt, dq))
	return orientation.Normalize(q)
}
