package imu

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestScalesApply(t *testing.T) {
	s := Scales{Accel: 0.5, Gyro: 0.25}
	out := s.Apply(Raw{Ax: 2, Ay: -4, Az: 20, Gx: 4, Gy: 0, Gz: -2, Timestamp: 77})
	test.That(t, out.Accel, test.ShouldResemble, r3.Vector{X: 1, Y: -2, Z: 10})
	test.That(t, out.Gyro, test.ShouldResemble, r3.Vector{X: 1, Y: 0, Z: -0.5})
	test.That(t, out.Timestamp, test.ShouldEqual, int64(77))
}
