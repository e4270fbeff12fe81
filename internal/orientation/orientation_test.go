package orientation

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/num/quat"
	"go.viam.com/test"
)

func TestComputePoseFromAccel(t *testing.T) {
	p := ComputePoseFromAccel(0, 0, 9.81)
	test.That(t, p, test.ShouldResemble, Pose{})

	p = ComputePoseFromAccel(0, 9.81, 0)
	test.That(t, p.Roll, test.ShouldAlmostEqual, 90)
	test.That(t, p.Pitch, test.ShouldAlmostEqual, 0)

	p = ComputePoseFromAccel(-9.81, 0, 0)
	test.That(t, p.Pitch, test.ShouldAlmostEqual, 90)
}

func TestEulerRoundTrip(t *testing.T) {
	for _, p := range []Pose{
		{},
		{Roll: 30},
		{Pitch: -45},
		{Yaw: 120},
		{Roll: 10, Pitch: 20, Yaw: -30},
		{Roll: -170, Pitch: 60, Yaw: 90},
	} {
		q := FromPose(p)
		test.That(t, quat.Abs(q), test.ShouldAlmostEqual, 1, 1e-12)
		got := ToPose(q)
		test.That(t, got.Roll, test.ShouldAlmostEqual, p.Roll, 1e-9)
		test.That(t, got.Pitch, test.ShouldAlmostEqual, p.Pitch, 1e-9)
		test.That(t, got.Yaw, test.ShouldAlmostEqual, p.Yaw, 1e-9)
	}
}

func TestFromEulerIdentity(t *testing.T) {
	test.That(t, FromEuler(0, 0, 0), test.ShouldResemble, Identity)
}

func TestToPoseGimbalLock(t *testing.T) {
	p := ToPose(FromEuler(0, math.Pi/2, 0))
	test.That(t, math.IsNaN(p.Pitch), test.ShouldBeFalse)
	test.That(t, p.Pitch, test.ShouldAlmostEqual, 90, 1e-6)
}

func TestNormalize(t *testing.T) {
	q := Normalize(quat.Number{Real: 2, Imag: 0, Jmag: 0, Kmag: 0})
	test.That(t, q, test.ShouldResemble, Identity)

	q = Normalize(quat.Number{Real: 1, Imag: 1, Jmag: 1, Kmag: 1})
	test.That(t, quat.Abs(q), test.ShouldAlmostEqual, 1, 1e-15)

	test.That(t, Normalize(quat.Number{}), test.ShouldResemble, Identity)
	test.That(t, Array(Identity), test.ShouldResemble, [4]float64{1, 0, 0, 0})
}
