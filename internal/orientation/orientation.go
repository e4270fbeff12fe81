package orientation

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// Pose is the canonical Euler representation of orientation, in degrees.
type Pose struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// Identity is the unit quaternion with no rotation.
var Identity = quat.Number{Real: 1}

// ComputePoseFromAccel computes roll and pitch from accelerometer data only.
// Yaw is unobservable without a heading reference and is set to 0.
//
// Uses simple tilt formulas:
//
//	roll  = atan2(ay, az)
//	pitch = atan2(-ax, sqrt(ay² + az²))
func ComputePoseFromAccel(ax, ay, az float64) Pose {
	rollRad := math.Atan2(ay, az)
	pitchRad := math.Atan2(-ax, math.Sqrt(ay*ay+az*az))

	return Pose{
		Roll:  rollRad * 180.0 / math.Pi,
		Pitch: pitchRad * 180.0 / math.Pi,
		Yaw:   0,
	}
}

// FromEuler composes a unit quaternion from ZYX Euler angles in radians.
func FromEuler(roll, pitch, yaw float64) quat.Number {
	cr, sr := math.Cos(roll*0.5), math.Sin(roll*0.5)
	cp, sp := math.Cos(pitch*0.5), math.Sin(pitch*0.5)
	cy, sy := math.Cos(yaw*0.5), math.Sin(yaw*0.5)

	return Normalize(quat.Number{
		Real: cr*cp*cy + sr*sp*sy,
		Imag: sr*cp*cy - cr*sp*sy,
		Jmag: cr*sp*cy + sr*cp*sy,
		Kmag: cr*cp*sy - sr*sp*cy,
	})
}

// FromPose is FromEuler for a Pose in degrees.
func FromPose(p Pose) quat.Number {
	return FromEuler(p.Roll*math.Pi/180, p.Pitch*math.Pi/180, p.Yaw*math.Pi/180)
}

// ToPose returns the ZYX Euler angles of q in degrees.
func ToPose(q quat.Number) Pose {
	q = Normalize(q)
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag

	roll := math.Atan2(2*(w*x+y*z), 1-2*(x*x+y*y))
	sinp := 2 * (w*y - z*x)
	// clamp: rounding can push |sinp| slightly past 1 at gimbal lock
	sinp = math.Max(-1, math.Min(1, sinp))
	pitch := math.Asin(sinp)
	yaw := math.Atan2(2*(w*z+x*y), 1-2*(y*y+z*z))

	return Pose{
		Roll:  roll * 180 / math.Pi,
		Pitch: pitch * 180 / math.Pi,
		Yaw:   yaw * 180 / math.Pi,
	}
}

// Normalize scales q to unit length. A zero quaternion becomes Identity.
func Normalize(q quat.Number) quat.Number {
	n := quat.Abs(q)
	if n == 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return Identity
	}
	return quat.Scale(1/n, q)
}

// Array returns q as [w, x, y, z].
func Array(q quat.Number) [4]float64 {
	return [4]float64{q.Real, q.Imag, q.Jmag, q.Kmag}
}
