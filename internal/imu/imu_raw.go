package imu

import "github.com/golang/geo/r3"

// Raw represents a single raw accel+gyro sample in driver units.
// Stream sources fill integer counts, poll sources whatever the raw
// attribute holds.
type Raw struct {
	Ax float64 `json:"ax"` // accel
	Ay float64 `json:"ay"`
	Az float64 `json:"az"`

	Gx float64 `json:"gx"` // gyro
	Gy float64 `json:"gy"`
	Gz float64 `json:"gz"`

	Timestamp int64 `json:"ts"` // ns, hardware counter or clock
}

// Scales converts raw units to m/s² (accel) and rad/s (gyro).
type Scales struct {
	Accel float64 `json:"accel"`
	Gyro  float64 `json:"gyro"`
}

// Scaled is a sample in physical units.
type Scaled struct {
	Accel     r3.Vector // m/s²
	Gyro      r3.Vector // rad/s
	Timestamp int64
}

// Apply converts a raw sample to physical units.
func (s Scales) Apply(r Raw) Scaled {
	return Scaled{
		Accel:     r3.Vector{X: r.Ax, Y: r.Ay, Z: r.Az}.Mul(s.Accel),
		Gyro:      r3.Vector{X: r.Gx, Y: r.Gy, Z: r.Gz}.Mul(s.Gyro),
		Timestamp: r.Timestamp,
	}
}
