// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"math"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/relabs-tech/iio_attitude/internal/imu"
	"github.com/relabs-tech/iio_attitude/internal/orientation"
)

const standardGravity = 9.80665

// MockSource synthesises a body swaying in roll and pitch while turning
// slowly in yaw. The body rests at the t=0 pose for hold after warmup so
// calibration sees a still sensor. Samples are already in physical units.
type MockSource struct {
	clk      clock.Clock
	start    time.Time
	interval time.Duration
	hold     time.Duration
	started  bool
	closed   bool
}

// NewMockSource creates a mock source producing one sample per interval
// that starts moving hold after warmup.
func NewMockSource(clk clock.Clock, interval, hold time.Duration) *MockSource {
	return &MockSource{clk: clk, start: clk.Now(), interval: interval, hold: hold}
}

// motionTime returns the seconds of motion at now and whether the hold
// is over.
func (m *MockSource) motionTime(now time.Time) (float64, bool) {
	d := now.Sub(m.start) - m.hold
	if d <= 0 {
		return 0, false
	}
	return d.Seconds(), true
}

// MockPose returns the synthetic attitude t seconds after start.
func MockPose(t float64) orientation.Pose {
	return orientation.Pose{
		Roll:  20 * math.Sin(t),
		Pitch: 15 * math.Cos(t*0.7),
		Yaw:   math.Mod(t*30, 360),
	}
}

// Truth returns the synthetic pose at the current clock time.
func (m *MockSource) Truth() orientation.Pose {
	t, _ := m.motionTime(m.clk.Now())
	return MockPose(t)
}

// Warmup idles for d and restarts the hold and the motion.
func (m *MockSource) Warmup(d time.Duration) error {
	m.clk.Sleep(d)
	m.start = m.clk.Now()
	return nil
}

// Next returns the sample for the current clock time.
func (m *MockSource) Next() (imu.Raw, error) {
	if m.closed {
		return imu.Raw{}, ErrClosed
	}
	if m.started {
		m.clk.Sleep(m.interval)
	}
	m.started = true

	now := m.clk.Now()
	t, moving := m.motionTime(now)
	deg := math.Pi / 180

	p := MockPose(t)
	roll, pitch := p.Roll*deg, p.Pitch*deg
	// Euler angle rates
	var rollDot, pitchDot, yawDot float64
	if moving {
		rollDot = 20 * math.Cos(t) * deg
		pitchDot = -15 * 0.7 * math.Sin(t*0.7) * deg
		yawDot = 30 * deg
	}

	sr, cr := math.Sincos(roll)
	sp, cp := math.Sincos(pitch)

	return imu.Raw{
		Ax: -standardGravity * sp,
		Ay: standardGravity * sr * cp,
		Az: standardGravity * cr * cp,

		Gx: rollDot - yawDot*sp,
		Gy: pitchDot*cr + yawDot*sr*cp,
		Gz: -pitchDot*sr + yawDot*cr*cp,

		Timestamp: now.UnixNano(),
	}, nil
}

// Scales returns unit factors.
func (m *MockSource) Scales() imu.Scales { return imu.Scales{Accel: 1, Gyro: 1} }

// Close stops the source.
func (m *MockSource) Close() error {
	m.closed = true
	return nil
}
