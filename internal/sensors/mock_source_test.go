package sensors

import (
	"math"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
	"go.viam.com/test"

	"github.com/relabs-tech/iio_attitude/internal/orientation"
)

func mockSampleAt(t *testing.T, sec float64) (float64, [6]float64) {
	t.Helper()
	clk := clock.NewMock()
	m := NewMockSource(clk, 10*time.Millisecond, 0)
	clk.Add(time.Duration(sec * float64(time.Second)))
	raw, err := m.Next()
	test.That(t, err, test.ShouldBeNil)
	return time.Duration(raw.Timestamp - m.start.UnixNano()).Seconds(),
		[6]float64{raw.Ax, raw.Ay, raw.Az, raw.Gx, raw.Gy, raw.Gz}
}

func TestMockAccelMatchesPose(t *testing.T) {
	for _, sec := range []float64{0, 1.3, 4.1, 7.7} {
		at, v := mockSampleAt(t, sec)
		acc := r3.Vector{X: v[0], Y: v[1], Z: v[2]}
		test.That(t, acc.Norm(), test.ShouldAlmostEqual, standardGravity, 1e-9)

		want := MockPose(at)
		got := orientation.ComputePoseFromAccel(acc.X, acc.Y, acc.Z)
		test.That(t, got.Roll, test.ShouldAlmostEqual, want.Roll, 1e-9)
		test.That(t, got.Pitch, test.ShouldAlmostEqual, want.Pitch, 1e-9)
	}
}

func TestMockGyroIsBodyRate(t *testing.T) {
	for _, sec := range []float64{1.3, 4.1} {
		at, v := mockSampleAt(t, sec)

		// ω = 2 q* ⊗ dq/dt
		const h = 1e-6
		q0 := orientation.FromPose(MockPose(at - h))
		q1 := orientation.FromPose(MockPose(at + h))
		q := orientation.FromPose(MockPose(at))
		dq := quat.Scale(1/(2*h), quat.Sub(q1, q0))
		w := quat.Scale(2, quat.Mul(quat.Conj(q), dq))

		test.That(t, v[3], test.ShouldAlmostEqual, w.Imag, 1e-6)
		test.That(t, v[4], test.ShouldAlmostEqual, w.Jmag, 1e-6)
		test.That(t, v[5], test.ShouldAlmostEqual, w.Kmag, 1e-6)
	}
}

func TestMockWarmupRestarts(t *testing.T) {
	clk := clock.NewMock()
	m := NewMockSource(clk, 10*time.Millisecond, 0)

	done := make(chan struct{})
	go func() {
		_ = m.Warmup(time.Second)
		close(done)
	}()
	for waiting := true; waiting; {
		select {
		case <-done:
			waiting = false
		default:
			clk.Add(100 * time.Millisecond)
			time.Sleep(time.Millisecond)
		}
	}

	test.That(t, m.start.Sub(time.Unix(0, 0)), test.ShouldBeGreaterThanOrEqualTo, time.Second)
	raw, err := m.Next()
	test.That(t, err, test.ShouldBeNil)
	at := time.Duration(raw.Timestamp - m.start.UnixNano()).Seconds()
	test.That(t, at, test.ShouldBeLessThan, 0.5)
	roll := math.Atan2(raw.Ay, raw.Az) * 180 / math.Pi
	test.That(t, roll, test.ShouldAlmostEqual, MockPose(at).Roll, 1e-9)
	test.That(t, m.Scales().Accel, test.ShouldEqual, 1.0)

	test.That(t, m.Close(), test.ShouldBeNil)
	_, err = m.Next()
	test.That(t, err, test.ShouldEqual, ErrClosed)
}

func TestMockHoldsStillForCalibration(t *testing.T) {
	const hold = time.Second

	clk := clock.NewMock()
	still := NewMockSource(clk, 10*time.Millisecond, hold)
	clk.Add(hold / 2)
	raw, err := still.Next()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, []float64{raw.Gx, raw.Gy, raw.Gz}, test.ShouldResemble, []float64{0, 0, 0})
	pose := orientation.ComputePoseFromAccel(raw.Ax, raw.Ay, raw.Az)
	test.That(t, pose.Roll, test.ShouldAlmostEqual, MockPose(0).Roll, 1e-9)
	test.That(t, pose.Pitch, test.ShouldAlmostEqual, MockPose(0).Pitch, 1e-9)
	test.That(t, still.Truth(), test.ShouldResemble, MockPose(0))

	clk = clock.NewMock()
	moving := NewMockSource(clk, 10*time.Millisecond, hold)
	clk.Add(hold + 1300*time.Millisecond)
	raw, err = moving.Next()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r3.Vector{X: raw.Gx, Y: raw.Gy, Z: raw.Gz}.Norm(), test.ShouldBeGreaterThan, 0.1)
	pose = orientation.ComputePoseFromAccel(raw.Ax, raw.Ay, raw.Az)
	test.That(t, pose.Roll, test.ShouldAlmostEqual, MockPose(1.3).Roll, 1e-9)
}
