package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap/zaptest"
	"go.viam.com/test"

	"github.com/relabs-tech/iio_attitude/internal/fusion"
	"github.com/relabs-tech/iio_attitude/internal/imu"
	"github.com/relabs-tech/iio_attitude/internal/sensors"
	"github.com/relabs-tech/iio_attitude/internal/state"
)

// fakeSource returns samples from gen and advances the mock clock by
// step on every call.
type fakeSource struct {
	mu     sync.Mutex
	clk    *clock.Mock
	step   time.Duration
	calls  int
	gen    func(call int) (imu.Raw, error)
	closed bool
}

func (f *fakeSource) Warmup(d time.Duration) error {
	f.clk.Add(d)
	return nil
}

func (f *fakeSource) Next() (imu.Raw, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.mu.Unlock()
	f.clk.Add(f.step)
	return f.gen(call)
}

func (f *fakeSource) Scales() imu.Scales { return imu.Scales{Accel: 1, Gyro: 1} }

func (f *fakeSource) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *fakeSource) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func restGen(clk *clock.Mock) func(int) (imu.Raw, error) {
	return func(int) (imu.Raw, error) {
		return imu.Raw{Az: fusion.Gravity, Timestamp: clk.Now().UnixNano()}, nil
	}
}

func newTestEstimator(t *testing.T, src *fakeSource) *Estimator {
	t.Helper()
	return NewEstimator(src, state.NewParamStore(state.DefaultFilterParams()), src.clk,
		500*time.Millisecond, time.Second, zaptest.NewLogger(t).Sugar())
}

func TestEstimatorStartCalibrates(t *testing.T) {
	clk := clock.NewMock()
	src := &fakeSource{clk: clk, step: 10 * time.Millisecond}
	src.gen = func(int) (imu.Raw, error) {
		return imu.Raw{Az: fusion.Gravity, Gx: 0.01, Timestamp: clk.Now().UnixNano()}, nil
	}
	e := newTestEstimator(t, src)

	test.That(t, e.Start(), test.ShouldBeNil)
	c := e.Calibration()
	test.That(t, c.Samples, test.ShouldEqual, 100)
	test.That(t, c.Bias.X, test.ShouldAlmostEqual, 0.01, 1e-12)
	test.That(t, c.Pose().Roll, test.ShouldAlmostEqual, 0.0, 1e-9)

	// nothing published before the loop runs
	test.That(t, e.Snapshot().Q, test.ShouldResemble, [4]float64{1, 0, 0, 0})
	test.That(t, e.Snapshot().Timestamp, test.ShouldEqual, int64(0))
}

func TestEstimatorStartSkipsTransient(t *testing.T) {
	clk := clock.NewMock()
	src := &fakeSource{clk: clk, step: 10 * time.Millisecond}
	src.gen = func(call int) (imu.Raw, error) {
		if call%2 == 0 {
			return imu.Raw{}, sensors.ErrShortRead
		}
		return imu.Raw{Az: fusion.Gravity, Timestamp: clk.Now().UnixNano()}, nil
	}
	e := newTestEstimator(t, src)

	test.That(t, e.Start(), test.ShouldBeNil)
	test.That(t, e.Calibration().Samples, test.ShouldEqual, 50)
}

func TestEstimatorStartFailures(t *testing.T) {
	clk := clock.NewMock()
	src := &fakeSource{clk: clk, step: 10 * time.Millisecond}
	src.gen = func(int) (imu.Raw, error) { return imu.Raw{}, sensors.ErrShortRead }
	err := newTestEstimator(t, src).Start()
	test.That(t, errors.Is(err, fusion.ErrNoCalibrationSamples), test.ShouldBeTrue)

	src = &fakeSource{clk: clk, step: 10 * time.Millisecond}
	src.gen = func(int) (imu.Raw, error) { return imu.Raw{}, errors.New("device unplugged") }
	err = newTestEstimator(t, src).Start()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "device unplugged")

	e := newTestEstimator(t, src)
	test.That(t, e.Run(context.Background()), test.ShouldNotBeNil)
}

func runUntil(t *testing.T, e *Estimator, cond func(state.Snapshot) bool) <-chan error {
	t.Helper()
	errCh := make(chan error, 1)
	go func() { errCh <- e.Run(context.Background()) }()

	deadline := time.Now().Add(5 * time.Second)
	for !cond(e.Snapshot()) {
		if time.Now().After(deadline) {
			e.Shutdown()
			t.Fatalf("condition not reached, last snapshot %+v", e.Snapshot())
		}
		time.Sleep(time.Millisecond)
	}
	return errCh
}

func TestEstimatorPublishesAndShutsDown(t *testing.T) {
	clk := clock.NewMock()
	src := &fakeSource{clk: clk, step: 10 * time.Millisecond}
	src.gen = restGen(clk)
	e := newTestEstimator(t, src)
	test.That(t, e.Start(), test.ShouldBeNil)

	errCh := runUntil(t, e, func(s state.Snapshot) bool { return s.Stationary && s.FPS > 0 })

	snap := e.Snapshot()
	test.That(t, snap.Moving, test.ShouldBeFalse)
	test.That(t, snap.Trust, test.ShouldAlmostEqual, 1.0, 1e-9)
	test.That(t, snap.Acc[2], test.ShouldEqual, fusion.Gravity)
	test.That(t, snap.Euler[0], test.ShouldAlmostEqual, 0.0, 1e-6)
	// one sample per 10 ms of mock time
	test.That(t, snap.FPS, test.ShouldAlmostEqual, 100.0, 1e-6)

	e.Shutdown()
	test.That(t, <-errCh, test.ShouldBeNil)
	test.That(t, src.isClosed(), test.ShouldBeTrue)
}

func TestEstimatorStopsOnContextCancel(t *testing.T) {
	clk := clock.NewMock()
	src := &fakeSource{clk: clk, step: time.Millisecond}
	src.gen = restGen(clk)
	e := newTestEstimator(t, src)
	test.That(t, e.Start(), test.ShouldBeNil)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- e.Run(ctx) }()
	cancel()
	test.That(t, <-errCh, test.ShouldBeNil)
	test.That(t, src.isClosed(), test.ShouldBeTrue)
}

func TestEstimatorFaultFreezesSnapshot(t *testing.T) {
	clk := clock.NewMock()
	src := &fakeSource{clk: clk, step: 10 * time.Millisecond}
	failAfter := 0
	src.gen = func(call int) (imu.Raw, error) {
		if failAfter > 0 && call > failAfter {
			return imu.Raw{}, fmt.Errorf("i/o error")
		}
		if call%3 == 0 {
			return imu.Raw{}, sensors.ErrShortRead
		}
		return imu.Raw{Az: fusion.Gravity, Timestamp: clk.Now().UnixNano()}, nil
	}
	e := newTestEstimator(t, src)
	test.That(t, e.Start(), test.ShouldBeNil)
	failAfter = src.calls + 200

	errCh := make(chan error, 1)
	go func() { errCh <- e.Run(context.Background()) }()
	err := <-errCh
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "i/o error")

	frozen := e.Snapshot()
	test.That(t, frozen.Timestamp, test.ShouldNotEqual, int64(0))
	test.That(t, e.Snapshot(), test.ShouldResemble, frozen)
	test.That(t, src.isClosed(), test.ShouldBeTrue)
}

func TestEstimatorRecoversPanic(t *testing.T) {
	clk := clock.NewMock()
	src := &fakeSource{clk: clk, step: 10 * time.Millisecond}
	calib := true
	src.gen = func(int) (imu.Raw, error) {
		if !calib {
			panic("driver bug")
		}
		return imu.Raw{Az: fusion.Gravity, Timestamp: clk.Now().UnixNano()}, nil
	}
	e := newTestEstimator(t, src)
	test.That(t, e.Start(), test.ShouldBeNil)
	calib = false

	err := e.Run(context.Background())
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "driver bug")
	test.That(t, src.isClosed(), test.ShouldBeTrue)
}

func TestEstimatorApplyParameter(t *testing.T) {
	clk := clock.NewMock()
	src := &fakeSource{clk: clk, step: 10 * time.Millisecond, gen: restGen(clk)}
	e := newTestEstimator(t, src)

	test.That(t, e.ApplyParameter(state.ParamKp, 0.8), test.ShouldBeNil)
	test.That(t, e.params.Get().Kp, test.ShouldEqual, 0.8)

	err := e.ApplyParameter(state.ParamKp, 100.0)
	test.That(t, errors.Is(err, state.ErrOutOfRange), test.ShouldBeTrue)
	test.That(t, e.params.Get().Kp, test.ShouldEqual, 0.8)

	rejected := e.ApplyParameters(map[string]any{state.ParamKi: 0.01, "nope": 1.0})
	test.That(t, rejected, test.ShouldHaveLength, 1)
	test.That(t, e.params.Get().Ki, test.ShouldEqual, 0.01)
}
