package app

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
	"go.viam.com/test"

	"github.com/relabs-tech/iio_attitude/internal/config"
	"github.com/relabs-tech/iio_attitude/internal/sensors"
	"github.com/relabs-tech/iio_attitude/internal/state"
)

func mockConfig() *config.Config {
	cfg := config.Default()
	cfg.SampleSource = "mock"
	cfg.PollInterval = time.Millisecond
	cfg.FlushDuration = 0
	cfg.CalibrationDuration = 50 * time.Millisecond
	cfg.WSListenAddr = "127.0.0.1:0"
	return cfg
}

func TestRunAttitudeServerMock(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- RunAttitudeServer(ctx, mockConfig(), zaptest.NewLogger(t).Sugar()) }()

	time.Sleep(200 * time.Millisecond)
	cancel()
	select {
	case err := <-errCh:
		test.That(t, err, test.ShouldBeNil)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestRunAttitudeServerBadSource(t *testing.T) {
	cfg := mockConfig()
	cfg.SampleSource = "stream"
	cfg.IIODeviceDir = t.TempDir()
	err := RunAttitudeServer(context.Background(), cfg, zaptest.NewLogger(t).Sugar())
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "open sample source")
}

func TestRunMockConsole(t *testing.T) {
	out := &syncBuffer{}
	ctx, cancel := context.WithTimeout(context.Background(), 400*time.Millisecond)
	defer cancel()

	test.That(t, RunMockConsole(ctx, mockConfig(), out, zaptest.NewLogger(t).Sugar()), test.ShouldBeNil)
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	test.That(t, len(lines), test.ShouldBeGreaterThanOrEqualTo, 1)
	test.That(t, lines[0], test.ShouldStartWith, "ROLL=")
}


func TestServeKeepsEstimatingWhenTransportFails(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core).Sugar()

	clk := clock.New()
	src := sensors.NewMockSource(clk, time.Millisecond, 0)
	est := NewEstimator(src, state.NewParamStore(state.DefaultFilterParams()), clk, 0, 50*time.Millisecond, logger)
	test.That(t, est.Start(), test.ShouldBeNil)

	nmeaOut := NewNMEAWriter(failWriter{}, est, 10*time.Millisecond, clk, logger)
	comps := []component{
		{name: "estimator", run: est.Run},
		{name: "nmea", run: nmeaOut.Run},
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- serve(ctx, comps, logger) }()

	deadline := time.Now().Add(2 * time.Second)
	for logs.FilterMessage("component stopped").Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	stopped := logs.FilterMessage("component stopped").All()
	test.That(t, len(stopped), test.ShouldEqual, 1)
	test.That(t, stopped[0].ContextMap()["component"], test.ShouldEqual, "nmea")

	before := est.Snapshot().Timestamp
	time.Sleep(100 * time.Millisecond)
	test.That(t, est.Snapshot().Timestamp, test.ShouldBeGreaterThan, before)

	select {
	case err := <-errCh:
		t.Fatalf("serve returned before cancel: %v", err)
	default:
	}

	cancel()
	select {
	case err := <-errCh:
		test.That(t, err, test.ShouldBeNil)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop")
	}
	test.That(t, logs.FilterMessage("component stopped").Len(), test.ShouldEqual, 1)
}

func TestRunAttitudeServerListenFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	test.That(t, err, test.ShouldBeNil)
	defer ln.Close()

	cfg := mockConfig()
	cfg.WSListenAddr = ln.Addr().String()
	err = RunAttitudeServer(context.Background(), cfg, zaptest.NewLogger(t).Sugar())
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "listen")
}
