// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/relabs-tech/iio_attitude/internal/config"
	"github.com/relabs-tech/iio_attitude/internal/iio"
	"github.com/relabs-tech/iio_attitude/internal/imu"
	"github.com/relabs-tech/iio_attitude/internal/sensors"
)

// describeLayout prints one row per field in frame order.
func describeLayout(w io.Writer, l *iio.Layout) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CHANNEL\tINDEX\tOFFSET\tBYTES\tTYPE")
	for _, f := range l.Fields {
		sign := "u"
		if f.Signed {
			sign = "s"
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%s%d/%d>>%d %s\n",
			f.Name, f.Index, f.Offset, f.Size(),
			sign, f.RealBits, f.StorageBits, f.Shift, f.Order)
	}
	fmt.Fprintf(tw, "frame\t\t\t%d\t\n", l.Size)
	return tw.Flush()
}

func formatSample(raw imu.Raw, s imu.Scaled) string {
	return fmt.Sprintf(
		"ts=%d  raw a=(%.0f %.0f %.0f) g=(%.0f %.0f %.0f)  acc=(%7.3f %7.3f %7.3f) m/s²  gyr=(%7.4f %7.4f %7.4f) rad/s",
		raw.Timestamp, raw.Ax, raw.Ay, raw.Az, raw.Gx, raw.Gy, raw.Gz,
		s.Accel.X, s.Accel.Y, s.Accel.Z, s.Gyro.X, s.Gyro.Y, s.Gyro.Z,
	)
}

// RunChannelDebug prints the device's channel layout and scales, then
// reads and prints frames samples from the configured source.
func RunChannelDebug(cfg *config.Config, frames int, out io.Writer, logger *zap.SugaredLogger) error {
	if cfg.SampleSource != "mock" {
		dev := iio.Device{Dir: cfg.IIODeviceDir}
		l, err := dev.ResolveLayout()
		if err != nil {
			return fmt.Errorf("resolve layout: %w", err)
		}
		fmt.Fprintf(out, "device %s\n", dev.Dir)
		if err := describeLayout(out, l); err != nil {
			return err
		}
	}

	src, err := sensors.New(cfg, clock.New(), logger)
	if err != nil {
		return err
	}
	defer src.Close()

	scales := src.Scales()
	fmt.Fprintf(out, "scales accel=%g gyro=%g (trim %g)\n", scales.Accel, scales.Gyro, cfg.GyroScaleTrim)

	for i := 0; i < frames; {
		raw, err := src.Next()
		if err != nil {
			if sensors.IsTransient(err) {
				logger.Debugw("skipping sample", "error", err)
				continue
			}
			return err
		}
		fmt.Fprintln(out, formatSample(raw, scales.Apply(raw)))
		i++
	}
	return nil
}
