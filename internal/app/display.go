// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/iio_attitude/internal/config"
	"github.com/relabs-tech/iio_attitude/internal/state"
)

const (
	displayW = 128
	displayH = 64
)

// addrBus sends every transaction to addr. The ssd1306 driver always
// talks to 0x3C; panels strapped to 0x3D need the redirect.
type addrBus struct {
	i2c.Bus
	addr uint16
}

func (b addrBus) Tx(_ uint16, w, r []byte) error { return b.Bus.Tx(b.addr, w, r) }

// displayData holds the latest snapshot received over MQTT.
type displayData struct {
	mu   sync.RWMutex
	snap state.Snapshot
	have bool
}

func (d *displayData) set(s state.Snapshot) {
	d.mu.Lock()
	d.snap = s
	d.have = true
	d.mu.Unlock()
}

func (d *displayData) get() (state.Snapshot, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.snap, d.have
}

// RunDisplay shows the attitude published on TopicAttitude on an SSD1306
// OLED until ctx is done.
func RunDisplay(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	bus, err := i2creg.Open(cfg.DisplayI2CBus)
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	dev, err := ssd1306.NewI2C(addrBus{Bus: bus, addr: cfg.DisplayI2CAddr}, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	defer dev.Halt()
	logger.Infow("display initialized", "bus", bus.String(), "addr", fmt.Sprintf("0x%02X", cfg.DisplayI2CAddr))

	if err := dev.Draw(dev.Bounds(), renderSplash(), image.Point{}); err != nil {
		logger.Warnw("error showing splash", "error", err)
	}

	client, err := connectMQTT(cfg, cfg.MQTTClientIDDisplay)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	logger.Infow("connected to MQTT broker", "broker", cfg.MQTTBroker)

	data := &displayData{}
	token := client.Subscribe(cfg.TopicAttitude, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s state.Snapshot
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			logger.Debugw("snapshot unmarshal error", "error", err)
			return
		}
		data.set(s)
	})
	if token.Wait() && token.Error() != nil {
		return token.Error()
	}
	logger.Infow("subscribed", "topic", cfg.TopicAttitude)

	ticker := time.NewTicker(cfg.DisplayUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			snap, have := data.get()
			if err := dev.Draw(dev.Bounds(), renderAttitude(snap, have), image.Point{}); err != nil {
				logger.Warnw("error updating display", "error", err)
			}
		}
	}
}

func newDrawer() (*image1bit.VerticalLSB, *font.Drawer) {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, displayW, displayH))
	return img, &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
}

func drawLine(d *font.Drawer, x, y int, s string) {
	d.Dot = fixed.P(x, y)
	d.DrawString(s)
}

// renderAttitude draws roll, pitch and yaw plus the accel trust and
// motion state.
func renderAttitude(snap state.Snapshot, have bool) *image1bit.VerticalLSB {
	img, d := newDrawer()

	if !have {
		drawLine(d, 0, 26, "Attitude")
		drawLine(d, 0, 39, "Waiting...")
		return img
	}

	motion := "MOVING"
	if snap.Stationary {
		motion = "STILL"
	}
	drawLine(d, 0, 13, fmt.Sprintf("R: %6.1f", snap.Euler[0]))
	drawLine(d, 0, 26, fmt.Sprintf("P: %6.1f", snap.Euler[1]))
	drawLine(d, 0, 39, fmt.Sprintf("Y: %6.1f", snap.Euler[2]))
	drawLine(d, 0, 52, fmt.Sprintf("T:%.2f %s", snap.Trust, motion))
	return img
}

func renderSplash() *image1bit.VerticalLSB {
	img, d := newDrawer()
	drawLine(d, 10, 26, "IIO Attitude")
	drawLine(d, 5, 43, "Calibrating")
	drawLine(d, 25, 56, "hold still")
	return img
}
