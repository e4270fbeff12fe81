// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package state

import (
	"time"

	"github.com/benbjohnson/clock"
)

const (
	// PublishEvery is the number of filter cycles per snapshot.
	PublishEvery = 5
	// FPSWindow is the minimum span over which the loop rate is measured.
	FPSWindow = time.Second
)

// Throttle decides which filter cycles publish a snapshot and measures
// the loop rate.
type Throttle struct {
	clk         clock.Clock
	every       int
	cycles      int
	windowCount int
	windowStart time.Time
	fps         float64
}

// NewThrottle starts the fps window at clk.Now().
func NewThrottle(clk clock.Clock) *Throttle {
	return &Throttle{clk: clk, every: PublishEvery, windowStart: clk.Now()}
}

// Cycle records one filter cycle. On every PublishEvery-th cycle it
// returns publish=true and the current rate. The rate is recomputed only
// once FPSWindow has passed since the window start; until then the
// previous value is returned.
func (t *Throttle) Cycle() (publish bool, fps float64) {
	t.cycles++
	t.windowCount++
	if t.cycles%t.every != 0 {
		return false, t.fps
	}

	now := t.clk.Now()
	if elapsed := now.Sub(t.windowStart); elapsed >= FPSWindow {
		t.fps = float64(t.windowCount) / elapsed.Seconds()
		t.windowCount = 0
		t.windowStart = now
	}
	return true, t.fps
}

// FPS returns the last measured rate.
func (t *Throttle) FPS() float64 { return t.fps }
