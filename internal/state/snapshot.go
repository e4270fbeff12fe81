// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package state

import (
	"sync"

	"github.com/relabs-tech/iio_attitude/internal/orientation"
)

// Snapshot is the published attitude record. The JSON names are what
// websocket and MQTT clients read.
type Snapshot struct {
	Q          [4]float64 `json:"q"`     // w, x, y, z
	Euler      [3]float64 `json:"euler"` // roll, pitch, yaw in degrees
	Acc        [3]float64 `json:"acc"`   // m/s²
	Gyr        [3]float64 `json:"gyr"`   // rad/s, bias removed
	Timestamp  int64      `json:"ts"`    // ns
	FPS        float64    `json:"fps"`
	Trust      float64    `json:"trust"`
	Stationary bool       `json:"stationary"`
	Moving     bool       `json:"moving"`
}

// Pose returns the Euler angles as an orientation.Pose.
func (s Snapshot) Pose() orientation.Pose {
	return orientation.Pose{Roll: s.Euler[0], Pitch: s.Euler[1], Yaw: s.Euler[2]}
}

// SnapshotStore guards the latest Snapshot. There is one writer (the
// estimation loop) and any number of readers.
type SnapshotStore struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewSnapshotStore returns a store holding the identity attitude.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{snap: Snapshot{Q: orientation.Array(orientation.Identity)}}
}

// Set replaces the snapshot.
func (s *SnapshotStore) Set(snap Snapshot) {
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
}

// Get returns a copy of the latest snapshot.
func (s *SnapshotStore) Get() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}
