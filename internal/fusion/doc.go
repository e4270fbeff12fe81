// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package fusion turns scaled accel+gyro samples into an attitude
// quaternion: startup calibration, stationary detection with hysteresis,
// gyro bias tracking and a gain-scheduled Mahony filter.
package fusion

// Gravity is standard gravity in m/s².
const Gravity = 9.80665
