// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/relabs-tech/iio_attitude/internal/state"
)

// Message types on the websocket and MQTT transports.
const (
	MsgIMUUpdate = "imu_update"
	MsgParams    = "params"
)

var errNotParams = errors.New("not a params message")

// Envelope wraps every transport message.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// encodeUpdate builds an imu_update message for snap.
func encodeUpdate(snap state.Snapshot) ([]byte, error) {
	payload, err := json.Marshal(snap)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: MsgIMUUpdate, Payload: payload})
}

// decodeParams extracts the name → value map of a params message.
func decodeParams(data []byte) (map[string]any, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	if env.Type != MsgParams {
		return nil, fmt.Errorf("%q: %w", env.Type, errNotParams)
	}
	var values map[string]any
	if err := json.Unmarshal(env.Payload, &values); err != nil {
		return nil, fmt.Errorf("decode params payload: %w", err)
	}
	return values, nil
}
