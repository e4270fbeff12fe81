// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/relabs-tech/iio_attitude/internal/config"
	"github.com/relabs-tech/iio_attitude/internal/state"
)

// formatSnapshot renders one console line for a snapshot.
func formatSnapshot(s state.Snapshot) string {
	motion := "moving"
	if s.Stationary {
		motion = "still"
	}
	return fmt.Sprintf(
		"[ATT]  ROLL=%7.2f  PITCH=%7.2f  YAW=%7.2f  trust=%.2f  fps=%6.1f  %s",
		s.Euler[0], s.Euler[1], s.Euler[2], s.Trust, s.FPS, motion,
	)
}

// RunConsoleMQTT prints every snapshot published on TopicAttitude to out
// until ctx is done.
func RunConsoleMQTT(ctx context.Context, cfg *config.Config, out io.Writer, logger *zap.SugaredLogger) error {
	client, err := connectMQTT(cfg, cfg.MQTTClientIDConsole)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	logger.Infow("connected to MQTT broker", "broker", cfg.MQTTBroker)

	token := client.Subscribe(cfg.TopicAttitude, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s state.Snapshot
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			logger.Warnw("snapshot unmarshal error", "error", err)
			return
		}
		fmt.Fprintln(out, formatSnapshot(s))
	})
	if token.Wait() && token.Error() != nil {
		return token.Error()
	}
	logger.Infow("subscribed", "topic", cfg.TopicAttitude)

	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}
