// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/relabs-tech/iio_attitude/internal/config"
)

// connectMQTT connects a client with the given id to the configured broker.
func connectMQTT(cfg *config.Config, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(clientID).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("MQTT connect %s: %w", cfg.MQTTBroker, token.Error())
	}
	return client, nil
}

// MQTTBridge publishes retained snapshots and listens for params messages.
type MQTTBridge struct {
	client   mqtt.Client
	snaps    SnapshotReader
	params   ParamSink
	topic    string
	interval time.Duration
	clk      clock.Clock
	logger   *zap.SugaredLogger
}

// NewMQTTBridge connects to the broker and subscribes to the params topic.
func NewMQTTBridge(cfg *config.Config, snaps SnapshotReader, params ParamSink, clk clock.Clock, logger *zap.SugaredLogger) (*MQTTBridge, error) {
	client, err := connectMQTT(cfg, cfg.MQTTClientIDProducer)
	if err != nil {
		return nil, err
	}
	logger.Infow("connected to MQTT broker", "broker", cfg.MQTTBroker)

	b := &MQTTBridge{
		client:   client,
		snaps:    snaps,
		params:   params,
		topic:    cfg.TopicAttitude,
		interval: cfg.MQTTPublishRate.Period(),
		clk:      clk,
		logger:   logger,
	}

	token := client.Subscribe(cfg.TopicParams, 0, func(_ mqtt.Client, msg mqtt.Message) {
		b.handleParams(msg.Payload())
	})
	if token.Wait() && token.Error() != nil {
		client.Disconnect(250)
		return nil, fmt.Errorf("MQTT subscribe %s: %w", cfg.TopicParams, token.Error())
	}
	logger.Infow("subscribed", "topic", cfg.TopicParams)
	return b, nil
}

func (b *MQTTBridge) handleParams(payload []byte) {
	values, err := decodeParams(payload)
	if err != nil {
		b.logger.Debugw("ignoring params message", "error", err)
		return
	}
	b.params.ApplyParameters(values)
}

// Run publishes the latest snapshot every interval until ctx is done.
func (b *MQTTBridge) Run(ctx context.Context) error {
	defer b.client.Disconnect(250)

	ticker := b.clk.Ticker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			payload, err := json.Marshal(b.snaps.Snapshot())
			if err != nil {
				b.logger.Warnw("snapshot marshal error", "error", err)
				continue
			}
			if token := b.client.Publish(b.topic, 0, true, payload); token.Wait() && token.Error() != nil {
				b.logger.Warnw("MQTT publish error", "topic", b.topic, "error", token.Error())
			}
		}
	}
}
