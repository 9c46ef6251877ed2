// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"

	"github.com/denisbrodbeck/machineid"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"
)

const appID = "imu_link"

// machineID is swapped in tests.
var machineID = func() (string, error) { return machineid.ProtectedID(appID) }

// clientID returns configured, or imu-link-<role>-<machine> when it is
// empty so that several hosts can share a broker.
func clientID(configured, role string) string {
	if configured != "" {
		return configured
	}
	id, err := machineID()
	if err != nil || id == "" {
		glog.Warningf("mqtt: no machine id (%v), using bare client id", err)
		return "imu-link-" + role
	}
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("imu-link-%s-%s", role, id)
}

func connectMQTT(broker, id string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(id).
		SetAutoReconnect(true).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			glog.Warningf("mqtt: connection lost: %v", err)
		})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt: connect %s: %w", broker, token.Error())
	}
	glog.Infof("mqtt: %s connected to %s", id, broker)
	return client, nil
}

// publishJSON publishes v retained, so late subscribers get the latest value.
func publishJSON(client mqtt.Client, topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("mqtt: marshal %s: %w", topic, err)
	}
	if token := client.Publish(topic, 0, true, payload); token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt: publish %s: %w", topic, token.Error())
	}
	glog.V(2).Infof("PUB %q %d bytes", topic, len(payload))
	return nil
}

// subscribeJSON decodes every message on topic into a T and hands it to fn.
// Undecodable payloads are logged and dropped.
func subscribeJSON[T any](client mqtt.Client, topic string, fn func(T)) error {
	token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		glog.V(2).Infof("RCV %q", msg.Topic())
		var v T
		if err := json.Unmarshal(msg.Payload(), &v); err != nil {
			glog.Warningf("mqtt: %s unmarshal error: %v", msg.Topic(), err)
			return
		}
		fn(v)
	})
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("mqtt: subscribe %s: %w", topic, token.Error())
	}
	glog.Infof("mqtt: subscribed to %s", topic)
	return nil
}
