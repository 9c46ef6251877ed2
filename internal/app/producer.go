// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"

	"github.com/relabs-tech/imu_link/internal/config"
	"github.com/relabs-tech/imu_link/internal/imu"
	"github.com/relabs-tech/imu_link/internal/sensors"
)

// RunIMUProducer reads the sensor link, parses it every IMU_PARSE_INTERVAL
// and publishes the reading, its fixed-point form and the link stats.
func RunIMUProducer() error {
	glog.Info("producer: starting imu_link producer")

	cfg := config.Get()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, err := sensors.NewSource(cfg)
	if err != nil {
		return fmt.Errorf("producer: %w", err)
	}
	defer src.Close()

	p, err := NewPipeline(src, cfg)
	if err != nil {
		return fmt.Errorf("producer: %w", err)
	}

	client, err := connectMQTT(cfg.MQTTBroker, clientID(cfg.MQTTClientIDProducer, "producer"))
	if err != nil {
		return fmt.Errorf("producer: %w", err)
	}
	defer client.Disconnect(250)

	errc := p.Start(ctx)
	glog.Infof("producer: parsing every %d ms, publishing to %s, %s, %s",
		cfg.IMUParseInterval, cfg.TopicReading, cfg.TopicFixed, cfg.TopicStats)

	parseTicker := time.NewTicker(time.Duration(cfg.IMUParseInterval) * time.Millisecond)
	defer parseTicker.Stop()
	logTicker := time.NewTicker(time.Duration(cfg.ConsoleLogInterval) * time.Millisecond)
	defer logTicker.Stop()
	statsTicker := time.NewTicker(time.Duration(cfg.StatsInterval) * time.Millisecond)
	defer statsTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			glog.Info("producer: shutting down")
			return nil

		case err := <-errc:
			if err != nil && ctx.Err() == nil {
				return fmt.Errorf("producer: %w", err)
			}
			glog.Info("producer: source closed")
			return nil

		case <-parseTicker.C:
			publishParse(client, cfg, p)

		case <-logTicker.C:
			if err := imu.Print(os.Stdout, p.Parser.Reading()); err != nil {
				glog.Warningf("producer: print: %v", err)
			}

		case <-statsTicker.C:
			s := p.Stats()
			glog.Infof("producer: %s", s)
			if err := publishJSON(client, cfg.TopicStats, s); err != nil {
				glog.Warningf("producer: %v", err)
			}
		}
	}
}

// publishParse runs one parse and publishes the reading when any part of
// the frame was accepted.
func publishParse(client mqtt.Client, cfg *config.Config, p *Pipeline) {
	res := p.Parser.Parse()
	if res.Bytes == 0 {
		return
	}
	if glog.V(2) {
		glog.Infof("producer: window %d bytes at %d imu=%t ef=%t overrun=%t",
			res.Bytes, res.Offset, res.IMUValid, res.EFValid, res.Overrun)
	}
	if res.Overrun {
		glog.Warningf("producer: receive window overrun (%d bytes kept)", res.Bytes)
	}
	if !res.IMUValid && !res.EFValid {
		return
	}

	r := p.Parser.Reading()
	if err := publishJSON(client, cfg.TopicReading, r); err != nil {
		glog.Warningf("producer: %v", err)
		return
	}
	if err := publishJSON(client, cfg.TopicFixed, r.Fixed()); err != nil {
		glog.Warningf("producer: %v", err)
	}
}
