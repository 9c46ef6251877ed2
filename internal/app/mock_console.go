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

	"github.com/golang/glog"

	"github.com/relabs-tech/imu_link/internal/config"
	"github.com/relabs-tech/imu_link/internal/imu"
	"github.com/relabs-tech/imu_link/internal/sensors"
)

// RunConsole runs the receive path locally, without a broker, and prints
// the diagnostic line every CONSOLE_LOG_INTERVAL.
func RunConsole() error {
	cfg := config.Get()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, err := sensors.NewSource(cfg)
	if err != nil {
		return fmt.Errorf("console: %w", err)
	}
	defer src.Close()

	p, err := NewPipeline(src, cfg)
	if err != nil {
		return fmt.Errorf("console: %w", err)
	}
	errc := p.Start(ctx)

	parseTicker := time.NewTicker(time.Duration(cfg.IMUParseInterval) * time.Millisecond)
	defer parseTicker.Stop()
	logTicker := time.NewTicker(time.Duration(cfg.ConsoleLogInterval) * time.Millisecond)
	defer logTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			glog.Infof("console: %s", p.Stats())
			return nil
		case err := <-errc:
			glog.Infof("console: %s", p.Stats())
			if ctx.Err() != nil {
				return nil
			}
			return err
		case <-parseTicker.C:
			p.Parser.Parse()
		case <-logTicker.C:
			if err := imu.Print(os.Stdout, p.Parser.Reading()); err != nil {
				return err
			}
		}
	}
}
