// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"

	"github.com/golang/glog"

	"github.com/relabs-tech/imu_link/internal/app"
	"github.com/relabs-tech/imu_link/internal/config"
)

func main() {
	configPath := flag.String("config", "./imu_link_config.txt", "path to configuration file")
	// stderr by default; -logtostderr=false writes log files instead
	flag.Set("logtostderr", "true")
	flag.Parse()
	defer glog.Flush()

	glog.Info("starting imu_link OLED display (MQTT subscriber)")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		glog.Exitf("failed to load config: %v", err)
	}

	if err := app.RunDisplay(); err != nil {
		glog.Exitf("fatal: %v", err)
	}
}
