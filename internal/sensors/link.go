// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"io"

	"github.com/golang/glog"

	"github.com/relabs-tech/imu_link/internal/config"
	"github.com/relabs-tech/imu_link/internal/mip"
	"github.com/relabs-tech/imu_link/internal/orientation"
	"github.com/relabs-tech/imu_link/internal/uart"
)

// Opener opens a serial port. uart.Open in production.
type Opener func(uart.Options) (io.ReadWriteCloser, error)

// LinkOptions describe how to bring the sensor link up.
type LinkOptions struct {
	Port     string
	InitBaud int  // baud rate the sensor powers up at
	Baud     int  // stream baud rate
	SendInit bool // run the MIP command sequence
}

// BringUp opens the port and, when asked to, walks the sensor through the
// init sequence: switch baud at the power-on rate, reopen at the stream
// rate, then configure and start both streams.
func BringUp(open Opener, opts LinkOptions) (io.ReadWriteCloser, error) {
	if !opts.SendInit {
		port, err := open(uart.Options{PortName: opts.Port, BaudRate: opts.Baud})
		if err != nil {
			return nil, fmt.Errorf("sensors: open %s: %w", opts.Port, err)
		}
		return port, nil
	}

	port, err := open(uart.Options{PortName: opts.Port, BaudRate: opts.InitBaud})
	if err != nil {
		return nil, fmt.Errorf("sensors: open %s at %d: %w", opts.Port, opts.InitBaud, err)
	}
	glog.Infof("sensors: %s open at %d baud, switching sensor to %d", opts.Port, opts.InitBaud, opts.Baud)
	if err := mip.Send(port, mip.BaudSequence); err != nil {
		port.Close()
		return nil, fmt.Errorf("sensors: baud switch: %w", err)
	}
	if err := port.Close(); err != nil {
		return nil, fmt.Errorf("sensors: close %s: %w", opts.Port, err)
	}

	port, err = open(uart.Options{PortName: opts.Port, BaudRate: opts.Baud})
	if err != nil {
		return nil, fmt.Errorf("sensors: reopen %s at %d: %w", opts.Port, opts.Baud, err)
	}
	if err := mip.Send(port, mip.StreamSequence); err != nil {
		port.Close()
		return nil, fmt.Errorf("sensors: stream setup: %w", err)
	}
	glog.Infof("sensors: %s streaming at %d baud", opts.Port, opts.Baud)
	return port, nil
}

// NewSource returns the byte source selected by cfg: the mock sensor or
// the real serial link.
func NewSource(cfg *config.Config) (io.ReadWriteCloser, error) {
	if cfg.IMUMock {
		glog.Infof("sensors: using mock sensor at %d Hz (corrupt %.2f)", cfg.IMUMockRateHz, cfg.IMUMockCorrupt)
		return NewMock(orientation.NewMockSource(), MockOptions{
			RateHz:  cfg.IMUMockRateHz,
			Corrupt: cfg.IMUMockCorrupt,
		}), nil
	}
	return BringUp(uart.Open, LinkOptions{
		Port:     cfg.IMUSerialPort,
		InitBaud: cfg.IMUInitBaudRate,
		Baud:     cfg.IMUBaudRate,
		SendInit: cfg.IMUSendInit,
	})
}
