// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package mip

import (
	"fmt"
	"io"
	"time"
)

// Command is one literal MIP command with the pause the device needs
// before it accepts the next one.
type Command struct {
	Name   string
	Bytes  []byte
	Settle time.Duration
}

// Baud rate the stream runs at after CmdHighBaud is accepted.
const StreamBaudRate = 921600

var (
	CmdIdle = Command{"idle", []byte{
		0x75, 0x65, 0x01, 0x02, 0x02, 0x02, 0xE1, 0xC7}, 100 * time.Millisecond}

	// IMU message: scaled accel + scaled gyro at 1000 Hz.
	CmdIMUFormat = Command{"imu_format", []byte{
		0x75, 0x65, 0x0C, 0x0A, 0x0A, 0x08, 0x01, 0x02, 0x04, 0x00, 0x01, 0x05, 0x00, 0x01, 0x10, 0x73}, 100 * time.Millisecond}

	// EF message: euler angles at 500 Hz.
	CmdEFFormat = Command{"ef_format", []byte{
		0x75, 0x65, 0x0C, 0x07, 0x07, 0x0A, 0x01, 0x01, 0x05, 0x00, 0x01, 0x06, 0x23}, 100 * time.Millisecond}

	CmdEnableStreams = Command{"enable_streams", []byte{
		0x75, 0x65, 0x0C, 0x0A, 0x05, 0x11, 0x01, 0x01, 0x01, 0x05, 0x11, 0x01, 0x03, 0x01, 0x24, 0xCC}, 100 * time.Millisecond}

	CmdZeroHeading = Command{"zero_heading", []byte{
		0x75, 0x65, 0x0D, 0x06, 0x06, 0x03, 0x00, 0x00, 0x00, 0x00, 0xF6, 0xE4}, 100 * time.Millisecond}

	CmdResume = Command{"resume", []byte{
		0x75, 0x65, 0x01, 0x02, 0x02, 0x06, 0xE5, 0xCB}, 100 * time.Millisecond}

	CmdHighBaud = Command{"baud_921600", []byte{
		0x75, 0x65, 0x0C, 0x07, 0x07, 0x40, 0x01, 0x00, 0x0E, 0x10, 0x00, 0x53, 0x9D}, 10 * time.Millisecond}
)

// BaudSequence is sent at the power-on baud rate. The link must be reopened
// at StreamBaudRate afterwards.
var BaudSequence = []Command{CmdIdle, CmdHighBaud}

// StreamSequence is sent at StreamBaudRate and leaves the device streaming.
var StreamSequence = []Command{CmdIMUFormat, CmdEFFormat, CmdEnableStreams, CmdZeroHeading, CmdResume}

// Send writes each command to w and sleeps for its settle time.
func Send(w io.Writer, cmds []Command) error {
	for _, c := range cmds {
		if !Valid(c.Bytes) {
			return fmt.Errorf("mip: command %s: bad checksum", c.Name)
		}
		if _, err := w.Write(c.Bytes); err != nil {
			return fmt.Errorf("mip: send %s: %w", c.Name, err)
		}
		time.Sleep(c.Settle)
	}
	return nil
}
