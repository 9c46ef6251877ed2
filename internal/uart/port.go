// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package uart

import (
	"fmt"
	"io"

	serial "github.com/jacobsa/go-serial/serial"
)

// Options selects the serial device. The link is always 8N1 without flow
// control.
type Options struct {
	PortName string
	BaudRate int
}

// Open opens the serial device in blocking mode: reads return as soon as
// one byte is available.
func Open(opts Options) (io.ReadWriteCloser, error) {
	port, err := serial.Open(serial.OpenOptions{
		PortName:              opts.PortName,
		BaudRate:              uint(opts.BaudRate),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("uart: open %s at %d baud: %w", opts.PortName, opts.BaudRate, err)
	}
	return port, nil
}
