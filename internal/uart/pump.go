// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package uart

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// PumpOptions shape when the emulated interrupt fires.
type PumpOptions struct {
	// ReadChunk is the size of one read from the port.
	ReadChunk int
	// RxTimeout raises the interrupt once the line has been idle this long
	// with bytes waiting, like the UART receive timeout.
	RxTimeout time.Duration
	// FullThreshold raises the interrupt as soon as this many bytes wait.
	// Zero means Cap - Cap/16.
	FullThreshold int
}

// DefaultRxTimeout is about ten symbol times at the stream baud rate,
// rounded up to what a Linux timer can honour.
const DefaultRxTimeout = 200 * time.Microsecond

// Pump feeds the FIFO from a serial port and drives its interrupt line.
type Pump struct {
	src  io.Reader
	fifo *FIFO
	opts PumpOptions
}

func NewPump(src io.Reader, fifo *FIFO, opts PumpOptions) *Pump {
	if opts.ReadChunk <= 0 {
		opts.ReadChunk = 64
	}
	if opts.RxTimeout <= 0 {
		opts.RxTimeout = DefaultRxTimeout
	}
	if opts.FullThreshold <= 0 || opts.FullThreshold > fifo.Cap() {
		opts.FullThreshold = fifo.Cap() - fifo.Cap()/16
	}
	return &Pump{src: src, fifo: fifo, opts: opts}
}

// Run reads until ctx is done or the source fails. io.EOF ends the run
// cleanly after the last bytes are signalled. The blocked read is only
// released by closing the source.
func (p *Pump) Run(ctx context.Context) error {
	activity := make(chan struct{}, 1)
	errc := make(chan error, 1)

	go func() {
		buf := make([]byte, p.opts.ReadChunk)
		for {
			n, err := p.src.Read(buf)
			if n > 0 {
				p.fifo.Push(buf[:n])
				if p.fifo.Len() >= p.opts.FullThreshold {
					p.fifo.Raise()
				}
				select {
				case activity <- struct{}{}:
				default:
				}
			}
			if err != nil {
				errc <- err
				return
			}
		}
	}()

	idle := time.NewTimer(time.Hour)
	stopTimer(idle)
	defer idle.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-activity:
			resetTimer(idle, p.opts.RxTimeout)
		case <-idle.C:
			// keep firing while bytes wait so a cleared edge is not lost
			if p.fifo.Len() > 0 {
				p.fifo.Raise()
				idle.Reset(p.opts.RxTimeout)
			}
		case err := <-errc:
			if p.fifo.Len() > 0 {
				p.fifo.Raise()
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("uart: read: %w", err)
		}
	}
}

func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}

func resetTimer(t *time.Timer, d time.Duration) {
	stopTimer(t)
	t.Reset(d)
}
