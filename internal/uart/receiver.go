// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package uart

import (
	"context"
	"sync/atomic"

	"github.com/relabs-tech/imu_link/internal/rxbuf"
)

// Receiver is the interrupt side of the link: it moves whatever the FIFO
// holds into the write-active half of the double buffer.
type Receiver struct {
	fifo *FIFO
	db   *rxbuf.DoubleBuffer

	runs atomic.Uint64
}

func NewReceiver(fifo *FIFO, db *rxbuf.DoubleBuffer) *Receiver {
	return &Receiver{fifo: fifo, db: db}
}

// HandleInterrupt drains the bytes queued when it starts into the active
// buffer, from offset 0, one at a time, then acknowledges the interrupt.
// Bytes past the end of the buffer are popped and discarded and the window
// is marked overrun.
//
// Interrupt context: no allocation, no logging, loop bounded by the FIFO
// depth.
func (r *Receiver) HandleInterrupt() {
	buf := r.db.BeginWrite()
	i := 0
	overrun := false
	for n := r.fifo.Len(); n > 0; n-- {
		b := r.fifo.Pop()
		if i < len(buf) {
			buf[i] = b
			i++
		} else {
			overrun = true
		}
	}
	r.db.EndWrite(i, overrun)
	r.fifo.Clear()
	r.runs.Add(1)
}

// Run services interrupts until ctx is done.
func (r *Receiver) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.fifo.Interrupt():
			r.HandleInterrupt()
		}
	}
}

// Runs is the number of completed handler runs.
func (r *Receiver) Runs() uint64 { return r.runs.Load() }
