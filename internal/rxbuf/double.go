// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package rxbuf implements the receive double buffer shared between the
// interrupt handler (single writer) and the frame parser (single reader).
package rxbuf

import (
	"runtime"
	"sync/atomic"
)

// BufferSize is the capacity of one capture window.
const BufferSize = 256

// state word layout
const (
	activeBit uint32 = 1 << 0 // index of the write-active buffer
	busyBit   uint32 = 1 << 1 // a handler run is writing the active buffer
)

// Window is the buffer handed to the reader by Swap. Data stays valid and
// untouched by the writer until the next Swap.
type Window struct {
	Data    []byte // bytes written during the window
	Overrun bool   // the writer had more bytes than BufferSize and truncated
	Index   int    // which of the two buffers this is
}

// DoubleBuffer is a pair of fixed buffers and one atomic state word.
// Exactly one buffer is write-active at any time; the other belongs to the
// reader. Swap is the only operation that moves a buffer between roles.
//
// The zero value is ready to use with buffer 0 write-active.
type DoubleBuffer struct {
	state atomic.Uint32

	bufs    [2][BufferSize]byte
	lens    [2]int
	overrun [2]bool

	writing uint32 // writer-owned: index taken by the open BeginWrite
}

// BeginWrite opens a handler run and returns the whole write-active buffer.
// The active buffer cannot be swapped away until EndWrite. Only one
// goroutine may act as the writer.
func (d *DoubleBuffer) BeginWrite() []byte {
	for {
		s := d.state.Load()
		if d.state.CompareAndSwap(s, s|busyBit) {
			d.writing = s & activeBit
			return d.bufs[d.writing][:]
		}
	}
}

// EndWrite closes the handler run opened by BeginWrite, recording how many
// bytes the run left in the buffer and whether it had to drop any.
func (d *DoubleBuffer) EndWrite(n int, overrun bool) {
	if n > BufferSize {
		n = BufferSize
	}
	i := d.writing
	d.lens[i] = n
	d.overrun[i] = overrun
	d.state.And(^busyBit)
}

// Swap flips the write-active buffer and returns the one the writer was
// filling. If a handler run is in progress Swap waits for it to end; runs
// are bounded by the FIFO depth so the wait is short.
//
// The buffer that becomes write-active starts empty.
func (d *DoubleBuffer) Swap() Window {
	for {
		s := d.state.Load()
		if s&busyBit != 0 {
			runtime.Gosched()
			continue
		}
		prev := s & activeBit
		next := prev ^ activeBit
		// The next buffer is still ours until the flip lands.
		d.lens[next] = 0
		d.overrun[next] = false
		if d.state.CompareAndSwap(s, s^activeBit) {
			return Window{
				Data:    d.bufs[prev][:d.lens[prev]],
				Overrun: d.overrun[prev],
				Index:   int(prev),
			}
		}
	}
}

// Active reports the index of the write-active buffer.
func (d *DoubleBuffer) Active() int {
	return int(d.state.Load() & activeBit)
}
