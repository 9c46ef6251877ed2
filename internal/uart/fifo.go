// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package uart

import (
	"fmt"
	"sync/atomic"
)

// DefaultFIFOSize matches the 128-byte hardware RX FIFO of the ESP32 UART.
const DefaultFIFOSize = 128

// FIFO is a single-producer, single-consumer byte ring standing in for the
// UART receive FIFO, plus the interrupt line that signals it.
// The port side calls Push and Raise; the interrupt handler calls Len, Pop
// and Clear.
type FIFO struct {
	buf  []byte
	mask uint32
	rd   atomic.Uint32 // consumer index (monotonic)
	wr   atomic.Uint32 // producer index (monotonic)

	irq chan struct{} // pending interrupt, coalesced

	pushed  atomic.Uint64
	dropped atomic.Uint64
}

// NewFIFO returns a FIFO holding size bytes; size must be a power of two.
func NewFIFO(size int) (*FIFO, error) {
	if size < 2 || size&(size-1) != 0 {
		return nil, fmt.Errorf("uart: fifo size %d is not a power of two >= 2", size)
	}
	return &FIFO{
		buf:  make([]byte, size),
		mask: uint32(size - 1),
		irq:  make(chan struct{}, 1),
	}, nil
}

// Cap is the FIFO depth.
func (f *FIFO) Cap() int { return len(f.buf) }

// Len is the number of bytes waiting.
func (f *FIFO) Len() int {
	return int(f.wr.Load() - f.rd.Load())
}

// Push copies as much of p as fits and returns the count. Bytes that do
// not fit are lost, as they would be on the wire.
func (f *FIFO) Push(p []byte) int {
	if len(p) == 0 {
		return 0
	}
	rd := f.rd.Load()
	wr := f.wr.Load()
	size := uint32(len(f.buf))
	n := int(size - (wr - rd))
	if len(p) < n {
		n = len(p)
	}
	wrIdx := wr & f.mask
	first := int(size - wrIdx)
	if first > n {
		first = n
	}
	copy(f.buf[wrIdx:], p[:first])
	if second := n - first; second > 0 {
		copy(f.buf[:second], p[first:n])
	}
	f.wr.Store(wr + uint32(n))

	f.pushed.Add(uint64(n))
	if lost := len(p) - n; lost > 0 {
		f.dropped.Add(uint64(lost))
	}
	return n
}

// Pop removes one byte. The caller must have seen Len() > 0.
func (f *FIFO) Pop() byte {
	rd := f.rd.Load()
	b := f.buf[rd&f.mask]
	f.rd.Store(rd + 1)
	return b
}

// Raise asserts the interrupt line. Repeated raises before the handler runs
// coalesce into one.
func (f *FIFO) Raise() {
	select {
	case f.irq <- struct{}{}:
	default:
	}
}

// Interrupt fires once per coalesced Raise.
func (f *FIFO) Interrupt() <-chan struct{} { return f.irq }

// Clear acknowledges a pending interrupt.
func (f *FIFO) Clear() {
	select {
	case <-f.irq:
	default:
	}
}

// Counters returns the bytes accepted and the bytes lost to a full FIFO.
func (f *FIFO) Counters() (pushed, dropped uint64) {
	return f.pushed.Load(), f.dropped.Load()
}
