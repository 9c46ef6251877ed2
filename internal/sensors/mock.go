// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"io"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"

	"github.com/relabs-tech/imu_link/internal/imu"
	"github.com/relabs-tech/imu_link/internal/mip"
	"github.com/relabs-tech/imu_link/internal/orientation"
)

// MockOptions configure the mock sensor.
type MockOptions struct {
	RateHz  int     // frames per second, default 100
	Corrupt float64 // fraction of frames whose EF trailer is damaged
	Seed    uint64
}

// Mock behaves like a streaming sensor on a serial port: every tick it
// writes one combined frame as a single burst. Commands written to it are
// accepted and ignored.
type Mock struct {
	src  orientation.Source
	opts MockOptions

	pr *io.PipeReader
	pw *io.PipeWriter

	done      chan struct{}
	closeOnce sync.Once

	frames    atomic.Uint64
	corrupted atomic.Uint64
}

// NewMock starts emitting frames built from src.
func NewMock(src orientation.Source, opts MockOptions) *Mock {
	if opts.RateHz <= 0 {
		opts.RateHz = 100
	}
	pr, pw := io.Pipe()
	m := &Mock{
		src:  src,
		opts: opts,
		pr:   pr,
		pw:   pw,
		done: make(chan struct{}),
	}
	go m.run()
	return m
}

func (m *Mock) run() {
	rng := rand.New(rand.NewPCG(m.opts.Seed, m.opts.Seed^0x9e3779b97f4a7c15))
	ticker := time.NewTicker(time.Second / time.Duration(m.opts.RateHz))
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
		}

		r, err := m.src.Next()
		if err != nil {
			glog.Warningf("sensors: mock source: %v", err)
			continue
		}
		frame := imu.EncodeFrame(r)
		if m.opts.Corrupt > 0 && rng.Float64() < m.opts.Corrupt {
			frame[mip.FrameLen-1] ^= 0xFF
			m.corrupted.Add(1)
		}
		if _, err := m.pw.Write(frame[:]); err != nil {
			return
		}
		m.frames.Add(1)
	}
}

func (m *Mock) Read(p []byte) (int, error) { return m.pr.Read(p) }

func (m *Mock) Write(p []byte) (int, error) {
	glog.V(2).Infof("sensors: mock ignoring %d command bytes", len(p))
	return len(p), nil
}

// Close stops the stream. Pending and later reads return io.EOF.
func (m *Mock) Close() error {
	m.closeOnce.Do(func() {
		close(m.done)
		m.pw.Close()
	})
	return nil
}

// Counters report frames written and how many of them were damaged.
func (m *Mock) Counters() (frames, corrupted uint64) {
	return m.frames.Load(), m.corrupted.Load()
}
