// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

import (
	"sync"

	"github.com/relabs-tech/imu_link/internal/fixed"
	"github.com/relabs-tech/imu_link/internal/mip"
	"github.com/relabs-tech/imu_link/internal/rxbuf"
)

// ParserOptions configures frame handling.
type ParserOptions struct {
	// Resync searches each window for the IMU packet header instead of
	// assuming the window starts on a frame boundary.
	Resync bool
}

// Result describes one Parse call.
type Result struct {
	Bytes    int  // bytes in the window
	Offset   int  // frame start used
	Synced   bool // a frame start was found (always true without Resync)
	IMUValid bool
	EFValid  bool
	Overrun  bool
}

// Stats are cumulative parser counters.
type Stats struct {
	Windows    uint64 `json:"windows"`
	Empty      uint64 `json:"empty"`
	IMUValid   uint64 `json:"imu_valid"`
	IMUInvalid uint64 `json:"imu_invalid"`
	EFValid    uint64 `json:"ef_valid"`
	EFInvalid  uint64 `json:"ef_invalid"`
	Overruns   uint64 `json:"overruns"`
	Resyncs    uint64 `json:"resyncs"` // frames found past offset 0
	NoSync     uint64 `json:"no_sync"`
}

// Parser owns the current reading. Parse is called from one foreground
// goroutine; the accessors may be called from any goroutine.
type Parser struct {
	db   *rxbuf.DoubleBuffer
	opts ParserOptions

	mu      sync.RWMutex
	reading Reading
	stats   Stats
}

// NewParser returns a parser reading windows from db, with every field of
// the reading at zero.
func NewParser(db *rxbuf.DoubleBuffer, opts ParserOptions) *Parser {
	return &Parser{db: db, opts: opts}
}

// Parse swaps the double buffer and decodes the window the receiver was
// filling. A sub-frame whose checksum fails, or that the window does not
// hold completely, leaves its fields at their last good values.
func (p *Parser) Parse() Result {
	w := p.db.Swap()
	data := w.Data
	res := Result{Bytes: len(data), Overrun: w.Overrun, Synced: true}

	var (
		base int
		imu  [6]float32
		ef   [3]float32
	)
	if p.opts.Resync && len(data) > 0 {
		base, res.Synced = findFrameStart(data)
	}
	res.Offset = base
	if len(data) > 0 && res.Synced {
		res.IMUValid = decodeIMU(data, base, &imu)
		res.EFValid = decodeEF(data, base, &ef)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	s := &p.stats
	s.Windows++
	if w.Overrun {
		s.Overruns++
	}
	switch {
	case len(data) == 0:
		s.Empty++
		return res
	case !res.Synced:
		s.NoSync++
		return res
	case base > 0:
		s.Resyncs++
	}

	if res.IMUValid {
		s.IMUValid++
		r := &p.reading
		r.AccX, r.AccY, r.AccZ = imu[0], imu[1], imu[2]
		r.GyrX, r.GyrY, r.GyrZ = imu[3], imu[4], imu[5]
	} else {
		s.IMUInvalid++
	}
	if res.EFValid {
		s.EFValid++
		p.reading.Roll, p.reading.Pitch, p.reading.Yaw = ef[0], ef[1], ef[2]
	} else {
		s.EFInvalid++
	}
	return res
}

// findFrameStart prefers the first IMU packet whose checksum passes. When
// none does, the first header is used so a good EF packet behind a damaged
// IMU packet is still decoded.
func findFrameStart(data []byte) (int, bool) {
	if off, ok := mip.FindValidPacket(data, mip.DescSetIMU, mip.IMULen); ok {
		return off, true
	}
	return mip.FindPacket(data, mip.DescSetIMU, mip.IMULen)
}

// subFrame returns data[off:off+n], or nil when the window is too short.
func subFrame(data []byte, off, n int) []byte {
	if off+n > len(data) {
		return nil
	}
	return data[off : off+n]
}

func decodeIMU(data []byte, base int, out *[6]float32) bool {
	pkt := subFrame(data, base+mip.IMUOffset, mip.IMULen)
	if !mip.Valid(pkt) {
		return false
	}
	out[0] = mip.Float32At(pkt, mip.AccXPos)
	out[1] = mip.Float32At(pkt, mip.AccYPos)
	out[2] = mip.Float32At(pkt, mip.AccZPos)
	out[3] = mip.Float32At(pkt, mip.GyrXPos)
	out[4] = mip.Float32At(pkt, mip.GyrYPos)
	out[5] = mip.Float32At(pkt, mip.GyrZPos)
	return true
}

func decodeEF(data []byte, base int, out *[3]float32) bool {
	pkt := subFrame(data, base+mip.EFOffset, mip.EFLen)
	if !mip.Valid(pkt) {
		return false
	}
	out[0] = mip.Float32At(pkt, mip.RollPos)
	out[1] = mip.Float32At(pkt, mip.PitchPos)
	out[2] = mip.Float32At(pkt, mip.YawPos)
	return true
}

// Reading returns a copy of the current reading.
func (p *Parser) Reading() Reading {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.reading
}

// Stats returns a copy of the counters.
func (p *Parser) Stats() Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.stats
}

// Fixed returns the current reading in link format.
func (p *Parser) Fixed() Fixed {
	return p.Reading().Fixed()
}

func (p *Parser) field(get func(r *Reading) float32, q uint8) int16 {
	p.mu.RLock()
	v := get(&p.reading)
	p.mu.RUnlock()
	return fixed.ToFixed(v, q)
}

func (p *Parser) FixedAccX() int16 {
	return p.field(func(r *Reading) float32 { return r.AccX }, fixed.QAccel)
}

func (p *Parser) FixedAccY() int16 {
	return p.field(func(r *Reading) float32 { return r.AccY }, fixed.QAccel)
}

func (p *Parser) FixedAccZ() int16 {
	return p.field(func(r *Reading) float32 { return r.AccZ }, fixed.QAccel)
}

func (p *Parser) FixedGyrX() int16 {
	return p.field(func(r *Reading) float32 { return r.GyrX }, fixed.QGyro)
}

func (p *Parser) FixedGyrY() int16 {
	return p.field(func(r *Reading) float32 { return r.GyrY }, fixed.QGyro)
}

func (p *Parser) FixedGyrZ() int16 {
	return p.field(func(r *Reading) float32 { return r.GyrZ }, fixed.QGyro)
}

func (p *Parser) FixedRoll() int16 {
	return p.field(func(r *Reading) float32 { return r.Roll }, fixed.QEuler)
}

func (p *Parser) FixedPitch() int16 {
	return p.field(func(r *Reading) float32 { return r.Pitch }, fixed.QEuler)
}

func (p *Parser) FixedYaw() int16 {
	return p.field(func(r *Reading) float32 { return r.Yaw }, fixed.QEuler)
}
