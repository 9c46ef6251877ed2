// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package mip

import (
	"encoding/binary"
	"math"
)

// Float32At reinterprets the four bytes at buf[off:] (MSB first) as an
// IEEE-754 single. The bits are copied, not converted.
func Float32At(buf []byte, off int) float32 {
	return math.Float32frombits(binary.BigEndian.Uint32(buf[off : off+4]))
}

// PutFloat32 writes the bit pattern of v at buf[off:], MSB first.
func PutFloat32(buf []byte, off int, v float32) {
	binary.BigEndian.PutUint32(buf[off:off+4], math.Float32bits(v))
}
