// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package mip

// Checksum computes the two running 8-bit sums over data.
// sum1 is the plain byte sum, sum2 the sum of the successive sum1 values.
func Checksum(data []byte) (sum1, sum2 byte) {
	for _, b := range data {
		sum1 += b
		sum2 += sum1
	}
	return sum1, sum2
}

// Valid reports whether the last two bytes of frame are the checksum of the
// bytes before them. Frames shorter than the trailer are never valid.
func Valid(frame []byte) bool {
	if len(frame) < 2 {
		return false
	}
	n := len(frame) - 2
	sum1, sum2 := Checksum(frame[:n])
	return frame[n] == sum1 && frame[n+1] == sum2
}

// AppendChecksum appends the two-byte trailer for dst to dst.
func AppendChecksum(dst []byte) []byte {
	sum1, sum2 := Checksum(dst)
	return append(dst, sum1, sum2)
}

// sealChecksum overwrites the last two bytes of frame with the trailer of
// the bytes before them.
func sealChecksum(frame []byte) {
	n := len(frame) - 2
	frame[n], frame[n+1] = Checksum(frame[:n])
}
