// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package fixed converts sensor floats to signed 16-bit Qn fixed point,
// where value = integer / 2^n.
package fixed

import (
	"errors"
	"math"
)

// Q-factors of the downstream link.
const (
	QAccel uint8 = 11 // m/s^2 range about ±16
	QGyro  uint8 = 11 // rad/s range about ±16
	QEuler uint8 = 13 // rad range about ±4
)

// ErrOverflow is returned by Convert when the scaled value does not fit in
// 16 bits, or is NaN.
var ErrOverflow = errors.New("fixed: value out of int16 range")

// ToFixed scales v by 2^q, truncates toward zero and saturates to the int16
// range. NaN maps to 0.
func ToFixed(v float32, q uint8) int16 {
	x, _ := Convert(v, q)
	return x
}

// Convert is ToFixed that also reports saturation.
func Convert(v float32, q uint8) (int16, error) {
	s := math.Trunc(math.Ldexp(float64(v), int(q)))
	switch {
	case math.IsNaN(s):
		return 0, ErrOverflow
	case s > math.MaxInt16:
		return math.MaxInt16, ErrOverflow
	case s < math.MinInt16:
		return math.MinInt16, ErrOverflow
	}
	return int16(s), nil
}

// ToFloat is the inverse scaling of a Qn value.
func ToFloat(x int16, q uint8) float32 {
	return float32(math.Ldexp(float64(x), -int(q)))
}

// Range returns the smallest and largest float representable in Qq.
func Range(q uint8) (lo, hi float32) {
	return ToFloat(math.MinInt16, q), ToFloat(math.MaxInt16, q)
}
