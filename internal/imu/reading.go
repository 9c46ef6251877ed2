// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

import (
	"github.com/relabs-tech/imu_link/internal/fixed"
	"github.com/relabs-tech/imu_link/internal/mip"
)

// Reading is the decoded sensor state. Units are those of the sensor:
// m/s^2 for acceleration, rad/s for angular rate, rad for euler angles.
type Reading struct {
	AccX float32 `json:"acc_x"`
	AccY float32 `json:"acc_y"`
	AccZ float32 `json:"acc_z"`

	GyrX float32 `json:"gyr_x"`
	GyrY float32 `json:"gyr_y"`
	GyrZ float32 `json:"gyr_z"`

	Roll  float32 `json:"roll"`
	Pitch float32 `json:"pitch"`
	Yaw   float32 `json:"yaw"`
}

// Fixed is a Reading in the fixed-point format of the downstream link:
// Q11 for acceleration and angular rate, Q13 for euler angles.
type Fixed struct {
	AccX int16 `json:"acc_x"`
	AccY int16 `json:"acc_y"`
	AccZ int16 `json:"acc_z"`

	GyrX int16 `json:"gyr_x"`
	GyrY int16 `json:"gyr_y"`
	GyrZ int16 `json:"gyr_z"`

	Roll  int16 `json:"roll"`
	Pitch int16 `json:"pitch"`
	Yaw   int16 `json:"yaw"`
}

// Fixed converts every field with its Q-factor, saturating out-of-range
// values.
func (r Reading) Fixed() Fixed {
	return Fixed{
		AccX:  fixed.ToFixed(r.AccX, fixed.QAccel),
		AccY:  fixed.ToFixed(r.AccY, fixed.QAccel),
		AccZ:  fixed.ToFixed(r.AccZ, fixed.QAccel),
		GyrX:  fixed.ToFixed(r.GyrX, fixed.QGyro),
		GyrY:  fixed.ToFixed(r.GyrY, fixed.QGyro),
		GyrZ:  fixed.ToFixed(r.GyrZ, fixed.QGyro),
		Roll:  fixed.ToFixed(r.Roll, fixed.QEuler),
		Pitch: fixed.ToFixed(r.Pitch, fixed.QEuler),
		Yaw:   fixed.ToFixed(r.Yaw, fixed.QEuler),
	}
}

// Saturated reports how many fields did not fit their Q range.
func (r Reading) Saturated() int {
	n := 0
	check := func(v float32, q uint8) {
		if _, err := fixed.Convert(v, q); err != nil {
			n++
		}
	}
	check(r.AccX, fixed.QAccel)
	check(r.AccY, fixed.QAccel)
	check(r.AccZ, fixed.QAccel)
	check(r.GyrX, fixed.QGyro)
	check(r.GyrY, fixed.QGyro)
	check(r.GyrZ, fixed.QGyro)
	check(r.Roll, fixed.QEuler)
	check(r.Pitch, fixed.QEuler)
	check(r.Yaw, fixed.QEuler)
	return n
}

// Reading converts back to floats, at Q resolution.
func (f Fixed) Reading() Reading {
	return Reading{
		AccX:  fixed.ToFloat(f.AccX, fixed.QAccel),
		AccY:  fixed.ToFloat(f.AccY, fixed.QAccel),
		AccZ:  fixed.ToFloat(f.AccZ, fixed.QAccel),
		GyrX:  fixed.ToFloat(f.GyrX, fixed.QGyro),
		GyrY:  fixed.ToFloat(f.GyrY, fixed.QGyro),
		GyrZ:  fixed.ToFloat(f.GyrZ, fixed.QGyro),
		Roll:  fixed.ToFloat(f.Roll, fixed.QEuler),
		Pitch: fixed.ToFloat(f.Pitch, fixed.QEuler),
		Yaw:   fixed.ToFloat(f.Yaw, fixed.QEuler),
	}
}

// EncodeFrame builds the combined wire frame for r.
func EncodeFrame(r Reading) [mip.FrameLen]byte {
	var f [mip.FrameLen]byte
	mip.EncodeIMU(f[mip.IMUOffset:], [3]float32{r.AccX, r.AccY, r.AccZ}, [3]float32{r.GyrX, r.GyrY, r.GyrZ})
	mip.EncodeEuler(f[mip.EFOffset:], r.Roll, r.Pitch, r.Yaw)
	return f
}
