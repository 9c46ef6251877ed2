// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package mip holds the byte-level layout of the combined IMU + estimation
// filter frame streamed by the sensor, its checksum, and the command bytes
// used to bring the stream up.
//
// A combined frame is two MIP packets back to back:
//
//	[ 0..33] IMU packet   75 65 80 1C | 0E 04 accel xyz | 0E 05 gyro xyz | ck ck
//	[34..55] EF packet    75 65 82 10 | 10 05 roll pitch yaw flags        | ck ck
//
// Every float is IEEE-754 single precision, big-endian.
package mip

const (
	Sync1 = 0x75
	Sync2 = 0x65

	DescSetIMU = 0x80 // IMU data descriptor set
	DescSetEF  = 0x82 // estimation filter descriptor set

	DescScaledAccel = 0x04
	DescScaledGyro  = 0x05
	DescEuler       = 0x05
)

// Frame geometry.
const (
	FrameLen = 56

	IMUOffset = 0
	IMULen    = 34

	EFOffset = IMULen
	EFLen    = FrameLen - IMULen
)

// Field offsets inside the IMU packet.
const (
	AccXPos = 6
	AccYPos = 10
	AccZPos = 14
	GyrXPos = 20
	GyrYPos = 24
	GyrZPos = 28
)

// Field offsets inside the EF packet.
const (
	RollPos  = 6
	PitchPos = 10
	YawPos   = 14
)

// headerLen is sync + descriptor set + payload length.
const headerLen = 4
