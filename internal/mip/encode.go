// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package mip

// EncodeIMU fills dst[:IMULen] with an IMU packet carrying scaled
// acceleration and angular rate, checksum included.
func EncodeIMU(dst []byte, accel, gyro [3]float32) {
	p := dst[:IMULen]
	p[0], p[1], p[2], p[3] = Sync1, Sync2, DescSetIMU, IMULen-headerLen-2
	p[4], p[5] = 14, DescScaledAccel
	PutFloat32(p, AccXPos, accel[0])
	PutFloat32(p, AccYPos, accel[1])
	PutFloat32(p, AccZPos, accel[2])
	p[18], p[19] = 14, DescScaledGyro
	PutFloat32(p, GyrXPos, gyro[0])
	PutFloat32(p, GyrYPos, gyro[1])
	PutFloat32(p, GyrZPos, gyro[2])
	sealChecksum(p)
}

// EncodeEuler fills dst[:EFLen] with an EF packet carrying roll, pitch and
// yaw in radians. The valid flags are set.
func EncodeEuler(dst []byte, roll, pitch, yaw float32) {
	p := dst[:EFLen]
	p[0], p[1], p[2], p[3] = Sync1, Sync2, DescSetEF, EFLen-headerLen-2
	p[4], p[5] = 16, DescEuler
	PutFloat32(p, RollPos, roll)
	PutFloat32(p, PitchPos, pitch)
	PutFloat32(p, YawPos, yaw)
	p[18], p[19] = 0x00, 0x01
	sealChecksum(p)
}

// FindFrame returns the offset of the first combined frame start in buf:
// the sync bytes followed by the IMU descriptor set, with room for a whole
// frame after it. It does not check the trailers.
func FindFrame(buf []byte) (int, bool) {
	return FindPacket(buf, DescSetIMU, FrameLen)
}

// FindPacket returns the offset of the first packet of descriptor set set
// with at least n bytes from its start to the end of buf.
func FindPacket(buf []byte, set byte, n int) (int, bool) {
	if n < headerLen {
		n = headerLen
	}
	for off := 0; off+n <= len(buf); off++ {
		if buf[off] == Sync1 && buf[off+1] == Sync2 && buf[off+2] == set {
			return off, true
		}
	}
	return 0, false
}

// FindValidPacket is FindPacket that skips candidates whose checksum fails,
// so a stray header pattern ahead of a real packet is passed over.
func FindValidPacket(buf []byte, set byte, n int) (int, bool) {
	if n < headerLen {
		n = headerLen
	}
	for start := 0; start < len(buf); {
		off, ok := FindPacket(buf[start:], set, n)
		if !ok {
			return 0, false
		}
		off += start
		if Valid(buf[off : off+n]) {
			return off, true
		}
		start = off + 1
	}
	return 0, false
}
