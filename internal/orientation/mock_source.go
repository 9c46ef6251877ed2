// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"
	"time"

	"github.com/relabs-tech/imu_link/internal/imu"
)

const gravity = 9.80665

// Source is anything that can provide readings over time.
type Source interface {
	Next() (imu.Reading, error)
}

type mockSource struct {
	start time.Time
	now   func() time.Time
}

// NewMockSource creates a source of smoothly rocking readings whose
// acceleration agrees with the euler angles.
func NewMockSource() Source {
	return &mockSource{start: time.Now(), now: time.Now}
}

func (m *mockSource) Next() (imu.Reading, error) {
	return mockReading(m.now().Sub(m.start).Seconds()), nil
}

func mockReading(t float64) imu.Reading {
	roll := 0.35 * math.Sin(t)
	pitch := 0.26 * math.Cos(t*0.7)
	yaw := math.Remainder(t*0.5, 2*math.Pi)

	// body-frame gravity for the given roll/pitch
	ax := -gravity * math.Sin(pitch)
	ay := gravity * math.Cos(pitch) * math.Sin(roll)
	az := gravity * math.Cos(pitch) * math.Cos(roll)

	return imu.Reading{
		AccX:  float32(ax),
		AccY:  float32(ay),
		AccZ:  float32(az),
		GyrX:  float32(0.35 * math.Cos(t)),
		GyrY:  float32(-0.26 * 0.7 * math.Sin(t*0.7)),
		GyrZ:  0.5,
		Roll:  float32(roll),
		Pitch: float32(pitch),
		Yaw:   float32(yaw),
	}
}
