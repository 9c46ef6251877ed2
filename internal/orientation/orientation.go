package orientation

import (
	"math"

	"github.com/relabs-tech/imu_link/internal/imu"
)

// Pose is the orientation in degrees, for humans.
type Pose struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// FromReading converts the sensor's euler angles (radians) to a Pose.
func FromReading(r imu.Reading) Pose {
	return Pose{
		Roll:  float64(r.Roll) * 180.0 / math.Pi,
		Pitch: float64(r.Pitch) * 180.0 / math.Pi,
		Yaw:   float64(r.Yaw) * 180.0 / math.Pi,
	}
}

// ComputePoseFromAccel estimates roll and pitch from the gravity vector.
// Yaw is unobservable from acceleration and is left at 0.
//
//	roll  = atan2(ay, az)
//	pitch = atan2(-ax, sqrt(ay² + az²))
func ComputePoseFromAccel(ax, ay, az float64) Pose {
	rollRad := math.Atan2(ay, az)
	pitchRad := math.Atan2(-ax, math.Sqrt(ay*ay+az*az))

	return Pose{
		Roll:  rollRad * 180.0 / math.Pi,
		Pitch: pitchRad * 180.0 / math.Pi,
	}
}

// Tilt is the accelerometer-only pose of r, useful to sanity check the
// filter output.
func Tilt(r imu.Reading) Pose {
	return ComputePoseFromAccel(float64(r.AccX), float64(r.AccY), float64(r.AccZ))
}
