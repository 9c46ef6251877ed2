package imu

import (
	"fmt"
	"io"
)

// String formats the nine fields tab separated, acceleration first.
func (r Reading) String() string {
	return fmt.Sprintf("%f\t%f\t%f\t%f\t%f\t%f\t%f\t%f\t%f\t",
		r.AccX, r.AccY, r.AccZ,
		r.GyrX, r.GyrY, r.GyrZ,
		r.Roll, r.Pitch, r.Yaw)
}

// Print writes r as one diagnostic line.
func Print(w io.Writer, r Reading) error {
	_, err := fmt.Fprintf(w, "\n%s", r)
	return err
}

func (s Stats) String() string {
	return fmt.Sprintf("windows=%d empty=%d imu=%d/%d ef=%d/%d overruns=%d resyncs=%d nosync=%d",
		s.Windows, s.Empty,
		s.IMUValid, s.IMUValid+s.IMUInvalid,
		s.EFValid, s.EFValid+s.EFInvalid,
		s.Overruns, s.Resyncs, s.NoSync)
}
