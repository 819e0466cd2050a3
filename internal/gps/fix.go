package gps

import (
	"fmt"
	"math"
	"time"
)

// Fix is the most recent position report held by a session. Sessions mutate
// it in place as reports arrive.
//
// Altitude, eph/epv and HDOP use NaN as the "not reported yet" sentinel,
// matching gpsd's client-side convention. Mode follows gpsd TPV semantics:
// 0 unknown, 1 no fix, 2 2D, 3 3D.
type Fix struct {
	LatDeg float64
	LonDeg float64
	AltM   float64

	Time time.Time

	Mode       int
	SpeedMS    float64
	TrackDeg   float64
	ClimbMS    float64
	EphM       float64
	EpvM       float64
	Satellites int
	HDOP       float64
}

// NewFix returns an unacquired fix with all sentinel fields set to NaN.
func NewFix() Fix {
	return Fix{
		AltM: math.NaN(),
		EphM: math.NaN(),
		EpvM: math.NaN(),
		HDOP: math.NaN(),
	}
}

// Acquired reports whether the fix looks like a genuine position
// acquisition. An unacquired gpsd fix reports zero coordinates and no
// altitude, so zero lat/lon or NaN altitude are treated as "not yet".
func (f Fix) Acquired() bool {
	return f.LatDeg != 0.0 && f.LonDeg != 0.0 && !math.IsNaN(f.AltM)
}

func (f Fix) String() string {
	return fmt.Sprintf("fix mode=%d lat=%.9f lon=%.9f alt=%s time=%s sats=%d",
		f.Mode, f.LatDeg, f.LonDeg, formatAlt(f.AltM), f.timeLabel(), f.Satellites)
}

// Summary renders the (latitude, longitude, altitude, time) tuple reported
// after a polling run.
func (f Fix) Summary() string {
	return fmt.Sprintf("(%.9f, %.9f, %s, %s)", f.LatDeg, f.LonDeg, formatAlt(f.AltM), f.timeLabel())
}

func (f Fix) timeLabel() string {
	if f.Time.IsZero() {
		return "n/a"
	}
	return f.Time.UTC().Format(time.RFC3339Nano)
}

func formatAlt(m float64) string {
	if math.IsNaN(m) {
		return "nan"
	}
	return fmt.Sprintf("%.3f", m)
}
