// Package sonar defines the shared data model for the sweep pipeline: the
// Sample reading, the measurement envelope, and the SensorSource contract
// implemented by every telemetry producer.
package sonar

// Sample is a single angle/distance reading produced by a sensor source.
// It is immutable once produced; Seq increases monotonically within one
// sensor session.
type Sample struct {
	// Angle is the servo position in integer degrees.
	Angle int `json:"angle"`
	// Distance is the measured distance in centimeters.
	Distance float64 `json:"distance"`
	// Seq is the position of this sample in the session's arrival order.
	Seq uint64 `json:"seq"`
}

// Bounds describes the valid measurement envelope for samples. Readings
// outside the distance bounds are clipped to the nearest bound, never
// dropped, matching the firmware behaviour.
type Bounds struct {
	MinDistance float64
	MaxDistance float64
	AngleMin    int
	AngleMax    int
}

// DefaultBounds returns the envelope of an HC-SR04 on a 180 degree servo.
func DefaultBounds() Bounds {
	return Bounds{
		MinDistance: 2,
		MaxDistance: 200,
		AngleMin:    0,
		AngleMax:    180,
	}
}

// Range returns the span of the distance envelope in centimeters.
func (b Bounds) Range() float64 {
	return b.MaxDistance - b.MinDistance
}

// Clamp returns a copy of s with the angle clipped into the sweep range and
// the distance clipped into the distance envelope.
func (b Bounds) Clamp(s Sample) Sample {
	if s.Angle < b.AngleMin {
		s.Angle = b.AngleMin
	}
	if s.Angle > b.AngleMax {
		s.Angle = b.AngleMax
	}
	if s.Distance < b.MinDistance {
		s.Distance = b.MinDistance
	}
	if s.Distance > b.MaxDistance {
		s.Distance = b.MaxDistance
	}
	return s
}
