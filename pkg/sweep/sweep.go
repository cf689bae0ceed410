// Package sweep drives the sentry turret servo: a continuous 0-180°
// back-and-forth sweep that halts, stickily, the first tick a target is
// acquired. Only an explicit Reset re-arms the sweep.
package sweep

// Physical servo limits in degrees. Commands outside this range would
// stall a hobby servo against its end stops.
const (
	MinAngle = 0.0
	MaxAngle = 180.0
)

// Direction is the sweep travel direction.
type Direction int

const (
	// Forward sweeps toward MaxAngle.
	Forward Direction = 1
	// Reverse sweeps toward MinAngle.
	Reverse Direction = -1
)

// String returns a human-readable direction name.
func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Reverse:
		return "reverse"
	default:
		return "unknown"
	}
}

// State is a snapshot of the controller. Angle is always within
// [MinAngle, MaxAngle].
type State struct {
	Angle     float64   `json:"angle"`
	Direction Direction `json:"direction"`
	Running   bool      `json:"running"`
}

// clamp restricts v to the range [min, max].
func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
