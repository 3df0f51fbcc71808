package mission

import (
	"math"
	"sync"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"flightcheck/internal/vehicle"
)

// Target holds the single live setpoint shared between the sequencer
// (writer) and the streamer (reader). Set replaces position and orientation
// under one lock so a reader can never observe a half-written setpoint.
type Target struct {
	mu sync.Mutex
	sp vehicle.Setpoint
}

// NewTarget returns a Target zeroed at the local origin, facing north.
func NewTarget() *Target {
	t := &Target{}
	t.Set(r3.Vector{}, 0)
	return t
}

// Set commits a new target position with the given yaw (radians, 0 = north).
func (t *Target) Set(pos r3.Vector, yaw float64) {
	q := QuaternionFromYaw(yaw)

	t.mu.Lock()
	t.sp.Position = pos
	t.sp.Orientation = q
	t.mu.Unlock()
}

// Get returns a copy of the current setpoint.
func (t *Target) Get() vehicle.Setpoint {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sp
}

// QuaternionFromYaw builds the attitude quaternion for a rotation of yaw
// radians about the vertical axis, with zero roll and pitch.
func QuaternionFromYaw(yaw float64) quat.Number {
	return quat.Number{
		Real: math.Cos(yaw / 2),
		Kmag: math.Sin(yaw / 2),
	}
}
