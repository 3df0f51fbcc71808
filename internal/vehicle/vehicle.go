// Package vehicle defines the narrow control surface the mission core
// drives a vehicle through. Implementations adapt a concrete transport
// (simulation, MAVLink bridge, ...) to this interface; the core never
// depends on anything wider.
package vehicle

import (
	"context"
	"time"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Flight modes understood by the autopilot.
const (
	ModeOffboard = "OFFBOARD"
	ModeAutoLand = "AUTO.LAND"
)

const (
	LandedStateUndefined LandedState = iota
	LandedStateOnGround
	LandedStateInAir
	LandedStateTakeoff
	LandedStateLanding
)

// LandedState is the discrete ground-contact status reported by the vehicle.
type LandedState int

func (s LandedState) String() string {
	switch s {
	case LandedStateOnGround:
		return "ON_GROUND"
	case LandedStateInAir:
		return "IN_AIR"
	case LandedStateTakeoff:
		return "TAKEOFF"
	case LandedStateLanding:
		return "LANDING"
	default:
		return "UNDEFINED"
	}
}

// Setpoint is the currently commanded target. Position is in meters in the
// local frame, Orientation is the commanded attitude quaternion, Stamp is
// the time the setpoint was (re)transmitted.
type Setpoint struct {
	Position    r3.Vector
	Orientation quat.Number
	Stamp       time.Time
}

// Controller is the vehicle control interface consumed by the mission core.
//
// PublishSetpoint is best effort: a failed publish leaves the vehicle on its
// previous setpoint and must not be treated as fatal by callers that stream.
// The WaitFor* and Set* operations block until confirmed or until their
// timeout elapses, and are attempted exactly once per call.
type Controller interface {
	// PublishSetpoint transmits sp to the vehicle.
	PublishSetpoint(sp Setpoint) error

	// LocalPosition returns the latest known telemetry position snapshot.
	LocalPosition() r3.Vector

	// WaitForTelemetry blocks until the telemetry stream is ready.
	WaitForTelemetry(ctx context.Context, timeout time.Duration) error

	// WaitForLandedState blocks until the vehicle reports state. The
	// tolerance is added to timeout, mirroring the autopilot test harness
	// convention of shaving or extending the deadline per call site.
	WaitForLandedState(ctx context.Context, state LandedState, timeout, tolerance time.Duration) error

	// SetMode requests the named flight mode and waits for confirmation.
	SetMode(ctx context.Context, mode string, timeout time.Duration) error

	// SetArmed arms or disarms the vehicle and waits for confirmation.
	SetArmed(ctx context.Context, armed bool, timeout time.Duration) error
}
