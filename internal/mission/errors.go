package mission

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang/geo/r3"
)

var (
	// ErrSetupTimeout is returned when telemetry readiness or the grounded
	// precondition is not confirmed in time.
	ErrSetupTimeout = errors.New("setup timeout")

	// ErrModeSwitch is returned when a flight mode change is not confirmed
	// within its timeout.
	ErrModeSwitch = errors.New("mode switch failed")

	// ErrArm is returned when arming is not confirmed within its timeout.
	ErrArm = errors.New("arming failed")

	// ErrDisarm is returned when disarming is not confirmed within its timeout.
	ErrDisarm = errors.New("disarming failed")

	// ErrWaypointTimeout is returned when a waypoint is not reached within
	// its per-waypoint budget.
	ErrWaypointTimeout = errors.New("waypoint timeout")

	// ErrLandingTimeout is returned when the vehicle does not report ground
	// contact after the landing mode switch.
	ErrLandingTimeout = errors.New("landing timeout")

	// ErrInterrupted is returned when a foreground wait is cancelled before
	// it can complete.
	ErrInterrupted = errors.New("wait interrupted")
)

// WaypointError reports a waypoint that was not reached in time, with the
// desired and last-known actual positions for diagnosis.
type WaypointError struct {
	Index   int
	Desired r3.Vector
	Actual  r3.Vector
	Timeout time.Duration
}

func (e *WaypointError) Error() string {
	return fmt.Sprintf("waypoint %d timeout: desired (%g,%g,%g), actual (%.1f,%.1f,%.1f), timeout=%s",
		e.Index,
		e.Desired.X, e.Desired.Y, e.Desired.Z,
		e.Actual.X, e.Actual.Y, e.Actual.Z,
		e.Timeout)
}

func (e *WaypointError) Unwrap() error { return ErrWaypointTimeout }
