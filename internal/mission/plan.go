package mission

import (
	"fmt"
	"time"

	"github.com/golang/geo/r3"
)

// Waypoint is one target position with the time budget for reaching it.
// Immutable once part of a plan.
type Waypoint struct {
	Position r3.Vector
	Timeout  time.Duration
}

// Plan is an ordered sequence of waypoints. Order is execution order:
// waypoints are never reordered, skipped or retried.
type Plan struct {
	Waypoints []Waypoint
}

// Validate checks the plan is executable.
func (p Plan) Validate() error {
	if len(p.Waypoints) == 0 {
		return fmt.Errorf("mission plan has no waypoints")
	}
	for i, wp := range p.Waypoints {
		if wp.Timeout <= 0 {
			return fmt.Errorf("waypoint %d: timeout must be positive, got %s", i, wp.Timeout)
		}
	}
	return nil
}

// WaypointResult records how a single waypoint was reached.
type WaypointResult struct {
	Target  r3.Vector
	Elapsed time.Duration
	Polls   int
}

// Report summarizes a completed mission.
type Report struct {
	Waypoints []WaypointResult
	Elapsed   time.Duration
}
