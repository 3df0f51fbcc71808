package flightlog

import (
	"time"

	"github.com/golang/geo/r3"
)

// Mission is one recorded mission session.
type Mission struct {
	ID        int64
	StartTime time.Time
	Vehicle   string
	Config    *string
}

// TrackPoint is one sampled state of the vehicle: the actual position and,
// when known, the target commanded at that moment.
type TrackPoint struct {
	Timestamp   time.Time
	Position    r3.Vector
	Target      *r3.Vector
	LandedState string
}
