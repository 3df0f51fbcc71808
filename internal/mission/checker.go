package mission

import "github.com/golang/geo/r3"

// Reached reports whether actual lies strictly within radius meters of
// desired. NaN in either position makes the comparison false, so corrupt
// telemetry never counts as an arrival.
func Reached(desired, actual r3.Vector, radius float64) bool {
	return desired.Sub(actual).Norm() < radius
}
