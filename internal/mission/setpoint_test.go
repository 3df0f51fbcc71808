package mission

import (
	"math"
	"sync"
	"testing"

	"github.com/golang/geo/r3"
)

func TestTarget_SetGet(t *testing.T) {
	target := NewTarget()

	sp := target.Get()
	if sp.Position != (r3.Vector{}) {
		t.Errorf("new target should be at origin, got %v", sp.Position)
	}
	if sp.Orientation.Real != 1 {
		t.Errorf("new target should face north, got %v", sp.Orientation)
	}

	target.Set(r3.Vector{X: 50, Y: -50, Z: 20}, 0)

	sp = target.Get()
	if sp.Position != (r3.Vector{X: 50, Y: -50, Z: 20}) {
		t.Errorf("unexpected position %v", sp.Position)
	}
}

// Concurrent readers must never observe a setpoint whose position fields
// were written by different Set calls.
func TestTarget_NoTornReads(t *testing.T) {
	target := NewTarget()

	const writes = 5000
	done := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
			}

			sp := target.Get()
			if sp.Position.X != sp.Position.Y || sp.Position.X != sp.Position.Z {
				t.Errorf("torn read: %v", sp.Position)
				return
			}
		}
	}()

	for i := 0; i < writes; i++ {
		v := float64(i)
		target.Set(r3.Vector{X: v, Y: v, Z: v}, 0)
	}
	close(done)
	wg.Wait()
}

func TestQuaternionFromYaw(t *testing.T) {
	testCases := []struct {
		name     string
		yaw      float64
		wantReal float64
		wantKmag float64
	}{
		{"north", 0, 1, 0},
		{"east", math.Pi / 2, math.Cos(math.Pi / 4), math.Sin(math.Pi / 4)},
		{"south", math.Pi, 0, 1},
		{"west", -math.Pi / 2, math.Cos(math.Pi / 4), -math.Sin(math.Pi / 4)},
	}

	const tolerance = 1e-12
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			q := QuaternionFromYaw(tc.yaw)
			if math.Abs(q.Real-tc.wantReal) > tolerance {
				t.Errorf("Real = %g, want %g", q.Real, tc.wantReal)
			}
			if math.Abs(q.Kmag-tc.wantKmag) > tolerance {
				t.Errorf("Kmag = %g, want %g", q.Kmag, tc.wantKmag)
			}
			if q.Imag != 0 || q.Jmag != 0 {
				t.Errorf("roll/pitch components should be zero, got %v", q)
			}
		})
	}
}
