// Package sim provides a kinematic point-mass vehicle implementing the
// vehicle.Controller interface, used in place of a real autopilot bridge.
package sim

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r3"

	"flightcheck/internal/vehicle"
)

const (
	// DefaultUpdateRate is the simulation step rate in Hz.
	DefaultUpdateRate = 50.0

	// groundEpsilon is the altitude below which the vehicle counts as on
	// the ground.
	groundEpsilon = 0.05

	// statePollInterval is how often the bounded waits re-check simulator
	// state.
	statePollInterval = 100 * time.Millisecond
)

// Config describes the simulated vehicle's flight envelope.
type Config struct {
	// InitialPosition is the spawn point in the local frame, meters.
	InitialPosition r3.Vector

	// MaxSpeed is the straight-line speed toward the setpoint in m/s.
	MaxSpeed float64

	// DescentRate is the AUTO.LAND sink rate in m/s.
	DescentRate float64

	// UpdateRate is the simulation step rate in Hz.
	UpdateRate float64
}

// WithLogger sets the logger for the vehicle.
func WithLogger(logger *slog.Logger) func(*Vehicle) {
	return func(v *Vehicle) {
		v.logger = logger
	}
}

// WithClock sets the clock driving the simulation loop and bounded waits.
func WithClock(c clock.Clock) func(*Vehicle) {
	return func(v *Vehicle) {
		v.clock = c
	}
}

// Vehicle is a simulated vehicle. It flies straight toward the last
// published setpoint while armed in OFFBOARD mode and descends to the
// ground in AUTO.LAND. All methods are safe for concurrent use.
type Vehicle struct {
	cfg Config

	mu        sync.Mutex
	pos       r3.Vector
	setpoint  vehicle.Setpoint
	hasTarget bool
	mode      string
	armed     bool
	ready     bool
	publishes int

	clock  clock.Clock
	logger *slog.Logger
}

// New creates a simulated vehicle at cfg.InitialPosition. The simulation
// does not advance until Run is started.
func New(cfg Config, options ...func(*Vehicle)) *Vehicle {
	if cfg.UpdateRate <= 0 {
		cfg.UpdateRate = DefaultUpdateRate
	}

	v := Vehicle{
		cfg:    cfg,
		pos:    cfg.InitialPosition,
		clock:  clock.New(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&v)
	}

	return &v
}

// Run steps the simulation until ctx is cancelled.
func (v *Vehicle) Run(ctx context.Context) {
	dt := 1 / v.cfg.UpdateRate
	ticker := v.clock.Ticker(time.Duration(float64(time.Second) * dt))
	defer ticker.Stop()

	v.logger.Info("simulation started",
		slog.Float64("maxSpeed", v.cfg.MaxSpeed),
		slog.Float64("updateRate", v.cfg.UpdateRate))

	for {
		select {
		case <-ticker.C:
			v.step(dt)
		case <-ctx.Done():
			v.logger.Info("simulation stopped")
			return
		}
	}
}

func (v *Vehicle) step(dt float64) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.ready = true

	switch {
	case v.mode == vehicle.ModeOffboard && v.armed && v.hasTarget:
		v.pos = stepToward(v.pos, v.setpoint.Position, v.cfg.MaxSpeed*dt)

	case v.mode == vehicle.ModeAutoLand:
		ground := r3.Vector{X: v.pos.X, Y: v.pos.Y, Z: 0}
		v.pos = stepToward(v.pos, ground, v.cfg.DescentRate*dt)
	}
}

// stepToward moves from toward to by at most step meters.
func stepToward(from, to r3.Vector, step float64) r3.Vector {
	delta := to.Sub(from)
	dist := delta.Norm()
	if dist <= step || dist == 0 {
		return to
	}
	return from.Add(delta.Mul(step / dist))
}

// PublishSetpoint records sp as the current navigation target.
func (v *Vehicle) PublishSetpoint(sp vehicle.Setpoint) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.setpoint = sp
	v.hasTarget = true
	v.publishes++
	return nil
}

// Publishes returns the number of setpoints received so far.
func (v *Vehicle) Publishes() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.publishes
}

// LocalPosition returns the current simulated position.
func (v *Vehicle) LocalPosition() r3.Vector {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pos
}

// LandedState derives ground contact from altitude.
func (v *Vehicle) LandedState() vehicle.LandedState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.landedStateLocked()
}

func (v *Vehicle) landedStateLocked() vehicle.LandedState {
	if v.pos.Z < groundEpsilon {
		return vehicle.LandedStateOnGround
	}
	return vehicle.LandedStateInAir
}

// WaitForTelemetry blocks until the simulation loop has produced its first
// state update.
func (v *Vehicle) WaitForTelemetry(ctx context.Context, timeout time.Duration) error {
	return v.waitFor(ctx, timeout, "telemetry ready", func() bool {
		v.mu.Lock()
		defer v.mu.Unlock()
		return v.ready
	})
}

// WaitForLandedState blocks until the vehicle reports state, for at most
// timeout+tolerance.
func (v *Vehicle) WaitForLandedState(ctx context.Context, state vehicle.LandedState, timeout, tolerance time.Duration) error {
	return v.waitFor(ctx, timeout+tolerance, fmt.Sprintf("landed state %s", state), func() bool {
		v.mu.Lock()
		defer v.mu.Unlock()
		return v.landedStateLocked() == state
	})
}

// SetMode switches the flight mode. The simulator confirms immediately.
func (v *Vehicle) SetMode(ctx context.Context, mode string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.mode = mode
	v.logger.Info("mode changed", slog.String("mode", mode))
	return nil
}

// SetArmed arms or disarms the vehicle. The simulator confirms immediately.
func (v *Vehicle) SetArmed(ctx context.Context, armed bool, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.armed = armed
	v.logger.Info("armed state changed", slog.Bool("armed", armed))
	return nil
}

// waitFor polls cond until it holds or the deadline passes.
func (v *Vehicle) waitFor(ctx context.Context, timeout time.Duration, what string, cond func() bool) error {
	deadline := v.clock.Now().Add(timeout)
	ticker := v.clock.Ticker(statePollInterval)
	defer ticker.Stop()

	for {
		if cond() {
			return nil
		}
		if !v.clock.Now().Before(deadline) {
			return fmt.Errorf("timed out waiting for %s after %s", what, timeout)
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
