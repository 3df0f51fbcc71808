package mission

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r3"

	"flightcheck/internal/vehicle"
)

// Defaults mirror the autopilot acceptance-test conventions.
const (
	DefaultCheckRate        = 2.0 // Hz
	DefaultRadius           = 1.0 // meters
	DefaultTelemetryTimeout = 60 * time.Second
	DefaultGroundedTimeout  = 10 * time.Second
	DefaultCommandTimeout   = 5 * time.Second
	DefaultLandingTimeout   = 45 * time.Second
)

// WithLogger sets the logger for the sequencer and its streamer.
func WithLogger(logger *slog.Logger) func(*Sequencer) {
	return func(s *Sequencer) {
		s.logger = logger
	}
}

// WithClock sets the clock driving both mission loops.
func WithClock(c clock.Clock) func(*Sequencer) {
	return func(s *Sequencer) {
		s.clock = c
	}
}

// WithRadius sets the convergence radius in meters, applied uniformly to
// every waypoint.
func WithRadius(radius float64) func(*Sequencer) {
	return func(s *Sequencer) {
		s.radius = radius
	}
}

// WithSetpointRate sets the background publish rate in Hz.
func WithSetpointRate(rate float64) func(*Sequencer) {
	return func(s *Sequencer) {
		s.setpointRate = rate
	}
}

// WithCheckRate sets the convergence polling rate in Hz.
func WithCheckRate(rate float64) func(*Sequencer) {
	return func(s *Sequencer) {
		s.checkRate = rate
	}
}

// WithSetupTimeouts overrides the bounded waits around the waypoint phase:
// telemetry readiness, grounded precondition, mode/arm confirmation and the
// final landing wait.
func WithSetupTimeouts(telemetry, grounded, command, landing time.Duration) func(*Sequencer) {
	return func(s *Sequencer) {
		s.telemetryTimeout = telemetry
		s.groundedTimeout = grounded
		s.commandTimeout = command
		s.landingTimeout = landing
	}
}

// Sequencer executes one mission plan against one vehicle: it streams
// setpoints in the background, walks the setup state machine, drives each
// waypoint to convergence and lands. A fatal condition at any stage halts
// the mission; nothing is retried.
type Sequencer struct {
	vehicle vehicle.Controller
	target  *Target

	radius       float64
	setpointRate float64
	checkRate    float64

	telemetryTimeout time.Duration
	groundedTimeout  time.Duration
	commandTimeout   time.Duration
	landingTimeout   time.Duration

	clock  clock.Clock
	logger *slog.Logger
}

// NewSequencer creates a Sequencer for the given vehicle with a discard
// logger and real clock.
func NewSequencer(v vehicle.Controller, options ...func(*Sequencer)) *Sequencer {
	s := Sequencer{
		vehicle:          v,
		target:           NewTarget(),
		radius:           DefaultRadius,
		setpointRate:     DefaultSetpointRate,
		checkRate:        DefaultCheckRate,
		telemetryTimeout: DefaultTelemetryTimeout,
		groundedTimeout:  DefaultGroundedTimeout,
		commandTimeout:   DefaultCommandTimeout,
		landingTimeout:   DefaultLandingTimeout,
		clock:            clock.New(),
		logger:           slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&s)
	}

	return &s
}

// Target exposes the shared setpoint holder. The sequencer is its only
// writer; everything else reads.
func (s *Sequencer) Target() *Target {
	return s.target
}

// Run executes plan and returns a report on success. On failure the
// returned error wraps one of the mission sentinel errors. The background
// streamer is cancelled and drained on every exit path.
func (s *Sequencer) Run(ctx context.Context, plan Plan) (*Report, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	start := s.clock.Now()

	streamCtx, cancel := context.WithCancel(ctx)
	streamer := NewStreamer(s.vehicle, s.target, s.setpointRate,
		WithStreamerClock(s.clock), WithStreamerLogger(s.logger))

	streamDone := make(chan struct{})
	go func() {
		defer close(streamDone)
		streamer.Run(streamCtx)
	}()
	defer func() {
		cancel()
		<-streamDone
	}()

	if err := s.vehicle.WaitForTelemetry(ctx, s.telemetryTimeout); err != nil {
		return nil, fmt.Errorf("%w: telemetry not ready after %s: %w", ErrSetupTimeout, s.telemetryTimeout, err)
	}

	if err := s.vehicle.WaitForLandedState(ctx, vehicle.LandedStateOnGround, s.groundedTimeout, -time.Second); err != nil {
		return nil, fmt.Errorf("%w: vehicle not on ground after %s: %w", ErrSetupTimeout, s.groundedTimeout, err)
	}

	if err := s.vehicle.SetMode(ctx, vehicle.ModeOffboard, s.commandTimeout); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrModeSwitch, vehicle.ModeOffboard, err)
	}

	if err := s.vehicle.SetArmed(ctx, true, s.commandTimeout); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrArm, err)
	}

	s.logger.Info("running mission", slog.Int("waypoints", len(plan.Waypoints)))

	report := Report{Waypoints: make([]WaypointResult, 0, len(plan.Waypoints))}
	for i, wp := range plan.Waypoints {
		result, err := s.ReachPosition(ctx, i, wp)
		if err != nil {
			return nil, err
		}

		s.logger.Info("position reached",
			slog.Int("waypoint", i),
			slog.Duration("elapsed", result.Elapsed),
			slog.Duration("timeout", wp.Timeout))

		report.Waypoints = append(report.Waypoints, result)
	}

	if err := s.vehicle.SetMode(ctx, vehicle.ModeAutoLand, s.commandTimeout); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrModeSwitch, vehicle.ModeAutoLand, err)
	}

	if err := s.vehicle.WaitForLandedState(ctx, vehicle.LandedStateOnGround, s.landingTimeout, 0); err != nil {
		return nil, fmt.Errorf("%w: not on ground after %s: %w", ErrLandingTimeout, s.landingTimeout, err)
	}

	if err := s.vehicle.SetArmed(ctx, false, s.commandTimeout); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDisarm, err)
	}

	report.Elapsed = s.clock.Since(start)
	return &report, nil
}

// ReachPosition commits wp as the live target and polls the vehicle at the
// check rate until it converges or the budget of timeout*checkRate polls is
// spent. The first convergent poll wins. Cancellation mid-wait is a hard
// failure surfaced as ErrInterrupted.
func (s *Sequencer) ReachPosition(ctx context.Context, index int, wp Waypoint) (WaypointResult, error) {
	// Fixed north-facing yaw for every waypoint.
	s.target.Set(wp.Position, 0)

	s.logger.Info("attempting to reach position",
		slog.Int("waypoint", index),
		slog.Group("desired",
			slog.Float64("x", wp.Position.X),
			slog.Float64("y", wp.Position.Y),
			slog.Float64("z", wp.Position.Z)))

	start := s.clock.Now()
	interval := time.Duration(float64(time.Second) / s.checkRate)
	attempts := int(wp.Timeout.Seconds() * s.checkRate)

	ticker := s.clock.Ticker(interval)
	defer ticker.Stop()

	var actual r3.Vector
	for i := 0; i < attempts; i++ {
		actual = s.vehicle.LocalPosition()
		if Reached(wp.Position, actual, s.radius) {
			return WaypointResult{
				Target:  wp.Position,
				Elapsed: s.clock.Since(start),
				Polls:   i + 1,
			}, nil
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return WaypointResult{}, fmt.Errorf("%w: %w", ErrInterrupted, ctx.Err())
		}
	}

	return WaypointResult{}, &WaypointError{
		Index:   index,
		Desired: wp.Position,
		Actual:  actual,
		Timeout: wp.Timeout,
	}
}
