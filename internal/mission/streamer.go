package mission

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"

	"flightcheck/internal/vehicle"
)

// DefaultSetpointRate is the publish rate the vehicle failsafe expects
// setpoints to arrive at, in Hz.
const DefaultSetpointRate = 10.0

// WithStreamerLogger sets the logger for the streamer.
func WithStreamerLogger(logger *slog.Logger) func(*Streamer) {
	return func(s *Streamer) {
		s.logger = logger
	}
}

// WithStreamerClock sets the clock driving the publish loop.
func WithStreamerClock(c clock.Clock) func(*Streamer) {
	return func(s *Streamer) {
		s.clock = c
	}
}

// Streamer re-transmits the current target setpoint at a fixed rate so the
// vehicle's offboard failsafe never sees a stale command stream. It runs on
// its own goroutine for the whole mission and is decoupled from convergence
// progress: it publishes whatever the target holds right now.
type Streamer struct {
	vehicle vehicle.Controller
	target  *Target
	rate    float64

	clock  clock.Clock
	logger *slog.Logger
}

// NewStreamer creates a Streamer publishing target to v at rate Hz.
func NewStreamer(v vehicle.Controller, target *Target, rate float64, options ...func(*Streamer)) *Streamer {
	s := Streamer{
		vehicle: v,
		target:  target,
		rate:    rate,
		clock:   clock.New(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if s.rate <= 0 {
		s.rate = DefaultSetpointRate
	}

	for _, option := range options {
		option(&s)
	}

	return &s
}

// Interval returns the publish period.
func (s *Streamer) Interval() time.Duration {
	return time.Duration(float64(time.Second) / s.rate)
}

// Run publishes until ctx is cancelled. Each iteration stamps the current
// setpoint and transmits it; the ticker keeps the loop from accumulating
// drift. Publish failures are logged and swallowed; the vehicle still has
// the previous setpoint. Run returns within one interval of cancellation.
func (s *Streamer) Run(ctx context.Context) {
	ticker := s.clock.Ticker(s.Interval())
	defer ticker.Stop()

	for {
		sp := s.target.Get()
		sp.Stamp = s.clock.Now()

		if err := s.vehicle.PublishSetpoint(sp); err != nil {
			s.logger.Warn(fmt.Sprintf("publishing setpoint: %s", err.Error()))
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}
