package flightlog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"

	"flightcheck/internal/mission"
	"flightcheck/internal/vehicle"
)

// DefaultSampleInterval is how often the recorder samples the vehicle.
const DefaultSampleInterval = time.Second

// StateReporter is optionally implemented by vehicles that expose their
// landed state outside the control interface.
type StateReporter interface {
	LandedState() vehicle.LandedState
}

// WithRecorderLogger sets the logger for the recorder.
func WithRecorderLogger(logger *slog.Logger) func(*Recorder) {
	return func(r *Recorder) {
		r.logger = logger
	}
}

// WithRecorderClock sets the clock driving the sampling loop.
func WithRecorderClock(c clock.Clock) func(*Recorder) {
	return func(r *Recorder) {
		r.clock = c
	}
}

// WithSampleInterval sets the sampling period.
func WithSampleInterval(d time.Duration) func(*Recorder) {
	return func(r *Recorder) {
		if d > 0 {
			r.interval = d
		}
	}
}

// Recorder samples the vehicle's position and the current commanded target
// at a fixed interval and appends them to the flight log. It runs as a
// best-effort companion loop: a failed write is logged and the next sample
// proceeds, and the mission outcome never depends on it.
type Recorder struct {
	store     *Store
	missionID int64
	vehicle   vehicle.Controller
	target    *mission.Target

	interval time.Duration
	clock    clock.Clock
	logger   *slog.Logger
}

// NewRecorder creates a recorder appending v's track to store under
// missionID. The target holder supplies the commanded position per sample.
func NewRecorder(store *Store, missionID int64, v vehicle.Controller, target *mission.Target, options ...func(*Recorder)) *Recorder {
	r := Recorder{
		store:     store,
		missionID: missionID,
		vehicle:   v,
		target:    target,
		interval:  DefaultSampleInterval,
		clock:     clock.New(),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&r)
	}

	return &r
}

// Run samples until ctx is cancelled.
func (r *Recorder) Run(ctx context.Context) {
	ticker := r.clock.Ticker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := r.sample(ctx); err != nil {
				r.logger.Warn(fmt.Sprintf("recording track point: %s", err.Error()))
			}
		case <-ctx.Done():
			return
		}
	}
}

func (r *Recorder) sample(ctx context.Context) error {
	sp := r.target.Get()
	p := TrackPoint{
		Timestamp: r.clock.Now(),
		Position:  r.vehicle.LocalPosition(),
		Target:    &sp.Position,
	}

	if sr, ok := r.vehicle.(StateReporter); ok {
		p.LandedState = sr.LandedState().String()
	}

	return r.store.AppendPoint(ctx, r.missionID, p)
}
