package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang/geo/r3"

	"flightcheck/internal/flightlog"
	"flightcheck/internal/mission"
	"flightcheck/internal/vehicle/sim"
)

const storageDir = "data"

// Run executes one mission per the configuration and returns an error if
// the mission failed at any stage.
func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	drone := sim.New(sim.Config{
		InitialPosition: r3.Vector{
			X: config.Vehicle.InitialPosition.X,
			Y: config.Vehicle.InitialPosition.Y,
			Z: config.Vehicle.InitialPosition.Z,
		},
		MaxSpeed:    config.Vehicle.MaxSpeed,
		DescentRate: config.Vehicle.DescentRate,
		UpdateRate:  config.Vehicle.UpdateRate,
	}, sim.WithLogger(logger))

	seq := mission.NewSequencer(drone,
		mission.WithLogger(logger),
		mission.WithRadius(config.Mission.Radius),
		mission.WithSetpointRate(config.Mission.SetpointRate),
		mission.WithCheckRate(config.Mission.CheckRate))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		drone.Run(runCtx)
	}()

	if config.FlightLog.Enabled {
		store, missionID, err := createFlightLog(ctx, config)
		if err != nil {
			return fmt.Errorf("failed to create flight log: %w", err)
		}
		defer store.Close()

		var opts []func(*flightlog.Recorder)
		opts = append(opts, flightlog.WithRecorderLogger(logger))
		if config.FlightLog.SampleIntervalSeconds > 0 {
			opts = append(opts, flightlog.WithSampleInterval(
				time.Duration(config.FlightLog.SampleIntervalSeconds*float64(time.Second))))
		}
		recorder := flightlog.NewRecorder(store, missionID, drone, seq.Target(), opts...)

		wg.Add(1)
		go func() {
			defer wg.Done()
			recorder.Run(runCtx)
		}()

		logger.Info("flight log enabled", slog.Int64("missionID", missionID))
	}

	report, err := seq.Run(ctx, config.Plan())

	cancel()
	wg.Wait()

	if err != nil {
		return fmt.Errorf("mission failed: %w", err)
	}

	for i, wp := range report.Waypoints {
		logger.Info("waypoint reached",
			slog.Int("waypoint", i),
			slog.Duration("elapsed", wp.Elapsed),
			slog.Int("polls", wp.Polls))
	}
	logger.Info("mission succeeded",
		slog.Int("waypoints", len(report.Waypoints)),
		slog.Duration("elapsed", report.Elapsed))

	return nil
}

func createFlightLog(ctx context.Context, config *Config) (*flightlog.Store, int64, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get current working directory: %w", err)
	}

	dir := config.FlightLog.DataDirectory
	if dir == "" {
		dir = storageDir
	}
	dbDir := filepath.Join(wd, dir)

	stat, err := os.Stat(dbDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, fmt.Errorf("flight log directory '%s' does not exist: %w", dbDir, err)
		}
		return nil, 0, err
	}
	if !stat.IsDir() {
		return nil, 0, fmt.Errorf("invalid flight log directory '%s'", dbDir)
	}

	dbPath := filepath.Join(dbDir, fmt.Sprintf("flight_log_%s.sqlite", time.Now().UTC().Format("20060102_150405")))
	store := flightlog.New(dbPath)

	missionID, err := store.CreateMission(ctx, config.Vehicle.ID, config.Mission)
	if err != nil {
		_ = store.Close()
		return nil, 0, err
	}

	return store, missionID, nil
}
