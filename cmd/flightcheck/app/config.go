package app

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"flightcheck/internal/mission"

	"github.com/golang/geo/r3"
)

// Config represents the main application configuration
type Config struct {
	Settings  Settings       `yaml:"settings"`
	Vehicle   VehicleConfig  `yaml:"vehicle"`
	Mission   MissionConfig  `yaml:"mission"`
	FlightLog FlightLogConfig `yaml:"flightLog"`
}

// Settings represents global application settings
type Settings struct {
	LogLevel string `yaml:"logLevel"`
}

// VehicleConfig describes the simulated vehicle.
type VehicleConfig struct {
	ID              string     `yaml:"id"`
	InitialPosition PointConfig `yaml:"initialPosition"`
	MaxSpeed        float64    `yaml:"maxSpeed"`
	DescentRate     float64    `yaml:"descentRate"`
	UpdateRate      float64    `yaml:"updateRate"`
}

// MissionConfig describes the mission plan and its tolerances.
type MissionConfig struct {
	Radius       float64          `yaml:"radius"`
	SetpointRate float64          `yaml:"setpointRate"`
	CheckRate    float64          `yaml:"checkRate"`
	Waypoints    []WaypointConfig `yaml:"waypoints"`
}

// WaypointConfig is one waypoint entry: a position in meters with its
// arrival timeout in seconds.
type WaypointConfig struct {
	PointConfig    `yaml:",inline"`
	TimeoutSeconds float64 `yaml:"timeout"`
}

// PointConfig is a position in the local frame, meters.
type PointConfig struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

// FlightLogConfig represents flight log settings
type FlightLogConfig struct {
	Enabled               bool    `yaml:"enabled"`
	DataDirectory         string  `yaml:"dataDirectory"`
	SampleIntervalSeconds float64 `yaml:"sampleInterval"`
}

// LoadConfig reads and validates the configuration file at path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading configuration file: %w", err)
	}

	config := Config{
		Settings: Settings{LogLevel: "info"},
		Vehicle: VehicleConfig{
			ID:          "sim",
			MaxSpeed:    12,
			DescentRate: 2,
		},
		Mission: MissionConfig{
			Radius:       mission.DefaultRadius,
			SetpointRate: mission.DefaultSetpointRate,
			CheckRate:    mission.DefaultCheckRate,
		},
	}
	if err = yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing configuration file: %w", err)
	}

	if err = config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) validate() error {
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if c.Mission.Radius <= 0 {
		return fmt.Errorf("mission radius must be positive, got %g", c.Mission.Radius)
	}
	if c.Mission.SetpointRate <= 0 || c.Mission.CheckRate <= 0 {
		return fmt.Errorf("setpoint and check rates must be positive")
	}
	if len(c.Mission.Waypoints) == 0 {
		return fmt.Errorf("no waypoints specified in configuration")
	}
	for i, wp := range c.Mission.Waypoints {
		if wp.TimeoutSeconds <= 0 {
			return fmt.Errorf("waypoint %d: timeout must be positive, got %g", i, wp.TimeoutSeconds)
		}
	}
	return nil
}

// SlogLevel parses the configured log level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Settings.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.Settings.LogLevel, err)
	}
	return level, nil
}

// Plan converts the configured waypoints into a mission plan.
func (c *Config) Plan() mission.Plan {
	plan := mission.Plan{Waypoints: make([]mission.Waypoint, 0, len(c.Mission.Waypoints))}
	for _, wp := range c.Mission.Waypoints {
		plan.Waypoints = append(plan.Waypoints, mission.Waypoint{
			Position: r3.Vector{X: wp.X, Y: wp.Y, Z: wp.Z},
			Timeout:  time.Duration(wp.TimeoutSeconds * float64(time.Second)),
		})
	}
	return plan
}
