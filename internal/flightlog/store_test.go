package flightlog

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang/geo/r3"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s := New(filepath.Join(t.TempDir(), "flight_log.sqlite"))
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing store: %v", err)
		}
	})
	return s
}

func TestStore_MissionRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, err := s.CreateMission(ctx, "sim", map[string]any{"radius": 1.0})
	if err != nil {
		t.Fatalf("CreateMission failed: %v", err)
	}
	if id <= 0 {
		t.Fatalf("expected positive mission ID, got %d", id)
	}

	m, err := s.Mission(ctx, id)
	if err != nil {
		t.Fatalf("Mission failed: %v", err)
	}
	if m == nil {
		t.Fatal("mission not found")
	}
	if m.Vehicle != "sim" {
		t.Errorf("vehicle = %q, want %q", m.Vehicle, "sim")
	}
	if m.Config == nil || !strings.Contains(*m.Config, `"radius":1`) {
		t.Errorf("config not stored as JSON: %v", m.Config)
	}
	if m.StartTime.IsZero() {
		t.Error("start time not recorded")
	}
}

func TestStore_MissionNotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.CreateMission(ctx, "sim", nil); err != nil {
		t.Fatalf("CreateMission failed: %v", err)
	}

	m, err := s.Mission(ctx, 999)
	if err != nil {
		t.Fatalf("Mission failed: %v", err)
	}
	if m != nil {
		t.Errorf("expected nil for unknown mission, got %+v", m)
	}
}

func TestStore_ConfigVariants(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	testCases := []struct {
		name   string
		config any
		want   string // empty means no config stored
	}{
		{"nil", nil, ""},
		{"string", "radius: 1.0", "radius: 1.0"},
		{"bytes", []byte("raw"), "raw"},
		{"struct", struct {
			Radius float64 `json:"radius"`
		}{1.5}, `{"radius":1.5}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			id, err := s.CreateMission(ctx, "sim", tc.config)
			if err != nil {
				t.Fatalf("CreateMission failed: %v", err)
			}

			m, err := s.Mission(ctx, id)
			if err != nil {
				t.Fatalf("Mission failed: %v", err)
			}
			switch {
			case tc.want == "" && m.Config != nil:
				t.Errorf("expected no config, got %q", *m.Config)
			case tc.want != "" && (m.Config == nil || *m.Config != tc.want):
				t.Errorf("config = %v, want %q", m.Config, tc.want)
			}
		})
	}
}

func TestStore_TrackRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, err := s.CreateMission(ctx, "sim", nil)
	if err != nil {
		t.Fatalf("CreateMission failed: %v", err)
	}

	base := time.Date(2026, time.August, 23, 10, 0, 0, 0, time.UTC)
	points := []TrackPoint{
		{
			Timestamp:   base,
			Position:    r3.Vector{X: 0, Y: 0, Z: 0},
			LandedState: "ON_GROUND",
		},
		{
			Timestamp:   base.Add(time.Second),
			Position:    r3.Vector{X: 12.3, Y: 44.1, Z: 18.9},
			Target:      &r3.Vector{X: 50, Y: 50, Z: 20},
			LandedState: "IN_AIR",
		},
		{
			Timestamp: base.Add(2 * time.Second),
			Position:  r3.Vector{X: 50, Y: 50, Z: 20},
			Target:    &r3.Vector{X: 50, Y: 50, Z: 20},
		},
	}
	for _, p := range points {
		if err = s.AppendPoint(ctx, id, p); err != nil {
			t.Fatalf("AppendPoint failed: %v", err)
		}
	}

	track, err := s.Track(ctx, id)
	if err != nil {
		t.Fatalf("Track failed: %v", err)
	}
	if len(track) != len(points) {
		t.Fatalf("expected %d track points, got %d", len(points), len(track))
	}

	for i, want := range points {
		got := track[i]
		if !got.Timestamp.Equal(want.Timestamp) {
			t.Errorf("point %d: timestamp %s, want %s", i, got.Timestamp, want.Timestamp)
		}
		if got.Position != want.Position {
			t.Errorf("point %d: position %v, want %v", i, got.Position, want.Position)
		}
		switch {
		case want.Target == nil && got.Target != nil:
			t.Errorf("point %d: unexpected target %v", i, *got.Target)
		case want.Target != nil && (got.Target == nil || *got.Target != *want.Target):
			t.Errorf("point %d: target %v, want %v", i, got.Target, *want.Target)
		}
		if got.LandedState != want.LandedState {
			t.Errorf("point %d: landed state %q, want %q", i, got.LandedState, want.LandedState)
		}
	}
}

func TestStore_TrackIsolatedPerMission(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first, err := s.CreateMission(ctx, "sim", nil)
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.CreateMission(ctx, "sim", nil)
	if err != nil {
		t.Fatal(err)
	}

	if err = s.AppendPoint(ctx, first, TrackPoint{Timestamp: time.Now(), Position: r3.Vector{X: 1}}); err != nil {
		t.Fatal(err)
	}

	track, err := s.Track(ctx, second)
	if err != nil {
		t.Fatal(err)
	}
	if len(track) != 0 {
		t.Errorf("expected empty track for second mission, got %d points", len(track))
	}

	missions, err := s.Missions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(missions) != 2 {
		t.Fatalf("expected 2 missions, got %d", len(missions))
	}
	if missions[0].ID != first || missions[1].ID != second {
		t.Errorf("missions out of order: %d, %d", missions[0].ID, missions[1].ID)
	}
}

func TestStore_CloseIdempotent(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "flight_log.sqlite"))

	if _, err := s.CreateMission(context.Background(), "sim", nil); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("first close failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second close failed: %v", err)
	}
}
