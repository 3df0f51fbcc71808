// Package flightlog records flown missions into a sqlite database: one row
// per mission plus a sampled track of actual vs. commanded positions. It
// deliberately stores no pass/fail outcome; the track exists so the flown
// path can be inspected and rendered after the fact.
package flightlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/golang/geo/r3"
	_ "github.com/mattn/go-sqlite3"
)

// Store handles flight log database operations. Writes and reads use
// separate lazily opened connections so a recorder and a reader can share
// one Store.
type Store struct {
	dbPath string

	writeDB     *sql.DB
	writeDBOnce sync.Once
	writeDBErr  error

	readDB     *sql.DB
	readDBOnce sync.Once
	readDBErr  error

	closeOnce sync.Once
	closeErr  error
}

// New creates a store for the database at dbPath. The schema is initialized
// on first write.
func New(dbPath string) *Store {
	return &Store{dbPath: dbPath}
}

func (s *Store) getWriteDB() (*sql.DB, error) {
	s.writeDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "_journal_mode=WAL&_synchronous=NORMAL"))
		if err != nil {
			s.writeDBErr = fmt.Errorf("opening write connection: %w", err)
			return
		}

		if _, err = db.Exec(schemaSQL); err != nil {
			_ = db.Close()
			s.writeDBErr = fmt.Errorf("initializing schema: %w", err)
			return
		}

		s.writeDB = db
	})

	return s.writeDB, s.writeDBErr
}

func (s *Store) getReadDB() (*sql.DB, error) {
	s.readDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "mode=ro"))
		if err != nil {
			s.readDBErr = fmt.Errorf("opening read connection: %w", err)
			return
		}
		s.readDB = db
	})

	return s.readDB, s.readDBErr
}

// CreateMission creates a new mission session and returns its ID. The
// config may be a string, []byte or any JSON-serializable value; it is
// stored verbatim for later inspection.
func (s *Store) CreateMission(ctx context.Context, vehicleID string, config any) (missionID int64, err error) {
	var configData sql.NullString

	if config != nil {
		switch c := config.(type) {
		case string:
			configData.Valid = true
			configData.String = c

		case []byte:
			configData.Valid = true
			configData.String = string(c)

		default:
			var p []byte
			if p, err = json.Marshal(config); err != nil {
				err = fmt.Errorf("marshaling config: %w", err)
				return
			}

			configData.Valid = true
			configData.String = string(p)
		}
	}

	db, err := s.getWriteDB()
	if err != nil {
		err = fmt.Errorf("getting write connection: %w", err)
		return
	}

	stmt, err := db.PrepareContext(ctx, insertMissionSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	result, err := stmt.ExecContext(ctx, vehicleID, configData)
	if err != nil {
		err = fmt.Errorf("inserting mission: %w", err)
		return
	}

	missionID, err = result.LastInsertId()
	if err != nil {
		err = fmt.Errorf("getting mission ID: %w", err)
	}
	return
}

// AppendPoint stores one track point for the mission.
func (s *Store) AppendPoint(ctx context.Context, missionID int64, p TrackPoint) (err error) {
	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	var tx, ty, tz sql.NullFloat64
	if p.Target != nil {
		tx = sql.NullFloat64{Float64: p.Target.X, Valid: true}
		ty = sql.NullFloat64{Float64: p.Target.Y, Valid: true}
		tz = sql.NullFloat64{Float64: p.Target.Z, Valid: true}
	}

	var landed sql.NullString
	if p.LandedState != "" {
		landed = sql.NullString{String: p.LandedState, Valid: true}
	}

	_, err = db.ExecContext(ctx, insertTrackPointSQL,
		missionID,
		p.Timestamp.UTC(),
		p.Position.X,
		p.Position.Y,
		p.Position.Z,
		tx, ty, tz,
		landed,
	)
	if err != nil {
		return fmt.Errorf("inserting track point: %w", err)
	}
	return nil
}

// Mission retrieves one mission session by ID, or nil if not found.
func (s *Store) Mission(ctx context.Context, id int64) (mission *Mission, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	var m Mission
	var config sql.NullString
	err = db.QueryRowContext(ctx, selectMissionSQL, id).Scan(&m.ID, &m.StartTime, &m.Vehicle, &config)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning mission: %w", err)
	}
	if config.Valid {
		m.Config = &config.String
	}

	return &m, nil
}

// Missions returns all recorded mission sessions ordered by start time.
func (s *Store) Missions(ctx context.Context) (missions []*Mission, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectMissionsSQL)
	if err != nil {
		err = fmt.Errorf("querying missions: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var m Mission
		var config sql.NullString
		if err = rows.Scan(&m.ID, &m.StartTime, &m.Vehicle, &config); err != nil {
			err = fmt.Errorf("scanning mission: %w", err)
			return
		}
		if config.Valid {
			m.Config = &config.String
		}
		missions = append(missions, &m)
	}
	err = rows.Err()
	return
}

// Track returns the recorded track of a mission in chronological order.
func (s *Store) Track(ctx context.Context, missionID int64) (points []TrackPoint, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectTrackSQL, missionID)
	if err != nil {
		err = fmt.Errorf("querying track: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var p TrackPoint
		var tx, ty, tz sql.NullFloat64
		var landed sql.NullString
		if err = rows.Scan(&p.Timestamp, &p.Position.X, &p.Position.Y, &p.Position.Z, &tx, &ty, &tz, &landed); err != nil {
			err = fmt.Errorf("scanning track point: %w", err)
			return
		}
		if tx.Valid && ty.Valid && tz.Valid {
			p.Target = &r3.Vector{X: tx.Float64, Y: ty.Float64, Z: tz.Float64}
		}
		p.LandedState = landed.String
		points = append(points, p)
	}
	err = rows.Err()
	return
}

// Close releases all database connections. Safe to call multiple times.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		var writeErr, readErr error

		if s.writeDB != nil {
			writeErr = s.writeDB.Close()
			s.writeDB = nil
		}

		if s.readDB != nil {
			readErr = s.readDB.Close()
			s.readDB = nil
		}

		switch {
		case writeErr != nil && readErr != nil:
			s.closeErr = errors.Join(writeErr, readErr)
		case writeErr != nil:
			s.closeErr = writeErr
		case readErr != nil:
			s.closeErr = readErr
		}
	})

	return s.closeErr
}

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}
