package flightlog

import (
	_ "embed"
)

const (
	insertMissionSQL = `
INSERT INTO missions (
                      start_time,
                      vehicle,
                      config)
VALUES (CURRENT_TIMESTAMP, ?, ?)`

	insertTrackPointSQL = `
INSERT INTO track_points (mission_id,
                          timestamp,
                          x,
                          y,
                          z,
                          target_x,
                          target_y,
                          target_z,
                          landed_state)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	selectMissionSQL = `
SELECT
    id,
    start_time,
    vehicle,
    config
FROM missions
WHERE
    id = ?`

	selectMissionsSQL = `
SELECT
    id,
    start_time,
    vehicle,
    config
FROM missions
ORDER BY start_time, id`

	selectTrackSQL = `
SELECT
    timestamp,
    x,
    y,
    z,
    target_x,
    target_y,
    target_z,
    landed_state
FROM track_points
WHERE
    mission_id = ?
ORDER BY timestamp, id`
)

//go:embed schema.sql
var schemaSQL string
