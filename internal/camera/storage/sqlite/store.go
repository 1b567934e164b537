// Package sqlite persists finalized tracked objects and their per-frame
// observations. Persistence is optional plumbing around the pipeline: a
// failed insert is logged, never fatal to the frame that produced it.
package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/meridian-av/perception/internal/camera"
)

const schema = `
CREATE TABLE IF NOT EXISTS camera_tracks (
	track_id TEXT PRIMARY KEY,
	sensor_name TEXT NOT NULL,
	object_type TEXT NOT NULL,
	first_frame_id INTEGER NOT NULL,
	last_frame_id INTEGER NOT NULL,
	observation_count INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS camera_track_obs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	track_id TEXT NOT NULL,
	frame_id INTEGER NOT NULL,
	sensor_name TEXT NOT NULL,
	x REAL NOT NULL, y REAL NOT NULL, z REAL NOT NULL,
	velocity_x REAL NOT NULL, velocity_z REAL NOT NULL,
	theta REAL NOT NULL,
	length REAL NOT NULL, width REAL NOT NULL, height REAL NOT NULL,
	confidence REAL NOT NULL,
	FOREIGN KEY(track_id) REFERENCES camera_tracks(track_id)
);
CREATE INDEX IF NOT EXISTS idx_camera_track_obs_track
	ON camera_track_obs(track_id, frame_id);
`

// Store wraps the tracks database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the tracks database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open track db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create track schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// PersistTrackedObject upserts the track record and appends one observation
// for this frame.
func (s *Store) PersistTrackedObject(frameID int64, obj *camera.Object) error {
	if obj.TrackID == "" {
		return fmt.Errorf("object has no track id")
	}

	// ON CONFLICT DO UPDATE rather than INSERT OR REPLACE so observation
	// rows survive the upsert.
	_, err := s.db.Exec(`
		INSERT INTO camera_tracks (
			track_id, sensor_name, object_type,
			first_frame_id, last_frame_id, observation_count
		) VALUES (?, ?, ?, ?, ?, 1)
		ON CONFLICT(track_id) DO UPDATE SET
			sensor_name = excluded.sensor_name,
			object_type = excluded.object_type,
			last_frame_id = excluded.last_frame_id,
			observation_count = observation_count + 1
	`, obj.TrackID, obj.SensorName, string(obj.Type), frameID, frameID)
	if err != nil {
		return fmt.Errorf("upsert track %s: %w", obj.TrackID, err)
	}

	_, err = s.db.Exec(`
		INSERT INTO camera_track_obs (
			track_id, frame_id, sensor_name,
			x, y, z, velocity_x, velocity_z, theta,
			length, width, height, confidence
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, obj.TrackID, frameID, obj.SensorName,
		obj.Center.X, obj.Center.Y, obj.Center.Z,
		obj.Velocity.X, obj.Velocity.Z, obj.Theta,
		obj.Size[0], obj.Size[1], obj.Size[2], obj.Confidence)
	if err != nil {
		return fmt.Errorf("insert observation for track %s: %w", obj.TrackID, err)
	}
	return nil
}

// TrackObservationCount returns the number of stored observations for a track.
func (s *Store) TrackObservationCount(trackID string) (int, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM camera_track_obs WHERE track_id = ?`, trackID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count observations for track %s: %w", trackID, err)
	}
	return n, nil
}

// TrackIDs returns every persisted track id for a sensor, ordered by first
// appearance.
func (s *Store) TrackIDs(sensorName string) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT track_id FROM camera_tracks WHERE sensor_name = ? ORDER BY first_frame_id, track_id`,
		sensorName,
	)
	if err != nil {
		return nil, fmt.Errorf("query tracks for %s: %w", sensorName, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan track id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
