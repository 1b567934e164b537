package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-av/perception/internal/camera"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "tracks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func trackedObject(trackID string) *camera.Object {
	return &camera.Object{
		Type:       camera.ObjectVehicle,
		SensorName: "front_6mm",
		TrackID:    trackID,
		Center:     camera.Point3D{X: 1, Y: 0.75, Z: 15},
		Velocity:   camera.Point3D{X: 0.2, Z: 9.5},
		Size:       [3]float64{4.5, 1.8, 1.5},
		Theta:      0.1,
		Confidence: 0.9,
	}
}

func TestPersistTrackedObject(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	obj := trackedObject("trk_a")
	require.NoError(t, s.PersistTrackedObject(10, obj))
	require.NoError(t, s.PersistTrackedObject(11, obj))

	n, err := s.TrackObservationCount("trk_a")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestPersistRequiresTrackID(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	obj := trackedObject("")
	assert.Error(t, s.PersistTrackedObject(10, obj))
}

func TestTrackIDsOrderedByFirstAppearance(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	require.NoError(t, s.PersistTrackedObject(5, trackedObject("trk_b")))
	require.NoError(t, s.PersistTrackedObject(2, trackedObject("trk_a")))
	require.NoError(t, s.PersistTrackedObject(6, trackedObject("trk_b")))

	ids, err := s.TrackIDs("front_6mm")
	require.NoError(t, err)
	assert.Equal(t, []string{"trk_a", "trk_b"}, ids)

	ids, err = s.TrackIDs("rear_6mm")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestObservationCountForUnknownTrack(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	n, err := s.TrackObservationCount("trk_missing")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOpenCreatesSchemaIdempotently(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "tracks.db")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.PersistTrackedObject(1, trackedObject("trk_a")))
	require.NoError(t, s1.Close())

	// Reopening an existing database keeps its rows.
	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()
	n, err := s2.TrackObservationCount("trk_a")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
