package monitor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-av/perception/internal/camera"
)

type namedProvider string

func (p namedProvider) SensorName() string { return string(p) }

type fixedCalibration struct{ pitch float64 }

func (c *fixedCalibration) Init(camera.CalibrationServiceInitOptions) error { return nil }

func (c *fixedCalibration) Update(*camera.Frame) {}

func (c *fixedCalibration) SetCameraHeightAndPitch(map[string]float64, map[string]float64, float64) {
}

func (c *fixedCalibration) QueryCameraHeightAndPitch(string) (float64, float64, bool) {
	return 1.5, c.pitch, true
}

func (c *fixedCalibration) Name() string { return "fixed" }

func TestFlushWithoutSamplesWritesNothing(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	tp, err := NewTrajectoryPlotter(dir)
	require.NoError(t, err)

	require.NoError(t, tp.Flush())
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSampleAndFlush(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	tp, err := NewTrajectoryPlotter(dir)
	require.NoError(t, err)

	for i := int64(0); i < 5; i++ {
		tp.Sample(&camera.Frame{
			FrameID:            i,
			DataProvider:       namedProvider("front_6mm"),
			CalibrationService: &fixedCalibration{pitch: 0.02},
			TrackedObjects: []*camera.Object{
				{TrackID: "trk_a", Center: camera.Point3D{X: float64(i) * 0.1, Z: 15 + float64(i)}},
				{TrackID: "trk_b", Center: camera.Point3D{X: -2, Z: 30 - float64(i)}},
			},
		})
	}

	require.NoError(t, tp.Flush())

	for _, name := range []string{"trajectories.png", "pitch.png"} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, "expected %s", name)
		assert.Greater(t, info.Size(), int64(0))
	}
}

func TestSampleIgnoresUntrackedObjects(t *testing.T) {
	t.Parallel()
	tp, err := NewTrajectoryPlotter(t.TempDir())
	require.NoError(t, err)

	tp.Sample(&camera.Frame{
		DataProvider:   namedProvider("front_6mm"),
		TrackedObjects: []*camera.Object{{TrackID: ""}},
	})
	assert.Empty(t, tp.trajectories)
}
