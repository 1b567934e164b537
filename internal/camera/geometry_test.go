package camera

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIntrinsics() (fx, fy, cx, cy float64) {
	return 1000, 1000, 960, 540
}

func TestBackProject(t *testing.T) {
	t.Parallel()
	fx, fy, cx, cy := testIntrinsics()
	k := NewPinholeIntrinsics(fx, fy, cx, cy)

	t.Run("principal point maps to optical axis", func(t *testing.T) {
		ray, err := BackProject(k, Point2D{X: cx, Y: cy})
		require.NoError(t, err)
		assert.InDelta(t, 0, ray.X, 1e-9)
		assert.InDelta(t, 0, ray.Y, 1e-9)
		assert.InDelta(t, 1, ray.Z, 1e-9)
	})

	t.Run("offset point tilts the ray", func(t *testing.T) {
		ray, err := BackProject(k, Point2D{X: cx + fx, Y: cy})
		require.NoError(t, err)
		assert.InDelta(t, 1, ray.X, 1e-9)
		assert.InDelta(t, 1, ray.Z, 1e-9)
	})
}

func TestProjectToGround(t *testing.T) {
	t.Parallel()
	fx, fy, cx, cy := testIntrinsics()
	k := NewPinholeIntrinsics(fx, fy, cx, cy)
	const height = 1.5

	t.Run("point below principal point lands on the ground", func(t *testing.T) {
		// One focal length below the principal point the ray slopes down at
		// 45 degrees, so it meets the ground at Z = height.
		pt, ok := ProjectToGround(k, height, 0, Point2D{X: cx, Y: cy + fy})
		require.True(t, ok)
		assert.InDelta(t, 0, pt.X, 1e-9)
		assert.InDelta(t, height, pt.Y, 1e-9)
		assert.InDelta(t, height, pt.Z, 1e-9)
	})

	t.Run("point above the horizon misses", func(t *testing.T) {
		_, ok := ProjectToGround(k, height, 0, Point2D{X: cx, Y: cy - 200})
		assert.False(t, ok)
	})

	t.Run("pitch shifts the horizon", func(t *testing.T) {
		// A downward pitch tips the principal ray into the ground.
		pitch := math.Atan2(100, fy)
		_, okFlat := ProjectToGround(k, height, 0, Point2D{X: cx, Y: cy})
		pt, okPitched := ProjectToGround(k, height, pitch, Point2D{X: cx, Y: cy})
		assert.False(t, okFlat)
		require.True(t, okPitched)
		assert.Greater(t, pt.Z, 0.0)
	})

	t.Run("farther rows land farther away", func(t *testing.T) {
		near, ok := ProjectToGround(k, height, 0, Point2D{X: cx, Y: cy + 400})
		require.True(t, ok)
		far, ok := ProjectToGround(k, height, 0, Point2D{X: cx, Y: cy + 100})
		require.True(t, ok)
		assert.Greater(t, far.Z, near.Z)
	})
}

func TestStaticModelResolver(t *testing.T) {
	t.Parallel()
	resolver := StaticModelResolver{
		"front_6mm": {Name: "front_6mm", Width: 1920, Height: 1080},
	}

	m, err := resolver.ResolveCameraModel("front_6mm")
	require.NoError(t, err)
	assert.Equal(t, "front_6mm", m.Name)

	_, err = resolver.ResolveCameraModel("rear_6mm")
	require.Error(t, err)
	var unknown *UnknownSensorError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "rear_6mm", unknown.Sensor)
}
