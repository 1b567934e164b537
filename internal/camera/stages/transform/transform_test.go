package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-av/perception/internal/camera"
)

const (
	testFx = 1000.0
	testFy = 1000.0
	testCx = 960.0
	testCy = 540.0
)

type namedProvider string

func (p namedProvider) SensorName() string { return string(p) }

type fixedCalibration struct {
	height float64
	pitch  float64
	ok     bool
}

func (c *fixedCalibration) Init(camera.CalibrationServiceInitOptions) error { return nil }

func (c *fixedCalibration) Update(*camera.Frame) {}

func (c *fixedCalibration) SetCameraHeightAndPitch(map[string]float64, map[string]float64, float64) {
}

func (c *fixedCalibration) QueryCameraHeightAndPitch(string) (float64, float64, bool) {
	return c.height, c.pitch, c.ok
}

func (c *fixedCalibration) Name() string { return "fixed" }

type fixedTemplates map[camera.ObjectType][3]float64

func (f fixedTemplates) TemplateSize(t camera.ObjectType) ([3]float64, bool) {
	size, ok := f[t]
	return size, ok
}

func newFrame(dets ...*camera.Object) *camera.Frame {
	return &camera.Frame{
		DataProvider:    namedProvider("front_6mm"),
		CameraKMatrix:   camera.NewPinholeIntrinsics(testFx, testFy, testCx, testCy),
		DetectedObjects: dets,
	}
}

func TestTransformRequiresIntrinsics(t *testing.T) {
	t.Parallel()
	tr := &Transformer{}
	require.NoError(t, tr.Init(camera.TransformerInitOptions{}))

	frame := newFrame()
	frame.CameraKMatrix = nil
	assert.Error(t, tr.Transform(camera.TransformerOptions{}, frame))
}

func TestTransformLiftsFootPoint(t *testing.T) {
	t.Parallel()
	tr := &Transformer{}
	require.NoError(t, tr.Init(camera.TransformerInitOptions{
		Templates: fixedTemplates{camera.ObjectVehicle: {4.5, 1.8, 1.5}},
	}))

	// Box bottom one focal length below the principal point: at height 1.5
	// and zero pitch the foot lands at Z = 1.5 straight ahead.
	det := &camera.Object{
		Type: camera.ObjectVehicle,
		BBox: camera.BBox2D{Xmin: testCx - 100, Ymin: testCy + 800, Xmax: testCx + 100, Ymax: testCy + testFy},
	}
	frame := newFrame(det)
	frame.CalibrationService = &fixedCalibration{height: 1.5, ok: true}

	require.NoError(t, tr.Transform(camera.TransformerOptions{}, frame))
	assert.Equal(t, [3]float64{4.5, 1.8, 1.5}, det.Size)
	assert.InDelta(t, 0, det.Center.X, 1e-9)
	assert.InDelta(t, 1.5, det.Center.Z, 1e-9)
	// The box centre sits half the box height above the ground point.
	assert.InDelta(t, 1.5-1.5/2, det.Center.Y, 1e-9)
}

func TestTransformFallsBackWithoutCalibration(t *testing.T) {
	t.Parallel()
	tr := &Transformer{}
	require.NoError(t, tr.Init(camera.TransformerInitOptions{}))

	det := &camera.Object{
		Type: camera.ObjectVehicle,
		BBox: camera.BBox2D{Xmin: testCx - 100, Ymin: testCy + 800, Xmax: testCx + 100, Ymax: testCy + testFy},
	}
	frame := newFrame(det)
	frame.CalibrationService = &fixedCalibration{ok: false}

	require.NoError(t, tr.Transform(camera.TransformerOptions{}, frame))
	// Fallback extrinsics put the same foot point at Z = fallbackHeight.
	assert.InDelta(t, fallbackHeight, det.Center.Z, 1e-9)
}

func TestTransformSkipsBoxesAboveHorizon(t *testing.T) {
	t.Parallel()
	tr := &Transformer{}
	require.NoError(t, tr.Init(camera.TransformerInitOptions{}))

	det := &camera.Object{
		Type:   camera.ObjectVehicle,
		BBox:   camera.BBox2D{Xmin: testCx - 100, Ymin: 100, Xmax: testCx + 100, Ymax: testCy - 50},
		Center: camera.Point3D{X: 1, Y: 2, Z: 3},
	}
	frame := newFrame(det)

	require.NoError(t, tr.Transform(camera.TransformerOptions{}, frame))
	// The unliftable box keeps whatever pose it arrived with.
	assert.Equal(t, camera.Point3D{X: 1, Y: 2, Z: 3}, det.Center)
}
