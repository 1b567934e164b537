package kitti

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-av/perception/internal/camera"
)

func TestFormatParseRoundTrip(t *testing.T) {
	t.Parallel()
	want := &camera.Object{
		Type:       camera.ObjectVehicle,
		BBox:       camera.BBox2D{Xmin: 100, Ymin: 200, Xmax: 300, Ymax: 350},
		Size:       [3]float64{4.5, 1.8, 1.5},
		Center:     camera.Point3D{X: 2.0, Y: 0.75, Z: 15.0},
		Theta:      0.2,
		Confidence: 0.9,
	}

	got, err := ParseLine(FormatObject(want))
	require.NoError(t, err)
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-6)); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestParseLine(t *testing.T) {
	t.Parallel()

	t.Run("parses a reference label", func(t *testing.T) {
		t.Parallel()
		line := "Pedestrian 0 0 -0.20 712.40 143.00 810.73 307.92 1.89 0.48 1.20 1.84 1.47 8.41 0.01 0.88"
		obj, err := ParseLine(line)
		require.NoError(t, err)
		assert.Equal(t, camera.ObjectPedestrian, obj.Type)
		assert.InDelta(t, 712.40, obj.BBox.Xmin, 1e-9)
		// Dimensions arrive as h w l and are stored l w h.
		assert.InDelta(t, 1.20, obj.Size[0], 1e-9)
		assert.InDelta(t, 0.48, obj.Size[1], 1e-9)
		assert.InDelta(t, 1.89, obj.Size[2], 1e-9)
		assert.InDelta(t, 8.41, obj.Center.Z, 1e-9)
		assert.InDelta(t, 0.88, obj.Confidence, 1e-9)
	})

	t.Run("maps truck labels to vehicle", func(t *testing.T) {
		t.Parallel()
		obj, err := ParseLine("Truck 0 0 0 0 0 10 10 2 2 6 0 0 20 0 0.5")
		require.NoError(t, err)
		assert.Equal(t, camera.ObjectVehicle, obj.Type)
	})

	t.Run("unknown labels become unknown type", func(t *testing.T) {
		t.Parallel()
		obj, err := ParseLine("Tram 0 0 0 0 0 10 10 2 2 6 0 0 20 0 0.5")
		require.NoError(t, err)
		assert.Equal(t, camera.ObjectUnknown, obj.Type)
	})

	t.Run("short line fails", func(t *testing.T) {
		t.Parallel()
		_, err := ParseLine("Car 0 0 0")
		assert.Error(t, err)
	})

	t.Run("non-numeric field fails", func(t *testing.T) {
		t.Parallel()
		_, err := ParseLine("Car 0 0 x 0 0 10 10 2 2 6 0 0 20 0 0.5")
		assert.Error(t, err)
	})
}

func TestReadObjects(t *testing.T) {
	t.Parallel()
	input := strings.Join([]string{
		"Car 0 0 0.1 100 200 300 350 1.5 1.8 4.5 2 0.75 15 0.1 0.9",
		"",
		"Cyclist 0 0 0 400 220 450 330 1.6 0.6 1.8 -1 0.8 12 0 0.7",
	}, "\n")

	objects, err := ReadObjects(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, camera.ObjectVehicle, objects[0].Type)
	assert.Equal(t, camera.ObjectBicycle, objects[1].Type)
}
