package camera

import "gonum.org/v1/gonum/mat"

// CameraModel describes one physical camera: its name, image dimensions,
// and 3×3 pinhole intrinsic matrix.
type CameraModel struct {
	Name   string
	Width  int
	Height int

	// Intrinsics is the 3×3 camera matrix K.
	Intrinsics *mat.Dense
}

// NewPinholeIntrinsics builds a 3×3 intrinsic matrix from focal lengths and
// principal point, all in pixels.
func NewPinholeIntrinsics(fx, fy, cx, cy float64) *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		fx, 0, cx,
		0, fy, cy,
		0, 0, 1,
	})
}

// ModelResolver resolves a configured camera name to its camera model.
// The production implementation reads calibration artifacts from disk; tests
// supply a fixed map.
type ModelResolver interface {
	ResolveCameraModel(name string) (*CameraModel, error)
}

// StaticModelResolver is a ModelResolver backed by a fixed name→model map.
type StaticModelResolver map[string]*CameraModel

// ResolveCameraModel implements ModelResolver.
func (r StaticModelResolver) ResolveCameraModel(name string) (*CameraModel, error) {
	m, ok := r[name]
	if !ok {
		return nil, &UnknownSensorError{Sensor: name}
	}
	return m, nil
}

// UnknownSensorError reports a camera name with no configured model or
// intrinsics entry. It signals a configuration/runtime mismatch, not
// transient sensor noise.
type UnknownSensorError struct {
	Sensor string
}

func (e *UnknownSensorError) Error() string {
	return "unknown sensor " + e.Sensor
}
