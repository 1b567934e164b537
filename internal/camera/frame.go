package camera

import (
	"time"

	"gonum.org/v1/gonum/mat"
)

// DataProvider is the opaque handle to one sensor capture. The orchestrator
// only needs the originating sensor's name; individual stage implementations
// may type-assert richer accessors (image planes, lane evidence) out of the
// concrete provider they were deployed with.
type DataProvider interface {
	SensorName() string
}

// Frame is the mutable per-call working context. It is created by the caller
// before each Perception call, passed by reference through every stage (each
// stage reads prior outputs and appends or overwrites its own), and discarded
// by the caller afterwards. The orchestrator retains no frame state across
// calls except what lives inside the shared stage instances.
type Frame struct {
	FrameID   int64
	Timestamp time.Time

	DataProvider DataProvider

	// CameraKMatrix is the 3×3 intrinsic matrix of the originating camera,
	// attached by the orchestrator before any stage runs.
	CameraKMatrix *mat.Dense

	// CalibrationService is the live service instance; its Update fills the
	// frame with the latest extrinsics estimated from the working sensor.
	CalibrationService CalibrationService

	DetectedObjects []*Object
	TrackedObjects  []*Object
	LaneObjects     []LaneLine

	CameraToWorldPose Pose
}

// SensorName returns the originating sensor's name, or "" when the frame has
// no data provider attached.
func (f *Frame) SensorName() string {
	if f.DataProvider == nil {
		return ""
	}
	return f.DataProvider.SensorName()
}
