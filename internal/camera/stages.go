package camera

import "gonum.org/v1/gonum/mat"

// Capability interfaces for the pluggable processing stages. Each stage is a
// black box to the orchestrator: construction happens by registered plugin
// name, Init runs exactly once, and the per-frame operations mutate the
// Frame in place. A non-nil error from a per-frame operation aborts the
// remainder of that frame.

// DetectorInitOptions configures one per-camera obstacle detector.
type DetectorInitOptions struct {
	RootDir     string
	ConfFile    string
	GPUID       int
	CameraModel *CameraModel
}

// DetectorOptions carries per-frame detection options.
type DetectorOptions struct{}

// Detector finds obstacles in a single camera frame.
type Detector interface {
	Init(options DetectorInitOptions) error
	Detect(options DetectorOptions, frame *Frame) error
	Name() string
}

// TrackerInitOptions configures the shared obstacle tracker.
type TrackerInitOptions struct {
	ImageWidth  int
	ImageHeight int
	GPUID       int
	RootDir     string
	ConfFile    string
}

// TrackerOptions carries per-frame tracking options.
type TrackerOptions struct{}

// Tracker maintains obstacle identity across frames. Its four operations run
// at fixed points in the per-frame sequence: Predict before detection,
// Associate2D after detection, Associate3D after the 3D lift, Track last.
type Tracker interface {
	Init(options TrackerInitOptions) error
	Predict(options TrackerOptions, frame *Frame) error
	Associate2D(options TrackerOptions, frame *Frame) error
	Associate3D(options TrackerOptions, frame *Frame) error
	Track(options TrackerOptions, frame *Frame) error
	Name() string
}

// SizeTemplateProvider serves per-class 3D size priors. The pipeline owns
// the concrete template manager and injects it into whichever stage needs
// one; stages treat a nil provider as "no priors available".
type SizeTemplateProvider interface {
	TemplateSize(objType ObjectType) ([3]float64, bool)
}

// TransformerInitOptions configures the 2D→3D transformer.
type TransformerInitOptions struct {
	RootDir  string
	ConfFile string

	// Templates optionally supplies per-class size priors.
	Templates SizeTemplateProvider
}

// TransformerOptions carries per-frame transform options.
type TransformerOptions struct{}

// Transformer lifts associated detections into 3D using calibration and/or
// model geometry.
type Transformer interface {
	Init(options TransformerInitOptions) error
	Transform(options TransformerOptions, frame *Frame) error
	Name() string
}

// ObstaclePostprocessorInitOptions configures the obstacle postprocessor.
type ObstaclePostprocessorInitOptions struct {
	RootDir  string
	ConfFile string
}

// ObstaclePostprocessorOptions carries per-frame refinement options.
type ObstaclePostprocessorOptions struct {
	// DoRefinementWithCalibrationService is set whenever a live calibration
	// service instance is attached to the frame.
	DoRefinementWithCalibrationService bool
}

// ObstaclePostprocessor refines 3D obstacle attributes after the transform.
type ObstaclePostprocessor interface {
	Init(options ObstaclePostprocessorInitOptions) error
	Process(options ObstaclePostprocessorOptions, frame *Frame) error
	Name() string
}

// FeatureExtractorInitOptions configures the optional feature extractor.
type FeatureExtractorInitOptions struct {
	RootDir  string
	ConfFile string
}

// FeatureExtractorOptions carries per-frame extraction options.
type FeatureExtractorOptions struct{}

// FeatureExtractor attaches appearance features to freshly detected objects.
type FeatureExtractor interface {
	Init(options FeatureExtractorInitOptions) error
	Extract(options FeatureExtractorOptions, frame *Frame) error
	Name() string
}

// LaneDetectorInitOptions configures the lane detector.
type LaneDetectorInitOptions struct {
	RootDir     string
	ConfFile    string
	GPUID       int
	CameraModel *CameraModel
}

// LaneDetectorOptions carries per-frame lane detection options.
type LaneDetectorOptions struct{}

// LaneDetector finds lane markings on the working sensor's frames.
type LaneDetector interface {
	Init(options LaneDetectorInitOptions) error
	Detect(options LaneDetectorOptions, frame *Frame) error
	Name() string
}

// LanePostprocessorInitOptions configures the lane postprocessor. The
// detector's resolved root/config is passed along so the postprocessor can
// align its geometry assumptions with the detector it consumes.
type LanePostprocessorInitOptions struct {
	DetectRootDir  string
	DetectConfFile string
	RootDir        string
	ConfFile       string
}

// LanePostprocessorOptions carries per-frame lane postprocessing options.
type LanePostprocessorOptions struct{}

// LanePostprocessor fits lane geometry in two phases: Process2D on image
// evidence before the calibration update, Process3D on the ground plane
// after it.
type LanePostprocessor interface {
	Init(options LanePostprocessorInitOptions) error
	Process2D(options LanePostprocessorOptions, frame *Frame) error
	Process3D(options LanePostprocessorOptions, frame *Frame) error
	Name() string
}

// CalibrationServiceInitOptions configures the calibration service.
type CalibrationServiceInitOptions struct {
	WorkingSensorName string
	Intrinsics        map[string]*mat.Dense
	CalibratorMethod  string
	ImageWidth        int
	ImageHeight       int
}

// CalibrationService estimates camera extrinsics (ground height, pitch) from
// the working sensor's lane evidence and serves them to every sensor's
// frames. Update is best-effort and never fails a frame.
type CalibrationService interface {
	Init(options CalibrationServiceInitOptions) error
	Update(frame *Frame)
	SetCameraHeightAndPitch(heights map[string]float64, pitchDiffs map[string]float64, workingSensorPitch float64)
	// QueryCameraHeightAndPitch returns the current estimate for a sensor.
	QueryCameraHeightAndPitch(sensorName string) (height, pitch float64, ok bool)
	Name() string
}
