// Package calibrate implements the online calibration service: a stateful
// estimator of camera ground height and pitch. The working sensor's lane
// evidence feeds the estimate; every sensor's frames consume it.
package calibrate

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/meridian-av/perception/internal/camera"
	"github.com/meridian-av/perception/internal/camera/registry"
)

// PluginName is the registered name of this calibration service.
const PluginName = "LaneLineCalibrator"

// Estimation defaults. Height cannot be observed from lane convergence
// alone, so it starts at a nominal mount height until SetCameraHeightAndPitch
// supplies surveyed values.
const (
	defaultCameraHeight = 1.5  // metres
	pitchSmoothingAlpha = 0.05 // EMA weight for each new pitch observation
	maxReasonablePitch  = 0.35 // radians; reject wilder vanishing-point fits
)

func init() {
	registry.RegisterCalibrationService(PluginName, func() camera.CalibrationService {
		return &Service{}
	})
}

// Service estimates pitch from the convergence of the ego lane pair and
// serves per-sensor height/pitch to the rest of the pipeline. Its history
// persists across frames; it is the one piece of cross-frame mutable state
// in the pipeline besides the tracker.
type Service struct {
	mu sync.RWMutex

	workingSensor string
	intrinsics    map[string]*mat.Dense
	method        string
	imageWidth    int
	imageHeight   int

	// Current estimates.
	workingPitch float64
	pitchValid   bool
	heights      map[string]float64
	pitchDiffs   map[string]float64

	// Observation history for the EMA.
	observations int
}

// Name implements camera.CalibrationService.
func (s *Service) Name() string { return PluginName }

// Init implements camera.CalibrationService.
func (s *Service) Init(options camera.CalibrationServiceInitOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workingSensor = options.WorkingSensorName
	s.intrinsics = options.Intrinsics
	s.method = options.CalibratorMethod
	s.imageWidth = options.ImageWidth
	s.imageHeight = options.ImageHeight
	s.heights = make(map[string]float64)
	s.pitchDiffs = make(map[string]float64)
	for name := range options.Intrinsics {
		s.heights[name] = defaultCameraHeight
		s.pitchDiffs[name] = 0
	}
	return nil
}

// SetCameraHeightAndPitch installs surveyed per-sensor heights and pitch
// offsets plus the working sensor's static pitch.
func (s *Service) SetCameraHeightAndPitch(heights, pitchDiffs map[string]float64, workingSensorPitch float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, h := range heights {
		s.heights[name] = h
	}
	for name, d := range pitchDiffs {
		s.pitchDiffs[name] = d
	}
	s.workingPitch = workingSensorPitch
	s.pitchValid = true
}

// Update feeds a frame into the estimator. On the working sensor it refines
// the pitch estimate from the ego lane pair's vanishing point; on every
// other sensor it is a no-op read, since consumers pull the shared state
// through QueryCameraHeightAndPitch. Update is best-effort and never fails
// the frame.
func (s *Service) Update(frame *camera.Frame) {
	if frame.SensorName() != s.workingSensor {
		return
	}
	observed, ok := s.pitchFromLanes(frame)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.pitchValid {
		s.workingPitch = observed
		s.pitchValid = true
	} else {
		s.workingPitch += pitchSmoothingAlpha * (observed - s.workingPitch)
	}
	s.observations++
	camera.Tracef("calibration update: sensor=%s observed=%.5f smoothed=%.5f n=%d",
		s.workingSensor, observed, s.workingPitch, s.observations)
}

// QueryCameraHeightAndPitch implements camera.CalibrationService.
func (s *Service) QueryCameraHeightAndPitch(sensorName string) (float64, float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	height, okH := s.heights[sensorName]
	diff, okD := s.pitchDiffs[sensorName]
	if !okH || !okD || !s.pitchValid {
		return 0, 0, false
	}
	return height, s.workingPitch + diff, true
}

// pitchFromLanes estimates pitch from where the ego lane pair converges.
// Both ego lanes are fit as column = a + b·row near the bottom of the image;
// the intersection row is the vanishing row, and pitch follows from the
// principal point and vertical focal length.
func (s *Service) pitchFromLanes(frame *camera.Frame) (float64, bool) {
	k := s.intrinsics[s.workingSensor]
	if k == nil {
		return 0, false
	}

	var left, right *camera.LaneLine
	for i := range frame.LaneObjects {
		lane := &frame.LaneObjects[i]
		switch lane.PositionType {
		case camera.LaneEgoLeft:
			left = lane
		case camera.LaneEgoRight:
			right = lane
		}
	}
	if left == nil || right == nil {
		return 0, false
	}

	la, lb, ok := fitLinear(left.ImagePoints)
	if !ok {
		return 0, false
	}
	ra, rb, ok := fitLinear(right.ImagePoints)
	if !ok {
		return 0, false
	}
	if math.Abs(lb-rb) < 1e-9 {
		return 0, false
	}
	vanishingRow := (ra - la) / (lb - rb)

	fy := k.At(1, 1)
	cy := k.At(1, 2)
	pitch := math.Atan2(cy-vanishingRow, fy)
	if math.Abs(pitch) > maxReasonablePitch {
		return 0, false
	}
	return pitch, true
}

// fitLinear least-squares fits column = a + b·row over the points.
func fitLinear(points []camera.Point2D) (a, b float64, ok bool) {
	if len(points) < 2 {
		return 0, 0, false
	}
	var sr, sc, srr, src float64
	for _, p := range points {
		sr += p.Y
		sc += p.X
		srr += p.Y * p.Y
		src += p.Y * p.X
	}
	n := float64(len(points))
	det := n*srr - sr*sr
	if math.Abs(det) < 1e-9 {
		return 0, 0, false
	}
	b = (n*src - sr*sc) / det
	a = (sc - b*sr) / n
	return a, b, true
}
