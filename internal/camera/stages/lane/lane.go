// Package lane implements the built-in lane subsystem: a detector that pulls
// lane-mark evidence off the frame's data provider and assigns lane
// positions, plus a postprocessor that fits image-space curves (2D phase)
// and ground-plane curves (3D phase) around the calibration update.
package lane

import (
	"fmt"
	"sort"

	"github.com/meridian-av/perception/internal/camera"
	"github.com/meridian-av/perception/internal/camera/registry"
)

// Registered plugin names for the lane subsystem.
const (
	DetectorPluginName      = "PolylineLaneDetector"
	PostprocessorPluginName = "GroundPlaneLaneFitter"
)

func init() {
	registry.RegisterLaneDetector(DetectorPluginName, func() camera.LaneDetector {
		return &Detector{}
	})
	registry.RegisterLanePostprocessor(PostprocessorPluginName, func() camera.LanePostprocessor {
		return &Postprocessor{}
	})
}

// EvidenceProvider is the accessor the detector requires from the working
// sensor's data provider: raw lane-mark point chains in image space.
type EvidenceProvider interface {
	LaneMarkPoints() [][]camera.Point2D
}

// Detector implements camera.LaneDetector.
type Detector struct {
	imageWidth int
}

// Name implements camera.LaneDetector.
func (d *Detector) Name() string { return DetectorPluginName }

// Init implements camera.LaneDetector.
func (d *Detector) Init(options camera.LaneDetectorInitOptions) error {
	if options.CameraModel == nil {
		return fmt.Errorf("lane detector requires a camera model")
	}
	d.imageWidth = options.CameraModel.Width
	return nil
}

// Detect implements camera.LaneDetector. Each evidence chain becomes one
// lane line; the two chains closest to the image centre on either side are
// the ego pair, the rest are adjacent lanes.
func (d *Detector) Detect(_ camera.LaneDetectorOptions, frame *camera.Frame) error {
	provider, ok := frame.DataProvider.(EvidenceProvider)
	if !ok {
		return fmt.Errorf("lane detector: data provider for %s carries no lane evidence", frame.SensorName())
	}

	chains := provider.LaneMarkPoints()
	frame.LaneObjects = frame.LaneObjects[:0]
	for _, chain := range chains {
		if len(chain) < 2 {
			continue
		}
		frame.LaneObjects = append(frame.LaneObjects, camera.LaneLine{
			PositionType: camera.LaneUnknownPos,
			Confidence:   1.0,
			ImagePoints:  chain,
		})
	}
	d.assignPositions(frame.LaneObjects)
	camera.Tracef("lane detector: %d lane lines on %s", len(frame.LaneObjects), frame.SensorName())
	return nil
}

// assignPositions labels lanes by their bottom-row column relative to the
// image centre.
func (d *Detector) assignPositions(lanes []camera.LaneLine) {
	centre := float64(d.imageWidth) / 2

	type keyed struct {
		idx    int
		column float64
	}
	var left, right []keyed
	for i := range lanes {
		col := bottomColumn(lanes[i].ImagePoints)
		if col < centre {
			left = append(left, keyed{i, col})
		} else {
			right = append(right, keyed{i, col})
		}
	}
	sort.Slice(left, func(a, b int) bool { return left[a].column > left[b].column })
	sort.Slice(right, func(a, b int) bool { return right[a].column < right[b].column })

	for n, k := range left {
		switch n {
		case 0:
			lanes[k.idx].PositionType = camera.LaneEgoLeft
		case 1:
			lanes[k.idx].PositionType = camera.LaneAdjLeft
		}
	}
	for n, k := range right {
		switch n {
		case 0:
			lanes[k.idx].PositionType = camera.LaneEgoRight
		case 1:
			lanes[k.idx].PositionType = camera.LaneAdjRight
		}
	}
}

// bottomColumn returns the column of the lowest (largest row) point.
func bottomColumn(points []camera.Point2D) float64 {
	best := points[0]
	for _, p := range points[1:] {
		if p.Y > best.Y {
			best = p
		}
	}
	return best.X
}
