// Package postprocess implements the built-in obstacle postprocessor. When a
// calibration service is available it snaps each object's footprint back
// onto the calibrated ground plane and normalises headings; without one it
// only normalises.
package postprocess

import (
	"math"

	"github.com/meridian-av/perception/internal/camera"
	"github.com/meridian-av/perception/internal/camera/registry"
)

// PluginName is the registered name of this postprocessor.
const PluginName = "LocationRefiner"

func init() {
	registry.RegisterObstaclePostprocessor(PluginName, func() camera.ObstaclePostprocessor {
		return &Postprocessor{}
	})
}

// Postprocessor implements camera.ObstaclePostprocessor.
type Postprocessor struct{}

// Name implements camera.ObstaclePostprocessor.
func (p *Postprocessor) Name() string { return PluginName }

// Init implements camera.ObstaclePostprocessor.
func (p *Postprocessor) Init(options camera.ObstaclePostprocessorInitOptions) error {
	return nil
}

// Process implements camera.ObstaclePostprocessor.
func (p *Postprocessor) Process(options camera.ObstaclePostprocessorOptions, frame *camera.Frame) error {
	refine := options.DoRefinementWithCalibrationService && frame.CalibrationService != nil

	var height float64
	var haveCalib bool
	if refine {
		height, _, haveCalib = frame.CalibrationService.QueryCameraHeightAndPitch(frame.SensorName())
	}

	for _, obj := range frame.DetectedObjects {
		// Keep headings in (−π, π].
		obj.Theta = normalizeAngle(obj.Theta)

		if !haveCalib {
			continue
		}
		// The object's box bottom must sit on the ground plane: camera Y
		// points down, so the ground is at Y = height and the box centre at
		// half the box height above it.
		obj.Center.Y = height - obj.Size[2]/2
	}
	return nil
}

func normalizeAngle(theta float64) float64 {
	for theta > math.Pi {
		theta -= 2 * math.Pi
	}
	for theta <= -math.Pi {
		theta += 2 * math.Pi
	}
	return theta
}
